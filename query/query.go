/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Ordering sorts results by one property
type Ordering struct {
	Property   string
	Descending bool
}

// Query is an immutable description of an entity query.
// Every builder method returns a new value; the receiver is never modified.
type Query struct {
	filters  []Expr
	orders   []Ordering
	includes []string
	limit    int
}

// New returns an empty query matching every entity
func New() Query {
	return Query{}
}

// Where adds a filter; successive filters are combined with And
func (q Query) Where(e Expr) Query {
	if e == nil {
		return q
	}
	out := q.clone()
	out.filters = append(out.filters, e)
	return out
}

// OrderBy adds an ascending sort key
func (q Query) OrderBy(property string) Query {
	out := q.clone()
	out.orders = append(out.orders, Ordering{Property: property})
	return out
}

// OrderByDesc adds a descending sort key
func (q Query) OrderByDesc(property string) Query {
	out := q.clone()
	out.orders = append(out.orders, Ordering{Property: property, Descending: true})
	return out
}

// Include requests eager loading of a navigation path
func (q Query) Include(path string) Query {
	out := q.clone()
	out.includes = append(out.includes, path)
	return out
}

// Take limits the number of results; n <= 0 removes the limit
func (q Query) Take(n int) Query {
	out := q.clone()
	out.limit = max(n, 0)
	return out
}

// Filters returns the filters in the order they were added
func (q Query) Filters() []Expr {
	return slices.Clone(q.filters)
}

// Filter returns the conjunction of every filter, or nil
func (q Query) Filter() Expr {
	return And(q.filters...)
}

// Orders returns the sort keys
func (q Query) Orders() []Ordering {
	return slices.Clone(q.orders)
}

// Includes returns the eager-load paths
func (q Query) Includes() []string {
	return slices.Clone(q.includes)
}

// HasInclude reports whether path is already requested
func (q Query) HasInclude(path string) bool {
	return slices.Contains(q.includes, path)
}

// Limit returns the result limit; zero means unlimited
func (q Query) Limit() int {
	return q.limit
}

// Equal reports whether q and other describe the same query
func (q Query) Equal(other Query) bool {
	return q.limit == other.limit &&
		slices.Equal(q.orders, other.orders) &&
		slices.Equal(q.includes, other.includes) &&
		len(q.filters) == len(other.filters) &&
		(len(q.filters) == 0 || reflect.DeepEqual(q.filters, other.filters))
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString("query")
	for _, f := range q.filters {
		b.WriteString(" where ")
		b.WriteString(f.String())
	}
	for _, o := range q.orders {
		b.WriteString(" orderby ")
		b.WriteString(o.Property)
		if o.Descending {
			b.WriteString(" desc")
		}
	}
	for _, p := range q.includes {
		b.WriteString(" include ")
		b.WriteString(p)
	}
	if q.limit > 0 {
		b.WriteString(" take ")
		b.WriteString(strconv.Itoa(q.limit))
	}
	return b.String()
}

func (q Query) clone() Query {
	return Query{
		filters:  slices.Clone(q.filters),
		orders:   slices.Clone(q.orders),
		includes: slices.Clone(q.includes),
		limit:    q.limit,
	}
}

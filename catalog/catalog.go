/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package catalog

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/entitybind/observability"
)

// Catalog is the set of entity types discovered for a root module
type Catalog struct {
	ctx        MatchContext
	matcher    Matcher
	candidates []reflect.Type
	explicit   bool
	logger     *zap.Logger

	types   map[reflect.Type]struct{}
	ordered []reflect.Type

	// descriptors is write-once per key: reflect.Type -> *EntityDescriptor
	descriptors sync.Map
}

// Option configures a Catalog
type Option func(*Catalog)

// WithArea overrides the conventional entities package segment
func WithArea(area string) Option {
	return func(c *Catalog) {
		if area != "" {
			c.ctx.Area = area
		}
	}
}

// WithMatcher substitutes the discovery predicate
func WithMatcher(m Matcher) Option {
	return func(c *Catalog) {
		if m != nil {
			c.matcher = m
		}
	}
}

// WithCandidates replaces the globally registered candidates with an explicit list
func WithCandidates(types ...reflect.Type) Option {
	return func(c *Catalog) {
		c.candidates = types
		c.explicit = true
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		c.logger = observability.OrNop(logger)
	}
}

// New discovers the entity types of root and returns the resulting catalog
func New(root string, opts ...Option) *Catalog {
	c := &Catalog{
		ctx:     MatchContext{RootModule: root, Area: DefaultArea},
		matcher: IsMatch,
		logger:  zap.NewNop(),
		types:   make(map[reflect.Type]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.explicit {
		c.candidates = Candidates()
	}

	for _, t := range c.candidates {
		t = normalize(t)
		if t == nil {
			continue
		}
		if _, seen := c.types[t]; seen {
			continue
		}
		if c.matcher(c.ctx, t) {
			c.types[t] = struct{}{}
			c.ordered = append(c.ordered, t)
		}
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		return c.ordered[i].String() < c.ordered[j].String()
	})

	c.logger.Debug("entity catalog discovered types",
		zap.String("root", root),
		zap.String("area", c.ctx.Area),
		zap.Int("candidates", len(c.candidates)),
		zap.Int("entities", len(c.ordered)))
	return c
}

// DiscoverEntityTypes returns the entity types of root, sorted by name
func DiscoverEntityTypes(root string, opts ...Option) []reflect.Type {
	return New(root, opts...).Types()
}

// Root returns the root module the catalog was discovered for
func (c *Catalog) Root() string {
	return c.ctx.RootModule
}

// Context returns the match context used for discovery
func (c *Catalog) Context() MatchContext {
	return c.ctx
}

// IsMatch applies the catalog's predicate to candidate
func (c *Catalog) IsMatch(candidate reflect.Type) bool {
	return c.matcher(c.ctx, candidate)
}

// Types returns the discovered entity types
func (c *Catalog) Types() []reflect.Type {
	out := make([]reflect.Type, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Contains reports whether t (or the type t points to) is a catalog entity
func (c *Catalog) Contains(t reflect.Type) bool {
	if c == nil {
		return false
	}
	_, ok := c.types[normalize(t)]
	return ok
}

// TableName returns the Entity marker's table, or the type name
func (c *Catalog) TableName(t reflect.Type) string {
	return tableName(t)
}

func tableName(t reflect.Type) string {
	t = normalize(t)
	if t == nil {
		return ""
	}
	if implementsEntity(t) {
		if name := reflect.New(t).Interface().(Entity).EntityTable(); name != "" {
			return name
		}
	}
	return t.Name()
}

// Describe returns the cached descriptor of t, computing it on first use
func (c *Catalog) Describe(t reflect.Type) (*EntityDescriptor, error) {
	t = normalize(t)
	if t != nil {
		if d, ok := c.descriptors.Load(t); ok {
			return d.(*EntityDescriptor), nil
		}
	}

	d, err := describe(t, c.TableName(t), c.Contains)
	if err != nil {
		return nil, err
	}
	actual, _ := c.descriptors.LoadOrStore(t, d)
	return actual.(*EntityDescriptor), nil
}

// DescribeFor is the generic form of Describe
func DescribeFor[T any](c *Catalog) (*EntityDescriptor, error) {
	return c.Describe(reflect.TypeFor[T]())
}

// Describe builds an uncached descriptor of t outside any catalog.
// Key and table detection work as usual; no property is navigable.
func Describe(t reflect.Type) (*EntityDescriptor, error) {
	t = normalize(t)
	var none *Catalog
	return describe(t, tableName(t), none.Contains)
}

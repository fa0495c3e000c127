/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/suparena/entitybind/errors"
)

// Apply filters, sorts and limits items in memory according to q.
// The input slice is not modified.
func Apply[T any](items []T, q Query) ([]T, error) {
	filter := q.Filter()
	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := Evaluate(filter, item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}

	if err := Sort(out, q.Orders()); err != nil {
		return nil, err
	}
	if q.Limit() > 0 && len(out) > q.Limit() {
		out = out[:q.Limit()]
	}
	return out, nil
}

// Sort orders items in place by orders; it is stable, so earlier keys win
// and equal items keep their relative order. Nil values sort first.
func Sort[T any](items []T, orders []Ordering) error {
	if len(orders) == 0 {
		return nil
	}

	var sortErr error
	slices.SortStableFunc(items, func(a, b T) int {
		for _, o := range orders {
			av, err := PropertyValue(a, o.Property)
			if err != nil {
				sortErr = err
				return 0
			}
			bv, err := PropertyValue(b, o.Property)
			if err != nil {
				sortErr = err
				return 0
			}

			c, err := compareForSort(o.Property, av, bv)
			if err != nil {
				sortErr = err
				return 0
			}
			if o.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return sortErr
}

func compareForSort(property string, a, b any) (int, error) {
	aNil, bNil := isNil(a), isNil(b)
	switch {
	case aNil && bNil:
		return 0, nil
	case aNil:
		return -1, nil
	case bNil:
		return 1, nil
	}
	c, ok := Compare(a, b)
	if !ok {
		return 0, errors.NewValidationError(property, fmt.Sprintf("cannot order %T values", a))
	}
	return c, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitybind/errors"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	dateTimeType = reflect.TypeFor[strfmt.DateTime]()
)

// Evaluate reports whether entity satisfies e. A nil expression matches
// everything. Property paths are dot-separated field names; a nil pointer
// along the path makes the comparison false.
func Evaluate(e Expr, entity any) (bool, error) {
	if e == nil {
		return true, nil
	}
	root := reflect.ValueOf(entity)

	switch n := e.(type) {
	case Comparison:
		return evalComparison(n, root)
	case Logical:
		for _, o := range n.Operands {
			ok, err := Evaluate(o, entity)
			if err != nil {
				return false, err
			}
			if n.Op == OpAnd && !ok {
				return false, nil
			}
			if n.Op == OpOr && ok {
				return true, nil
			}
		}
		return n.Op == OpAnd, nil
	case Negation:
		ok, err := Evaluate(n.Operand, entity)
		return !ok, err
	}
	return false, fmt.Errorf("%w: unsupported expression %T", errors.ErrInvalidInput, e)
}

func evalComparison(c Comparison, root reflect.Value) (bool, error) {
	if p, ok := c.Value.(Param); ok {
		return false, errors.NewValidationError(c.Property, fmt.Sprintf("parameter %s is unbound", p))
	}
	field, ok, err := resolve(root, c.Property)
	if err != nil || !ok {
		return false, err
	}

	if c.Op == OpEq || c.Op == OpNe {
		eq := equal(field, c.Value)
		return eq == (c.Op == OpEq), nil
	}

	order, comparable := compare(field, reflect.ValueOf(c.Value))
	if !comparable {
		return false, errors.NewValidationError(c.Property,
			fmt.Sprintf("cannot order %s against %T", field.Type(), c.Value))
	}
	switch c.Op {
	case OpLt:
		return order < 0, nil
	case OpLe:
		return order <= 0, nil
	case OpGt:
		return order > 0, nil
	case OpGe:
		return order >= 0, nil
	}
	return false, fmt.Errorf("%w: operator %s is not a comparison", errors.ErrInvalidInput, c.Op)
}

// resolve walks a dotted property path; ok is false when a nil pointer interrupts it
func resolve(v reflect.Value, path string) (reflect.Value, bool, error) {
	for _, name := range strings.Split(path, ".") {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, false, nil
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, false, fmt.Errorf("%w: %s", errors.ErrUnknownProperty, path)
		}
		sf, found := v.Type().FieldByName(name)
		if !found || !sf.IsExported() {
			return reflect.Value{}, false, fmt.Errorf("%w: %s.%s", errors.ErrUnknownProperty, v.Type(), name)
		}
		v = v.FieldByIndex(sf.Index)
	}
	return v, true, nil
}

// PropertyValue returns the value at path, or nil when a nil pointer interrupts it
func PropertyValue(entity any, path string) (any, error) {
	v, ok, err := resolve(reflect.ValueOf(entity), path)
	if err != nil || !ok {
		return nil, err
	}
	return v.Interface(), nil
}

func equal(field reflect.Value, value any) bool {
	if value == nil {
		switch field.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			return field.IsNil()
		}
		return false
	}
	if order, ok := compare(field, reflect.ValueOf(value)); ok {
		return order == 0
	}
	return reflect.DeepEqual(field.Interface(), value)
}

// Compare orders a and b when both are numbers, strings or timestamps
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return compare(reflect.ValueOf(a), reflect.ValueOf(b))
}

func compare(a, b reflect.Value) (int, bool) {
	a, b = deref(a), deref(b)
	if !a.IsValid() || !b.IsValid() {
		return 0, false
	}

	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb), true
		}
		return 0, false
	}

	switch {
	case isInt(a) && isInt(b):
		return cmp.Compare(a.Int(), b.Int()), true
	case isUint(a) && isUint(b):
		return cmp.Compare(a.Uint(), b.Uint()), true
	case isNumber(a) && isNumber(b):
		return cmp.Compare(toFloat(a), toFloat(b)), true
	case a.Kind() == reflect.String && b.Kind() == reflect.String:
		return strings.Compare(a.String(), b.String()), true
	case a.Kind() == reflect.Bool && b.Kind() == reflect.Bool:
		if a.Bool() == b.Bool() {
			return 0, true
		}
		if b.Bool() {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func asTime(v reflect.Value) (time.Time, bool) {
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time), true
	case dateTimeType:
		return time.Time(v.Interface().(strfmt.DateTime)), true
	}
	return time.Time{}, false
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	}
	return v.Float()
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"

	"github.com/suparena/entitybind/errors"
)

// InjectTag marks struct fields RegisterType fills from the registry
const InjectTag = "inject"

// RegisterType registers impl for contract with a reflective provider.
// impl is a struct or pointer-to-struct type; each exported field tagged
// inject:"" is resolved by its field type when an instance is built.
func (r *ServiceRegistry) RegisterType(contract, impl reflect.Type, opts ...RegisterOption) error {
	if impl == nil {
		return fmt.Errorf("%w: nil implementation for %v", errors.ErrInvalidRegistration, contract)
	}
	structType := impl
	if impl.Kind() == reflect.Pointer {
		structType = impl.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not a struct or pointer to struct", errors.ErrInvalidRegistration, impl)
	}

	var injected [][]int
	for _, f := range reflect.VisibleFields(structType) {
		if _, ok := f.Tag.Lookup(InjectTag); !ok {
			continue
		}
		if !f.IsExported() {
			return fmt.Errorf("%w: %s.%s is tagged for injection but unexported",
				errors.ErrInvalidRegistration, structType, f.Name)
		}
		injected = append(injected, f.Index)
	}

	provider := func(res Resolver) (any, error) {
		v := reflect.New(structType)
		for _, index := range injected {
			field := v.Elem().FieldByIndex(index)
			dep, err := res.Resolve(field.Type())
			if err != nil {
				return nil, err
			}
			field.Set(reflect.ValueOf(dep))
		}
		if impl.Kind() == reflect.Pointer {
			return v.Interface(), nil
		}
		return v.Elem().Interface(), nil
	}
	return r.Register(contract, impl, provider, opts...)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
)

// ContractOf returns the reflect.Type used as the contract key for C
func ContractOf[C any]() reflect.Type {
	return reflect.TypeFor[C]()
}

// Register maps contract C to a typed provider
func Register[C any](r *ServiceRegistry, provider func(Resolver) (C, error), opts ...RegisterOption) error {
	var p Provider
	if provider != nil {
		p = func(res Resolver) (any, error) {
			v, err := provider(res)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return r.Register(ContractOf[C](), nil, p, opts...)
}

// RegisterImpl maps contract C to implementation I built by RegisterType
func RegisterImpl[C, I any](r *ServiceRegistry, opts ...RegisterOption) error {
	return r.RegisterType(ContractOf[C](), reflect.TypeFor[I](), opts...)
}

// Resolve returns the instance registered for C
func Resolve[C any](r Resolver) (C, error) {
	var zero C
	v, err := r.Resolve(ContractOf[C]())
	if err != nil {
		return zero, err
	}
	c, ok := v.(C)
	if !ok {
		return zero, fmt.Errorf("resolved %T for contract %s", v, ContractOf[C]())
	}
	return c, nil
}

// MustResolve is Resolve for wiring code where a missing contract is a bug
func MustResolve[C any](r Resolver) C {
	c, err := Resolve[C](r)
	if err != nil {
		panic(err)
	}
	return c
}

// ReplaceInstance overwrites the cached instance of C
func ReplaceInstance[C any](r *ServiceRegistry, instance C) error {
	return r.ReplaceInstance(ContractOf[C](), instance)
}

// IsRegistered reports whether C has a registration
func IsRegistered[C any](r *ServiceRegistry) bool {
	return r.IsRegistered(ContractOf[C]())
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitybind

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/entitybind/datastore"
	"github.com/suparena/entitybind/datastore/ddb"
	"github.com/suparena/entitybind/errors"
)

// StoreSet holds one DataStore per entity type. Its methods are not generic;
// RegisterStore and StoreFor add the type safety.
type StoreSet struct {
	mu     sync.RWMutex
	stores map[reflect.Type]any
}

// NewStoreSet creates an empty StoreSet
func NewStoreSet() *StoreSet {
	return &StoreSet{
		stores: make(map[reflect.Type]any),
	}
}

func (s *StoreSet) register(t reflect.Type, ds any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[t]; exists {
		return fmt.Errorf("datastore for %s already registered", t)
	}
	s.stores[t] = ds
	return nil
}

func (s *StoreSet) get(t reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.stores[t]
	return ds, ok
}

// Remove deletes the store of entity type t
func (s *StoreSet) Remove(t reflect.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[t]; !exists {
		return fmt.Errorf("%w: no datastore for %s", errors.ErrNotFound, t)
	}
	delete(s.stores, t)
	return nil
}

// Types returns the entity types that have a store, sorted by name
func (s *StoreSet) Types() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reflect.Type, 0, len(s.stores))
	for t := range s.stores {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// RegisterStore sets the store of entity type T
func RegisterStore[T any](s *StoreSet, ds datastore.DataStore[T]) error {
	if ds == nil {
		return errors.NewValidationError("ds", "datastore is required")
	}
	return s.register(reflect.TypeFor[T](), ds)
}

// StoreFor returns the store of entity type T
func StoreFor[T any](s *StoreSet) (datastore.DataStore[T], error) {
	t := reflect.TypeFor[T]()
	v, ok := s.get(t)
	if !ok {
		return nil, fmt.Errorf("%w: no datastore for %s", errors.ErrNotFound, t)
	}
	return v.(datastore.DataStore[T]), nil
}

// UseDynamoDB registers a DynamoDB store for T. The table is the configured
// prefix followed by T's catalog table name.
func UseDynamoDB[T any](rt *Runtime, opts ...ddb.Option) (*ddb.DynamodbDataStore[T], error) {
	if rt.ddb == nil {
		return nil, errors.NewValidationError("dynamodb", "no DynamoDB client configured")
	}
	d, err := rt.catalog.Describe(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}

	opts = append([]ddb.Option{ddb.WithDescriptor(d), ddb.WithLogger(rt.logger.Named("ddb"))}, opts...)
	store, err := ddb.NewDynamodbDataStore[T](rt.ddb, rt.cfg.DynamoDB.TablePrefix+d.Table, opts...)
	if err != nil {
		return nil, err
	}
	if err := RegisterStore[T](rt.stores, store); err != nil {
		return nil, err
	}
	return store, nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory DataStore for testing
package mock

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/query"
	"github.com/suparena/entitybind/storagemodels"
)

// DataStore is an in-memory implementation of datastore.DataStore[T].
// Queries are evaluated with the query package, so filters, ordering and
// limits behave like the real stores. Entities are kept in insertion order.
type DataStore[T any] struct {
	mu    sync.RWMutex
	data  map[any]T
	order []any

	queryFunc   func(ctx context.Context, q query.Query) ([]T, error)
	streamFunc  func(ctx context.Context, q query.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
	getKeyFunc  func(entity T) any
	putError    error
	deleteError error

	lastIncludes []string
	queries      int
}

// New creates a new mock DataStore
func New[T any]() *DataStore[T] {
	return &DataStore[T]{
		data: make(map[any]T),
	}
}

// WithGetKeyFunc sets a custom function to extract keys from entities
func (m *DataStore[T]) WithGetKeyFunc(f func(T) any) *DataStore[T] {
	m.getKeyFunc = f
	return m
}

// WithQueryFunc sets a custom query function for testing
func (m *DataStore[T]) WithQueryFunc(f func(ctx context.Context, q query.Query) ([]T, error)) *DataStore[T] {
	m.queryFunc = f
	return m
}

// WithStreamFunc sets a custom stream function for testing
func (m *DataStore[T]) WithStreamFunc(f func(ctx context.Context, q query.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]) *DataStore[T] {
	m.streamFunc = f
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.putError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[T]) WithDeleteError(err error) *DataStore[T] {
	m.deleteError = err
	return m
}

// GetOne retrieves an entity by key
func (m *DataStore[T]) GetOne(ctx context.Context, key any) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if entity, exists := m.data[key]; exists {
		return &entity, nil
	}
	return nil, errors.NewNotFoundError(typeName[T](), fmt.Sprint(key))
}

// Put stores an entity, replacing any entity with the same key
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	if m.putError != nil {
		return m.putError
	}

	key, err := m.extractKey(entity)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
	}
	m.data[key] = entity
	return nil
}

// Delete removes an entity by key
func (m *DataStore[T]) Delete(ctx context.Context, key any) error {
	if m.deleteError != nil {
		return m.deleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists {
		return errors.NewNotFoundError(typeName[T](), fmt.Sprint(key))
	}
	delete(m.data, key)
	m.order = slices.DeleteFunc(m.order, func(k any) bool { return k == key })
	return nil
}

// Query evaluates q against the stored entities
func (m *DataStore[T]) Query(ctx context.Context, q query.Query) ([]T, error) {
	m.mu.Lock()
	m.lastIncludes = q.Includes()
	m.queries++
	m.mu.Unlock()

	if m.queryFunc != nil {
		return m.queryFunc(ctx, q)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return query.Apply(m.snapshot(), q)
}

// Stream emits the results of q one page at a time
func (m *DataStore[T]) Stream(ctx context.Context, q query.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, q, opts...)
	}

	options := storagemodels.ApplyStreamOptions(opts...)
	resultChan := make(chan storagemodels.StreamResult[T], options.BufferSize)

	go func() {
		defer close(resultChan)

		items, err := m.Query(ctx, q)
		if err != nil {
			select {
			case resultChan <- storagemodels.StreamResult[T]{Error: err, Meta: storagemodels.StreamMeta{Timestamp: time.Now()}}:
			case <-ctx.Done():
			}
			return
		}

		progress := storagemodels.StreamProgress{StartTime: time.Now()}
		for i, v := range items {
			page := i/int(options.PageSize) + 1
			select {
			case <-ctx.Done():
				return
			case resultChan <- storagemodels.StreamResult[T]{
				Item: v,
				Meta: storagemodels.StreamMeta{
					Index:      int64(i),
					PageNumber: page,
					Timestamp:  time.Now(),
				},
			}:
			}
			progress.ItemsProcessed++
			if endOfPage := (i+1)%int(options.PageSize) == 0 || i == len(items)-1; endOfPage {
				progress.PagesProcessed = page
				m.report(options, progress)
			}
		}
	}()

	return resultChan
}

func (m *DataStore[T]) report(options storagemodels.StreamOptions, progress storagemodels.StreamProgress) {
	if options.ProgressHandler == nil {
		return
	}
	progress.Rate(time.Now())
	options.ProgressHandler(progress)
}

// Helper methods for testing

// LastIncludes returns the eager-load paths of the most recent Query
func (m *DataStore[T]) LastIncludes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.lastIncludes)
}

// QueryCount returns how many queries have been executed
func (m *DataStore[T]) QueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries
}

// SetData directly sets the stored entities (for testing)
func (m *DataStore[T]) SetData(data map[any]T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[any]T, len(data))
	m.order = m.order[:0]
	for k, v := range data {
		m.data[k] = v
		m.order = append(m.order, k)
	}
}

// GetData returns a copy of the stored entities (for testing)
func (m *DataStore[T]) GetData() map[any]T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[any]T, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result
}

// Count returns the number of stored entities
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all data
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[any]T)
	m.order = nil
}

func (m *DataStore[T]) snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.data[k])
	}
	return out
}

// extractKey uses the key function, or the key property the catalog finds on T
func (m *DataStore[T]) extractKey(entity T) (any, error) {
	if m.getKeyFunc != nil {
		key := m.getKeyFunc(entity)
		if key == nil {
			return nil, errors.NewValidationError("key", "unable to extract key from entity")
		}
		return key, nil
	}

	d, err := catalog.Describe(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	key, err := d.KeyValue(entity)
	if err != nil {
		return nil, err
	}
	if !reflect.TypeOf(key).Comparable() {
		return nil, errors.NewValidationError(d.KeyProperty, fmt.Sprintf("key of type %T is not comparable", key))
	}
	return key, nil
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

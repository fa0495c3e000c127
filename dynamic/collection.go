/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamic

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ChangeAction says what happened to a collection
type ChangeAction int

const (
	ActionAdd ChangeAction = iota
	ActionRemove
	ActionReplace
	ActionReset
)

func (a ChangeAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionReset:
		return "reset"
	}
	return fmt.Sprintf("ChangeAction(%d)", int(a))
}

// CollectionChanged describes one mutation of a Collection
type CollectionChanged[T any] struct {
	Action ChangeAction
	Index  int
	Items  []T
}

// Collection is an observable list
type Collection[T any] struct {
	mu        sync.RWMutex
	items     []T
	observers map[uint64]func(CollectionChanged[T])
	nextObs   uint64
}

// NewCollection creates a collection holding items
func NewCollection[T any](items ...T) *Collection[T] {
	return &Collection[T]{
		items:     append([]T(nil), items...),
		observers: make(map[uint64]func(CollectionChanged[T])),
	}
}

// ElemType reports T; it is safe on a nil receiver.
func (c *Collection[T]) ElemType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Len returns the number of items
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// At returns the item at index i
func (c *Collection[T]) At(i int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Items returns a copy of the items
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Add appends items
func (c *Collection[T]) Add(items ...T) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	index := len(c.items)
	c.items = append(c.items, items...)
	c.publish(CollectionChanged[T]{Action: ActionAdd, Index: index, Items: append([]T(nil), items...)})
}

// Insert places item at index i
func (c *Collection[T]) Insert(i int, item T) error {
	c.mu.Lock()
	if i < 0 || i > len(c.items) {
		c.mu.Unlock()
		return fmt.Errorf("index %d out of range [0,%d]", i, len(c.items))
	}
	var zero T
	c.items = append(c.items, zero)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = item
	c.publish(CollectionChanged[T]{Action: ActionAdd, Index: i, Items: []T{item}})
	return nil
}

// RemoveAt deletes the item at index i
func (c *Collection[T]) RemoveAt(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return fmt.Errorf("index %d out of range [0,%d)", i, len(c.items))
	}
	removed := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.publish(CollectionChanged[T]{Action: ActionRemove, Index: i, Items: []T{removed}})
	return nil
}

// Replace overwrites the item at index i
func (c *Collection[T]) Replace(i int, item T) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return fmt.Errorf("index %d out of range [0,%d)", i, len(c.items))
	}
	c.items[i] = item
	c.publish(CollectionChanged[T]{Action: ActionReplace, Index: i, Items: []T{item}})
	return nil
}

// Clear removes every item
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	c.items = nil
	c.publish(CollectionChanged[T]{Action: ActionReset})
}

// Subscribe registers an observer and returns a function that removes it
func (c *Collection[T]) Subscribe(fn func(CollectionChanged[T])) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	if c.observers == nil {
		c.observers = make(map[uint64]func(CollectionChanged[T]))
	}
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// publish releases mu and delivers e to observers in subscription order
func (c *Collection[T]) publish(e CollectionChanged[T]) {
	ids := make([]uint64, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	observers := make([]func(CollectionChanged[T]), len(ids))
	for i, id := range ids {
		observers[i] = c.observers[id]
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package catalog

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	candidateSet   = make(map[reflect.Type]struct{})
	candidateOrder []reflect.Type
	candidateMu    sync.RWMutex
)

// RegisterCandidate offers type T to entity discovery.
// Registering the same type twice panics to surface copy-paste mistakes early.
func RegisterCandidate[T any]() {
	RegisterCandidateType(reflect.TypeFor[T]())
}

// RegisterCandidateType is the reflect.Type form of RegisterCandidate
func RegisterCandidateType(t reflect.Type) {
	t = normalize(t)
	if t == nil {
		panic("catalog: cannot register nil candidate type")
	}

	candidateMu.Lock()
	defer candidateMu.Unlock()
	if _, exists := candidateSet[t]; exists {
		panic(fmt.Sprintf("catalog: candidate %s already registered", t))
	}
	candidateSet[t] = struct{}{}
	candidateOrder = append(candidateOrder, t)
}

// Candidates returns a snapshot of registered candidates in registration order
func Candidates() []reflect.Type {
	candidateMu.RLock()
	defer candidateMu.RUnlock()

	out := make([]reflect.Type, len(candidateOrder))
	copy(out, candidateOrder)
	return out
}

// normalize strips one level of pointer indirection
func normalize(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

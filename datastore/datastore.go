/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entitybind/query"
	"github.com/suparena/entitybind/storagemodels"
)

// DataStore persists entities of type T. Keys are values of T's key property.
// GetOne and Delete report a missing entity with errors.ErrNotFound.
type DataStore[T any] interface {
	GetOne(ctx context.Context, key any) (*T, error)

	Put(ctx context.Context, entity T) error

	Delete(ctx context.Context, key any) error

	Query(ctx context.Context, q query.Query) ([]T, error)

	Stream(ctx context.Context, q query.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitybind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/datastore"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/query"
	"github.com/suparena/entitybind/registry"
)

// CrudService reads and writes entities of type T through their store. Reads
// eagerly include every navigation property the catalog knows about.
type CrudService[T any] struct {
	store      datastore.DataStore[T]
	augmenter  *query.Augmenter
	descriptor *catalog.EntityDescriptor
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewCrudService creates a CrudService for T over store
func NewCrudService[T any](store datastore.DataStore[T], augmenter *query.Augmenter, logger *zap.Logger) (*CrudService[T], error) {
	if store == nil {
		return nil, errors.NewValidationError("store", "datastore is required")
	}
	if augmenter == nil {
		augmenter = query.NewAugmenter(nil)
	}

	t := reflect.TypeFor[T]()
	var (
		d   *catalog.EntityDescriptor
		err error
	)
	if cat := augmenter.Catalog(); cat != nil {
		d, err = cat.Describe(t)
	} else {
		d, err = catalog.Describe(t)
	}
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &CrudService[T]{
		store:      store,
		augmenter:  augmenter,
		descriptor: d,
		validate:   validator.New(),
		logger:     logger.With(zap.Stringer("entity", t)),
	}, nil
}

// Descriptor returns the entity descriptor of T
func (s *CrudService[T]) Descriptor() *catalog.EntityDescriptor {
	return s.descriptor
}

// Key returns the key of entity
func (s *CrudService[T]) Key(entity T) (any, error) {
	return s.descriptor.KeyValue(entity)
}

// Get returns the entity whose key equals key
func (s *CrudService[T]) Get(ctx context.Context, key any) (*T, error) {
	q, err := s.augmenter.ByKey(s.descriptor.Type, key)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.NewNotFoundError(s.descriptor.Type.String(), fmt.Sprint(key))
	}
	return &items[0], nil
}

// List runs q with navigation properties included
func (s *CrudService[T]) List(ctx context.Context, q query.Query) ([]T, error) {
	return s.store.Query(ctx, s.augmenter.AutoInclude(s.descriptor.Type, q))
}

// Save validates entity and writes it
func (s *CrudService[T]) Save(ctx context.Context, entity T) error {
	if err := s.validate.Struct(entity); err != nil {
		return errors.NewValidationError(s.descriptor.Type.String(), err.Error())
	}
	if err := s.store.Put(ctx, entity); err != nil {
		return err
	}
	s.logger.Debug("entity saved")
	return nil
}

// Delete removes the entity whose key equals key
func (s *CrudService[T]) Delete(ctx context.Context, key any) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Debug("entity deleted", zap.Any("key", key))
	return nil
}

// ServiceFor resolves the CrudService of T from the runtime registry,
// registering it as a singleton contract on first use.
func ServiceFor[T any](rt *Runtime) (*CrudService[T], error) {
	if !registry.IsRegistered[*CrudService[T]](rt.registry) {
		err := registry.Register(rt.registry, func(r registry.Resolver) (*CrudService[T], error) {
			stores, err := registry.Resolve[*StoreSet](r)
			if err != nil {
				return nil, err
			}
			store, err := StoreFor[T](stores)
			if err != nil {
				return nil, err
			}
			augmenter, err := registry.Resolve[*query.Augmenter](r)
			if err != nil {
				return nil, err
			}
			logger, err := registry.Resolve[*zap.Logger](r)
			if err != nil {
				return nil, err
			}
			return NewCrudService(store, augmenter, logger.Named("crud"))
		})
		// Another goroutine may have registered it first.
		if err != nil && !errors.IsDuplicateRegistration(err) {
			return nil, err
		}
	}
	return registry.Resolve[*CrudService[T]](rt.registry)
}

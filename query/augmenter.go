/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/observability"
)

// KeyParam is the placeholder identity filters compare the key against
const KeyParam Param = "key"

// IdentityFilter returns the lambda "key property == @key" for entity type t
func IdentityFilter(t reflect.Type) (Lambda, error) {
	d, err := catalog.Describe(t)
	if err != nil {
		return Lambda{}, err
	}
	return identityFilter(d)
}

// IdentityFilterFor is the generic form of IdentityFilter
func IdentityFilterFor[T any]() (Lambda, error) {
	return IdentityFilter(reflect.TypeFor[T]())
}

func identityFilter(d *catalog.EntityDescriptor) (Lambda, error) {
	if !d.HasKey() {
		return Lambda{}, errors.NewNoKeyPropertyError(d.Type)
	}
	return Lambda{Param: KeyParam, Body: Eq(d.KeyProperty, KeyParam)}, nil
}

// Augmenter rewrites queries using the navigation and key metadata of a catalog
type Augmenter struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option configures an Augmenter
type Option func(*Augmenter)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Augmenter) {
		a.logger = observability.OrNop(logger)
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Augmenter) {
		a.metrics = m
	}
}

// NewAugmenter creates an Augmenter over cat. A nil catalog is allowed and
// turns AutoInclude into a no-op.
func NewAugmenter(cat *catalog.Catalog, opts ...Option) *Augmenter {
	a := &Augmenter{catalog: cat, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the catalog the augmenter reads from
func (a *Augmenter) Catalog() *catalog.Catalog {
	return a.catalog
}

// AutoInclude returns q with an Include for every navigable property of t, in
// declaration order. Paths q already includes are not repeated. When there is
// no catalog, t is not one of its entities, or t cannot be described, q is
// returned unchanged.
func (a *Augmenter) AutoInclude(t reflect.Type, q Query) Query {
	if a.catalog == nil || !a.catalog.Contains(t) {
		a.logger.Debug("auto include skipped",
			zap.Stringer("entity", typeStringer{t}),
			zap.Bool("catalog", a.catalog != nil))
		return q
	}
	d, err := a.catalog.Describe(t)
	if err != nil {
		a.logger.Debug("auto include skipped", zap.Stringer("entity", typeStringer{t}), zap.Error(err))
		return q
	}

	added := 0
	for _, p := range d.Navigable() {
		if q.HasInclude(p.Name) {
			continue
		}
		q = q.Include(p.Name)
		added++
	}
	if added > 0 {
		a.metrics.ObserveIncludes(d.Type.String(), added)
		a.logger.Debug("auto include applied",
			zap.Stringer("entity", d.Type),
			zap.Int("added", added),
			zap.Strings("includes", q.Includes()))
	}
	return q
}

// IdentityFilter returns the identity lambda of t using the catalog's cached descriptor
func (a *Augmenter) IdentityFilter(t reflect.Type) (Lambda, error) {
	if a.catalog == nil {
		return IdentityFilter(t)
	}
	d, err := a.catalog.Describe(t)
	if err != nil {
		return Lambda{}, err
	}
	return identityFilter(d)
}

// ByKey returns the auto-included query selecting the entity of type t with key
func (a *Augmenter) ByKey(t reflect.Type, key any) (Query, error) {
	filter, err := a.IdentityFilter(t)
	if err != nil {
		return Query{}, err
	}
	return a.AutoInclude(t, New().Where(filter.Apply(key)).Take(1)), nil
}

type typeStringer struct{ t reflect.Type }

func (s typeStringer) String() string {
	if s.t == nil {
		return "<nil>"
	}
	return s.t.String()
}

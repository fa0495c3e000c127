/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/observability"
)

// Lifetime says whether resolved instances are cached
type Lifetime int

const (
	// Singleton caches the first constructed instance (the default)
	Singleton Lifetime = iota
	// Transient constructs a fresh instance on every resolution
	Transient
)

func (l Lifetime) String() string {
	if l == Transient {
		return "transient"
	}
	return "singleton"
}

// Resolver resolves contracts while an implementation is being constructed
type Resolver interface {
	Resolve(contract reflect.Type) (any, error)
}

// Provider produces an implementation instance
type Provider func(r Resolver) (any, error)

type instanceBox struct {
	value any
}

// Registration is the entry kept for one contract
type Registration struct {
	Contract       reflect.Type
	Implementation reflect.Type
	Lifetime       Lifetime

	key      string
	provider Provider
	instance atomic.Pointer[instanceBox]
}

// RegisterOption configures a registration
type RegisterOption func(*Registration)

// WithLifetime sets the lifetime of a registration
func WithLifetime(l Lifetime) RegisterOption {
	return func(r *Registration) {
		r.Lifetime = l
	}
}

// AsTransient is shorthand for WithLifetime(Transient)
func AsTransient() RegisterOption {
	return WithLifetime(Transient)
}

// ServiceRegistry holds contract registrations and their cached instances
type ServiceRegistry struct {
	mu            sync.RWMutex
	registrations map[reflect.Type]*Registration
	order         []reflect.Type

	group   singleflight.Group
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option configures a ServiceRegistry
type Option func(*ServiceRegistry)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *ServiceRegistry) {
		r.logger = observability.OrNop(logger)
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(r *ServiceRegistry) {
		r.metrics = m
	}
}

// New creates an empty registry
func New(opts ...Option) *ServiceRegistry {
	r := &ServiceRegistry{
		registrations: make(map[reflect.Type]*Registration),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register maps contract to provider. impl documents the concrete type the
// provider returns and may be nil when it is not known up front.
func (r *ServiceRegistry) Register(contract, impl reflect.Type, provider Provider, opts ...RegisterOption) error {
	if contract == nil {
		return fmt.Errorf("%w: nil contract", errors.ErrInvalidRegistration)
	}
	if provider == nil {
		return fmt.Errorf("%w: contract %s has no provider", errors.ErrInvalidRegistration, contract)
	}
	if impl != nil && !impl.AssignableTo(contract) {
		return fmt.Errorf("%w: %s does not implement %s", errors.ErrInvalidRegistration, impl, contract)
	}

	reg := &Registration{
		Contract:       contract,
		Implementation: impl,
		Lifetime:       Singleton,
		provider:       provider,
	}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registrations[contract]; exists {
		return errors.NewDuplicateRegistrationError(contract)
	}
	reg.key = strconv.Itoa(len(r.order))
	r.registrations[contract] = reg
	r.order = append(r.order, contract)

	r.logger.Debug("contract registered",
		zap.Stringer("contract", contract),
		zap.Stringer("lifetime", reg.Lifetime))
	return nil
}

func (r *ServiceRegistry) lookup(contract reflect.Type) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[contract]
	return reg, ok
}

// Resolve returns an instance of contract
func (r *ServiceRegistry) Resolve(contract reflect.Type) (any, error) {
	return r.resolve(contract, nil)
}

func (r *ServiceRegistry) resolve(contract reflect.Type, chain []reflect.Type) (any, error) {
	reg, ok := r.lookup(contract)
	if !ok {
		r.metrics.ObserveResolution(typeLabel(contract), observability.OutcomeError)
		return nil, errors.NewUnregisteredContractError(contract)
	}
	for _, seen := range chain {
		if seen == contract {
			r.metrics.ObserveResolution(typeLabel(contract), observability.OutcomeError)
			return nil, errors.NewCircularDependencyError(append(chain, contract))
		}
	}

	if box := reg.instance.Load(); box != nil {
		r.metrics.ObserveResolution(typeLabel(contract), observability.OutcomeCached)
		return box.value, nil
	}

	if reg.Lifetime == Transient {
		v, err := r.construct(reg, chain)
		r.observeConstructed(contract, true, err)
		return v, err
	}

	// built is only set by the caller whose function singleflight runs and
	// whose instance was published; waiters report a cached resolution.
	built := false
	v, err, _ := r.group.Do(reg.key, func() (any, error) {
		if box := reg.instance.Load(); box != nil {
			return box.value, nil
		}
		v, err := r.construct(reg, chain)
		if err != nil {
			return nil, err
		}
		// A concurrent ReplaceInstance wins over the freshly built instance.
		if !reg.instance.CompareAndSwap(nil, &instanceBox{value: v}) {
			return reg.instance.Load().value, nil
		}
		built = true
		return v, nil
	})
	r.observeConstructed(contract, built, err)
	return v, err
}

func (r *ServiceRegistry) observeConstructed(contract reflect.Type, built bool, err error) {
	outcome := observability.OutcomeCached
	switch {
	case err != nil:
		outcome = observability.OutcomeError
	case built:
		outcome = observability.OutcomeConstruct
	}
	r.metrics.ObserveResolution(typeLabel(contract), outcome)
}

func (r *ServiceRegistry) construct(reg *Registration, chain []reflect.Type) (v any, err error) {
	next := make([]reflect.Type, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, reg.Contract)

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("provider panicked",
				zap.Stringer("contract", reg.Contract),
				zap.Any("panic", p))
			v, err = nil, fmt.Errorf("%w: %s: %v", errors.ErrProviderPanic, reg.Contract, p)
		}
	}()

	v, err = reg.provider(&chainResolver{registry: r, chain: next})
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", reg.Contract, err)
	}
	if v == nil || !reflect.TypeOf(v).AssignableTo(reg.Contract) {
		return nil, fmt.Errorf("%w: provider for %s returned %T", errors.ErrInvalidRegistration, reg.Contract, v)
	}

	r.metrics.ObserveConstruction(typeLabel(reg.Contract))
	r.logger.Debug("constructed instance",
		zap.Stringer("contract", reg.Contract),
		zap.String("implementation", fmt.Sprintf("%T", v)),
		zap.Stringer("lifetime", reg.Lifetime),
		zap.Int("depth", len(chain)))
	return v, nil
}

// ReplaceInstance overwrites the cached instance of a registered contract.
// Every later Resolve returns instance, for transient registrations too.
func (r *ServiceRegistry) ReplaceInstance(contract reflect.Type, instance any) error {
	reg, ok := r.lookup(contract)
	if !ok {
		return errors.NewUnregisteredContractError(contract)
	}
	if instance == nil || !reflect.TypeOf(instance).AssignableTo(contract) {
		return fmt.Errorf("%w: %T does not implement %s", errors.ErrInvalidRegistration, instance, contract)
	}

	reg.instance.Store(&instanceBox{value: instance})
	r.metrics.ObserveReplacement(typeLabel(contract))
	r.logger.Debug("instance replaced",
		zap.Stringer("contract", contract),
		zap.String("instance", fmt.Sprintf("%T", instance)))
	return nil
}

// IsRegistered reports whether contract has a registration
func (r *ServiceRegistry) IsRegistered(contract reflect.Type) bool {
	_, ok := r.lookup(contract)
	return ok
}

// HasLiveInstance reports whether contract currently has a cached instance
func (r *ServiceRegistry) HasLiveInstance(contract reflect.Type) bool {
	reg, ok := r.lookup(contract)
	return ok && reg.instance.Load() != nil
}

// Registration returns a copy of the public fields of contract's registration
func (r *ServiceRegistry) Registration(contract reflect.Type) (Registration, bool) {
	reg, ok := r.lookup(contract)
	if !ok {
		return Registration{}, false
	}
	return Registration{
		Contract:       reg.Contract,
		Implementation: reg.Implementation,
		Lifetime:       reg.Lifetime,
	}, true
}

// Contracts returns every registered contract sorted by name
func (r *ServiceRegistry) Contracts() []reflect.Type {
	r.mu.RLock()
	out := make([]reflect.Type, len(r.order))
	copy(out, r.order)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// chainResolver carries the contracts being constructed on one resolution path
type chainResolver struct {
	registry *ServiceRegistry
	chain    []reflect.Type
}

func (c *chainResolver) Resolve(contract reflect.Type) (any, error) {
	return c.registry.resolve(contract, c.chain)
}

func typeLabel(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

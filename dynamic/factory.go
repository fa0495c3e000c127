/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamic

import (
	"reflect"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/lifecycle"
	"github.com/suparena/entitybind/observability"
)

// Pairing is the metadata an emitted object is tracked under
type Pairing struct {
	Descriptor *Descriptor
	Meta       any
}

// Factory synthesizes descriptors and emits objects
type Factory struct {
	tracker  *lifecycle.Tracker
	logger   *zap.Logger
	metrics  *observability.Metrics
	validate *validator.Validate

	// descriptors is write-once per shape name: string -> *Descriptor
	descriptors sync.Map
	derivedMu   sync.Mutex
	derived     map[reflect.Type]*Shape
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		f.logger = observability.OrNop(logger)
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithValidator replaces the default validator instance
func WithValidator(v *validator.Validate) Option {
	return func(f *Factory) {
		if v != nil {
			f.validate = v
		}
	}
}

// NewFactory creates a Factory whose objects are tracked by tracker
func NewFactory(tracker *lifecycle.Tracker, opts ...Option) *Factory {
	f := &Factory{
		tracker:  tracker,
		logger:   zap.NewNop(),
		validate: validator.New(),
		derived:  make(map[reflect.Type]*Shape),
	}
	for _, opt := range opts {
		opt(f)
	}
	if tracker != nil {
		tracker.OnRelease(f.released)
	}
	return f
}

func (f *Factory) released(meta any) {
	p, ok := meta.(Pairing)
	if !ok || p.Descriptor == nil || p.Descriptor.factory != f {
		return
	}
	p.Descriptor.live.Add(-1)
}

// BuildOption customizes a single Build call
type BuildOption func(*buildOptions)

type buildOptions struct {
	meta any
}

// WithMetadata pairs the emitted object with caller-chosen metadata
func WithMetadata(meta any) BuildOption {
	return func(o *buildOptions) {
		o.meta = meta
	}
}

// Descriptor returns the cached descriptor for shape, synthesizing it on first request
func (f *Factory) Descriptor(shape *Shape) (*Descriptor, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if d, ok := f.descriptors.Load(shape.Name); ok {
		return f.checkCached(d.(*Descriptor), shape)
	}

	d := newDescriptor(f, shape)
	actual, loaded := f.descriptors.LoadOrStore(shape.Name, d)
	if loaded {
		return f.checkCached(actual.(*Descriptor), shape)
	}

	f.metrics.ObserveShape()
	f.logger.Debug("synthesized dynamic type",
		zap.String("shape", shape.Name),
		zap.Stringer("generated", d.generated),
		zap.Int("properties", len(d.properties)),
		zap.Int("commands", len(d.commands)))
	return d, nil
}

func (f *Factory) checkCached(d *Descriptor, shape *Shape) (*Descriptor, error) {
	if d.signature != shape.signature() {
		return nil, errors.NewUnsupportedShapeError(shape.Name, "conflicts with a different shape of the same name")
	}
	return d, nil
}

// Build emits a new object implementing shape
func (f *Factory) Build(shape *Shape, opts ...BuildOption) (*Object, error) {
	d, err := f.Descriptor(shape)
	if err != nil {
		return nil, err
	}

	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	obj := newObject(d, f.validate)
	if f.tracker != nil && f.tracker.Track(obj, Pairing{Descriptor: d, Meta: bo.meta}) {
		d.live.Add(1)
	} else {
		f.logger.Warn("dynamic object emitted without lifecycle tracking",
			zap.String("shape", d.name))
	}
	f.metrics.ObserveObject(d.name)
	return obj, nil
}

// BuildFor emits an object for a shape derived from struct type t
func (f *Factory) BuildFor(t reflect.Type, opts ...BuildOption) (*Object, error) {
	shape, err := f.ShapeOf(t)
	if err != nil {
		return nil, err
	}
	return f.Build(shape, opts...)
}

// ShapeOf derives and memoizes the shape of struct type t
func (f *Factory) ShapeOf(t reflect.Type) (*Shape, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	f.derivedMu.Lock()
	defer f.derivedMu.Unlock()
	if s, ok := f.derived[t]; ok {
		return s, nil
	}
	s, err := ShapeOf(t)
	if err != nil {
		return nil, err
	}
	f.derived[t] = s
	return s, nil
}

// New emits an object for the shape derived from T
func New[T any](f *Factory, opts ...BuildOption) (*Object, error) {
	return f.BuildFor(reflect.TypeFor[T](), opts...)
}

// Descriptors returns every synthesized descriptor sorted by name
func (f *Factory) Descriptors() []*Descriptor {
	var out []*Descriptor
	f.descriptors.Range(func(_, v any) bool {
		out = append(out, v.(*Descriptor))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// LiveInstances returns the live object count of the named shape
func (f *Factory) LiveInstances(name string) int {
	d, ok := f.descriptors.Load(name)
	if !ok {
		return 0
	}
	return d.(*Descriptor).LiveInstances()
}

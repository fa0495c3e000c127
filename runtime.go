/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitybind

import (
	"context"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/config"
	"github.com/suparena/entitybind/datastore/ddb"
	"github.com/suparena/entitybind/dynamic"
	"github.com/suparena/entitybind/lifecycle"
	"github.com/suparena/entitybind/observability"
	"github.com/suparena/entitybind/query"
	"github.com/suparena/entitybind/registry"
)

// Runtime owns every component of one binding context. Independent runtimes
// share nothing; there is no package-level instance.
type Runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *observability.Metrics
	tracker   *lifecycle.Tracker
	registry  *registry.ServiceRegistry
	factory   *dynamic.Factory
	catalog   *catalog.Catalog
	augmenter *query.Augmenter
	stores    *StoreSet
	ddb       ddb.Client
}

// Option configures a Runtime
type Option func(*runtimeOptions)

type runtimeOptions struct {
	logger      *zap.Logger
	registerer  prometheus.Registerer
	catalogOpts []catalog.Option
	ddbClient   ddb.Client
}

// WithLogger replaces the logger built from the configuration
func WithLogger(logger *zap.Logger) Option {
	return func(o *runtimeOptions) {
		o.logger = logger
	}
}

// WithRegisterer registers metrics with reg instead of a private registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *runtimeOptions) {
		o.registerer = reg
	}
}

// WithCatalogOptions passes extra options to entity discovery
func WithCatalogOptions(opts ...catalog.Option) Option {
	return func(o *runtimeOptions) {
		o.catalogOpts = append(o.catalogOpts, opts...)
	}
}

// WithDynamoDBClient supplies the client used by UseDynamoDB
func WithDynamoDBClient(client ddb.Client) Option {
	return func(o *runtimeOptions) {
		o.ddbClient = client
	}
}

// New builds a runtime from cfg. Its core components are registered in the
// runtime's service registry as singleton contracts.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = observability.NewLogger(cfg.Log.Level, cfg.Log.Development); err != nil {
			return nil, err
		}
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		reg := o.registerer
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		metrics = observability.NewMetrics(cfg.Metrics.Namespace, reg)
	}

	rt := &Runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		stores:  NewStoreSet(),
		ddb:     o.ddbClient,
	}

	rt.tracker = lifecycle.New(
		lifecycle.WithInterval(cfg.SweepInterval),
		lifecycle.WithLogger(logger.Named("lifecycle")),
		lifecycle.WithMetrics(metrics),
	)
	rt.registry = registry.New(
		registry.WithLogger(logger.Named("registry")),
		registry.WithMetrics(metrics),
	)
	rt.factory = dynamic.NewFactory(rt.tracker,
		dynamic.WithLogger(logger.Named("dynamic")),
		dynamic.WithMetrics(metrics),
	)
	rt.catalog = catalog.New(cfg.RootModule, append([]catalog.Option{
		catalog.WithArea(cfg.EntityArea),
		catalog.WithLogger(logger.Named("catalog")),
	}, o.catalogOpts...)...)
	rt.augmenter = query.NewAugmenter(rt.catalog,
		query.WithLogger(logger.Named("query")),
		query.WithMetrics(metrics),
	)

	if rt.ddb == nil && cfg.DynamoDB.Enabled() {
		client, err := ddb.NewDynamoDBClient(context.Background(), ddb.ClientConfig{
			Region:    cfg.DynamoDB.Region,
			Endpoint:  cfg.DynamoDB.Endpoint,
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
		})
		if err != nil {
			rt.tracker.Stop()
			return nil, err
		}
		rt.ddb = client
	}

	if err := rt.registerCore(); err != nil {
		rt.tracker.Stop()
		return nil, err
	}

	logger.Info("runtime started",
		zap.String("root", cfg.RootModule),
		zap.Int("entities", len(rt.catalog.Types())),
		zap.Bool("dynamodb", rt.ddb != nil))
	return rt, nil
}

func (rt *Runtime) registerCore() error {
	r := rt.registry
	for _, err := range []error{
		provide(r, rt.cfg),
		provide(r, rt.logger),
		provide(r, rt.tracker),
		provide(r, rt.factory),
		provide(r, rt.catalog),
		provide(r, rt.augmenter),
		provide(r, rt.stores),
		provide[registry.Resolver](r, r),
	} {
		if err != nil {
			return err
		}
	}
	if rt.ddb != nil {
		return provide(r, rt.ddb)
	}
	return nil
}

// provide registers an existing value as the singleton instance of C
func provide[C any](r *registry.ServiceRegistry, value C) error {
	return registry.Register(r, func(registry.Resolver) (C, error) {
		return value, nil
	})
}

// Close stops the lifecycle tracker and flushes the logger
func (rt *Runtime) Close() error {
	rt.tracker.Stop()
	_ = rt.logger.Sync()
	return nil
}

// Config returns the runtime configuration
func (rt *Runtime) Config() *config.Config { return rt.cfg }

// Logger returns the runtime logger
func (rt *Runtime) Logger() *zap.Logger { return rt.logger }

// Metrics returns the metric set, or nil when metrics are disabled
func (rt *Runtime) Metrics() *observability.Metrics { return rt.metrics }

// Tracker returns the lifecycle tracker
func (rt *Runtime) Tracker() *lifecycle.Tracker { return rt.tracker }

// Registry returns the service registry
func (rt *Runtime) Registry() *registry.ServiceRegistry { return rt.registry }

// Factory returns the dynamic type factory
func (rt *Runtime) Factory() *dynamic.Factory { return rt.factory }

// Catalog returns the discovered entity catalog
func (rt *Runtime) Catalog() *catalog.Catalog { return rt.catalog }

// Augmenter returns the query augmenter
func (rt *Runtime) Augmenter() *query.Augmenter { return rt.augmenter }

// Stores returns the per-type datastores
func (rt *Runtime) Stores() *StoreSet { return rt.stores }

// Resolve returns the instance registered for contract
func (rt *Runtime) Resolve(contract reflect.Type) (any, error) {
	return rt.registry.Resolve(contract)
}

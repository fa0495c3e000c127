/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/lifecycle"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ENTITYBIND_"

// Config holds the settings of a runtime
type Config struct {
	// RootModule is the module whose entity area is discovered
	RootModule string `yaml:"rootModule" validate:"required"`
	// EntityArea is the sub-package name holding entity types
	EntityArea string `yaml:"entityArea" validate:"required"`
	// SweepInterval is how often released objects are collected
	SweepInterval time.Duration `yaml:"sweepInterval" validate:"gt=0"`

	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// MetricsConfig configures prometheus collectors
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`
}

// DynamoDBConfig locates the DynamoDB backend. An empty Region disables it.
// An entity's table is TablePrefix followed by its catalog table name.
type DynamoDBConfig struct {
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint" validate:"omitempty,url"`
	TablePrefix string `yaml:"tablePrefix" validate:"omitempty,printascii,excludesall= "`
	AccessKey   string `yaml:"-"`
	SecretKey   string `yaml:"-"`
}

// Enabled reports whether a DynamoDB region is configured
func (c DynamoDBConfig) Enabled() bool {
	return c.Region != ""
}

// Default returns a configuration usable without any file
func Default() *Config {
	return &Config{
		EntityArea:    catalog.DefaultArea,
		SweepInterval: lifecycle.DefaultInterval,
		Log:           LogConfig{Level: "info"},
		Metrics:       MetricsConfig{Namespace: "entitybind"},
	}
}

// Load builds a configuration from the defaults, the YAML file at path (if
// path is not empty), a .env file and the environment, and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	str("ROOT_MODULE", &c.RootModule)
	str("ENTITY_AREA", &c.EntityArea)
	str("LOG_LEVEL", &c.Log.Level)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)
	str("DYNAMODB_REGION", &c.DynamoDB.Region)
	str("DYNAMODB_TABLE_PREFIX", &c.DynamoDB.TablePrefix)
	str("DYNAMODB_ENDPOINT", &c.DynamoDB.Endpoint)

	// Credentials keep the names the AWS tooling already uses.
	if v, ok := lookup("AWS_ACCESS_KEY"); ok {
		c.DynamoDB.AccessKey = v
	}
	if v, ok := lookup("AWS_SECRET_KEY"); ok {
		c.DynamoDB.SecretKey = v
	}

	if v, ok := lookup(EnvPrefix + "SWEEP_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"SWEEP_INTERVAL", err.Error())
		}
		c.SweepInterval = d
	}
	for name, dst := range map[string]*bool{
		"DEVELOPMENT":     &c.Log.Development,
		"METRICS_ENABLED": &c.Metrics.Enabled,
	} {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return errors.NewValidationError(EnvPrefix+name, err.Error())
			}
			*dst = b
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration's field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.NewValidationError(fe.Namespace(), fmt.Sprintf("failed %q rule", fe.Tag()))
		}
		return errors.NewValidationError("", err.Error())
	}
	return nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

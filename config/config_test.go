/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitybind/errors"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "entities", cfg.EntityArea)
	assert.Equal(t, 100*time.Millisecond, cfg.SweepInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.DynamoDB.Enabled())

	// The root module has no default.
	assert.True(t, errors.IsValidationError(cfg.Validate()))
	cfg.RootModule = "example.com/app"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(lookupFrom(map[string]string{
			"ENTITYBIND_ROOT_MODULE":           "example.com/app",
			"ENTITYBIND_ENTITY_AREA":           "models",
			"ENTITYBIND_SWEEP_INTERVAL":        "2s",
			"ENTITYBIND_LOG_LEVEL":             "debug",
			"ENTITYBIND_DEVELOPMENT":           "true",
			"ENTITYBIND_METRICS_ENABLED":       "1",
			"ENTITYBIND_DYNAMODB_REGION":       "ca-central-1",
			"ENTITYBIND_DYNAMODB_TABLE_PREFIX": "prod-",
			"AWS_ACCESS_KEY":                   "AKIA",
			"AWS_SECRET_KEY":                   "secret",
		}))
		require.NoError(t, err)

		assert.Equal(t, "example.com/app", cfg.RootModule)
		assert.Equal(t, "models", cfg.EntityArea)
		assert.Equal(t, 2*time.Second, cfg.SweepInterval)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
		assert.True(t, cfg.Metrics.Enabled)
		assert.True(t, cfg.DynamoDB.Enabled())
		assert.Equal(t, "prod-", cfg.DynamoDB.TablePrefix)
		assert.Equal(t, "AKIA", cfg.DynamoDB.AccessKey)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("BadDuration", func(t *testing.T) {
		err := Default().ApplyEnv(lookupFrom(map[string]string{"ENTITYBIND_SWEEP_INTERVAL": "often"}))
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("BadBool", func(t *testing.T) {
		err := Default().ApplyEnv(lookupFrom(map[string]string{"ENTITYBIND_DEVELOPMENT": "maybe"}))
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.RootModule = "example.com/app"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"LogLevel", func(c *Config) { c.Log.Level = "verbose" }, "Level"},
		{"SweepInterval", func(c *Config) { c.SweepInterval = 0 }, "SweepInterval"},
		{"TablePrefix", func(c *Config) { c.DynamoDB.TablePrefix = "has space" }, "TablePrefix"},
		{"Endpoint", func(c *Config) { c.DynamoDB.Endpoint = "not a url" }, "Endpoint"},
		{"MetricsNamespace", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Namespace = "" }, "Namespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.True(t, errors.IsValidationError(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "entitybind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rootModule: example.com/shop
sweepInterval: 250ms
log:
  level: warn
dynamodb:
  region: eu-west-1
  tablePrefix: shop-
  endpoint: http://localhost:8000
`), 0o600))

	t.Run("FileAndEnv", func(t *testing.T) {
		t.Setenv("ENTITYBIND_LOG_LEVEL", "error")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "example.com/shop", cfg.RootModule)
		assert.Equal(t, 250*time.Millisecond, cfg.SweepInterval)
		assert.Equal(t, "error", cfg.Log.Level)
		assert.Equal(t, "entities", cfg.EntityArea)
		assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
	})

	t.Run("DotEnv", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ENTITYBIND_ENTITY_AREA=models\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("ENTITYBIND_ENTITY_AREA") })

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "models", cfg.EntityArea)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("MalformedFile", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("rootModule: [unterminated"), 0o600))
		_, err := Load(bad)
		assert.Error(t, err)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		out, err := cfg.Marshal()
		require.NoError(t, err)
		assert.Contains(t, string(out), "rootModule: example.com/shop")
		assert.NotContains(t, string(out), "AKIA")
	})
}

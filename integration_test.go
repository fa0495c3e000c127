//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitybind_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitybind"
	"github.com/suparena/entitybind/config"
	"github.com/suparena/entitybind/datastore/testmodels"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/query"
)

// setupRuntime needs ENTITYBIND_DYNAMODB_REGION and a table named
// <ENTITYBIND_DYNAMODB_TABLE_PREFIX>warehouses keyed by the string attribute "Code".
func setupRuntime(t *testing.T) *entitybind.Runtime {
	t.Helper()
	_ = godotenv.Load()

	cfg := config.Default()
	cfg.RootModule = testmodels.RootModule
	require.NoError(t, cfg.ApplyEnv(os.LookupEnv))
	if !cfg.DynamoDB.Enabled() {
		t.Skip("ENTITYBIND_DYNAMODB_REGION not set, skipping integration test")
	}

	rt, err := entitybind.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	_, err = entitybind.UseDynamoDB[testmodels.Warehouse](rt)
	require.NoError(t, err)
	return rt
}

func TestIntegrationCrudService(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rt := setupRuntime(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc, err := entitybind.ServiceFor[testmodels.Warehouse](rt)
	require.NoError(t, err)

	region := fmt.Sprintf("it-%d", time.Now().UnixNano())
	codes := []string{region + "-a", region + "-b", region + "-c"}
	for i, code := range codes {
		require.NoError(t, svc.Save(ctx, testmodels.Warehouse{Code: code, Region: region, Capacity: (i + 1) * 10}))
		t.Cleanup(func() { _ = svc.Delete(context.Background(), code) })
	}

	got, err := svc.Get(ctx, codes[1])
	require.NoError(t, err)
	assert.Equal(t, 20, got.Capacity)

	listed, err := svc.List(ctx, query.New().Where(query.Eq("Region", region)).OrderByDesc("Capacity").Take(2))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, codes[2], listed[0].Code)

	t.Run("ViewModel", func(t *testing.T) {
		vm, err := entitybind.ViewModelFor(rt, got)
		require.NoError(t, err)
		assert.False(t, vm.CanExecute(entitybind.CommandSave, nil))

		require.NoError(t, vm.Set("Capacity", 99))
		require.NoError(t, vm.Save(ctx))

		reloaded, err := svc.Get(ctx, codes[1])
		require.NoError(t, err)
		assert.Equal(t, 99, reloaded.Capacity)

		require.NoError(t, vm.Delete(ctx))
		_, err = svc.Get(ctx, codes[1])
		assert.True(t, errors.IsNotFound(err))
	})
}

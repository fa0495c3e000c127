/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitybind/datastore"
	"github.com/suparena/entitybind/datastore/mock"
	"github.com/suparena/entitybind/datastore/testmodels"
	"github.com/suparena/entitybind/datastore/testmodels/entities"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/query"
	"github.com/suparena/entitybind/storagemodels"
)

type TestEntity struct {
	ID   string
	Name string
}

var _ datastore.DataStore[TestEntity] = (*mock.DataStore[TestEntity])(nil)

func TestMockDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		mockStore := mock.New[TestEntity]()

		entity := TestEntity{ID: "123", Name: "Test"}
		require.NoError(t, mockStore.Put(ctx, entity))

		retrieved, err := mockStore.GetOne(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, entity, *retrieved)

		require.NoError(t, mockStore.Delete(ctx, "123"))

		_, err = mockStore.GetOne(ctx, "123")
		assert.True(t, errors.IsNotFound(err))
		assert.True(t, errors.IsNotFound(mockStore.Delete(ctx, "123")))
	})

	t.Run("KeyFromCatalog", func(t *testing.T) {
		store := mock.New[testmodels.Warehouse]()
		require.NoError(t, store.Put(ctx, testmodels.Warehouse{Code: "AMS-1", Capacity: 10}))
		require.NoError(t, store.Put(ctx, testmodels.Warehouse{Code: "AMS-1", Capacity: 20}))

		got, err := store.GetOne(ctx, "AMS-1")
		require.NoError(t, err)
		assert.Equal(t, 20, got.Capacity)
		assert.Equal(t, 1, store.Count())
	})

	t.Run("KeylessEntityRejected", func(t *testing.T) {
		store := mock.New[entities.AuditEntry]()
		err := store.Put(ctx, entities.AuditEntry{Message: "x"})
		assert.True(t, errors.IsNoKeyProperty(err))
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		mockStore := mock.New[TestEntity]()

		putErr := errors.NewValidationError("name", "required")
		mockStore.WithPutError(putErr)
		assert.Same(t, putErr, mockStore.Put(ctx, TestEntity{ID: "123"}))

		deleteErr := errors.NewNotFoundError("TestEntity", "123")
		mockStore.WithDeleteError(deleteErr)
		assert.Same(t, deleteErr, mockStore.Delete(ctx, "123"))
	})

	t.Run("QueryAndStream", func(t *testing.T) {
		mockStore := mock.New[TestEntity]()
		for _, e := range []TestEntity{
			{ID: "1", Name: "One"},
			{ID: "2", Name: "Two"},
			{ID: "3", Name: "Three"},
		} {
			require.NoError(t, mockStore.Put(ctx, e))
		}

		q := query.New().Where(query.Ne("ID", "2")).OrderByDesc("Name").Include("Parent")
		results, err := mockStore.Query(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []TestEntity{{ID: "3", Name: "Three"}, {ID: "1", Name: "One"}}, results)
		assert.Equal(t, []string{"Parent"}, mockStore.LastIncludes())

		streamCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		var progress []storagemodels.StreamProgress
		var streamed []string
		for result := range mockStore.Stream(streamCtx, query.New(),
			storagemodels.WithPageSize(2),
			storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { progress = append(progress, p) }),
		) {
			require.NoError(t, result.Error)
			streamed = append(streamed, result.Item.ID)
		}
		assert.Equal(t, []string{"1", "2", "3"}, streamed)
		require.Len(t, progress, 2)
		assert.Equal(t, 2, progress[1].PagesProcessed)
		assert.Equal(t, int64(3), progress[1].ItemsProcessed)
		assert.Equal(t, 2, mockStore.QueryCount())
	})

	t.Run("StreamReportsQueryErrors", func(t *testing.T) {
		mockStore := mock.New[TestEntity]()
		require.NoError(t, mockStore.Put(ctx, TestEntity{ID: "1"}))

		var results []storagemodels.StreamResult[TestEntity]
		for r := range mockStore.Stream(ctx, query.New().Where(query.Eq("Missing", 1))) {
			results = append(results, r)
		}
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Error, errors.ErrUnknownProperty)
	})

	t.Run("CustomQueryFunction", func(t *testing.T) {
		mockStore := mock.New[TestEntity]()
		mockStore.WithQueryFunc(func(ctx context.Context, q query.Query) ([]TestEntity, error) {
			return []TestEntity{{ID: "1", Name: "Filtered"}}, nil
		})

		results, err := mockStore.Query(ctx, query.New())
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("HelperMethods", func(t *testing.T) {
		mockStore := mock.New[TestEntity]()
		mockStore.SetData(map[any]TestEntity{
			"1": {ID: "1", Name: "One"},
			"2": {ID: "2", Name: "Two"},
		})

		assert.Equal(t, 2, mockStore.Count())
		assert.Len(t, mockStore.GetData(), 2)

		mockStore.Clear()
		assert.Equal(t, 0, mockStore.Count())
	})

	t.Run("UUIDKeys", func(t *testing.T) {
		store := mock.New[entities.Customer]()
		id := uuid.New()
		require.NoError(t, store.Put(ctx, entities.Customer{ID: id, Name: "Ada"}))
		got, err := store.GetOne(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
	})
}

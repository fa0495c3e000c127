/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/datastore/testmodels"
	"github.com/suparena/entitybind/datastore/testmodels/entities"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/observability"
	"github.com/suparena/entitybind/query"
)

func TestQueryIsImmutable(t *testing.T) {
	base := query.New().Where(query.Eq("Status", "open"))
	ordered := base.OrderByDesc("Placed").Take(5)
	included := base.Include("Customer")

	assert.Len(t, base.Filters(), 1)
	assert.Empty(t, base.Orders())
	assert.Empty(t, base.Includes())
	assert.Equal(t, 0, base.Limit())

	assert.Equal(t, []query.Ordering{{Property: "Placed", Descending: true}}, ordered.Orders())
	assert.Equal(t, 5, ordered.Limit())
	assert.Empty(t, ordered.Includes())
	assert.Equal(t, []string{"Customer"}, included.Includes())

	assert.True(t, base.Equal(query.New().Where(query.Eq("Status", "open"))))
	assert.False(t, base.Equal(included))
	assert.Equal(t, 0, query.New().Take(-3).Limit())
	assert.Equal(t, `query where Status == "open" orderby Placed desc take 5`, ordered.String())
}

func TestEvaluate(t *testing.T) {
	placed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	customer := &entities.Customer{ID: uuid.New(), Name: "Ada", Tier: 2}
	order := entities.Order{
		ID:       uuid.New(),
		Customer: customer,
		Total:    99.5,
		Status:   "open",
		Placed:   placed,
		Tags:     []string{"priority"},
	}

	tests := []struct {
		name     string
		expr     query.Expr
		expected bool
	}{
		{"nil matches", nil, true},
		{"eq string", query.Eq("Status", "open"), true},
		{"ne string", query.Ne("Status", "open"), false},
		{"eq uuid", query.Eq("ID", order.ID), true},
		{"eq other uuid", query.Eq("ID", uuid.New()), false},
		{"float against int", query.Gt("Total", 50), true},
		{"le float", query.Le("Total", 99.5), true},
		{"lt float", query.Lt("Total", 99.5), false},
		{"time", query.Ge("Placed", placed.Add(-time.Hour)), true},
		{"time against strfmt", query.Lt("Placed", strfmt.DateTime(placed.Add(time.Hour))), true},
		{"nested path", query.Eq("Customer.Name", "Ada"), true},
		{"nested int", query.Ge("Customer.Tier", 3), false},
		{"slice deep equal", query.Eq("Tags", []string{"priority"}), true},
		{"nil pointer compare", query.Eq("Audit", nil), true},
		{"and", query.And(query.Eq("Status", "open"), query.Gt("Total", 10)), true},
		{"and short circuit", query.And(query.Eq("Status", "closed"), query.Eq("Nope", 1)), false},
		{"or", query.Or(query.Eq("Status", "closed"), query.Eq("Customer.Name", "Ada")), true},
		{"not", query.Not(query.Eq("Status", "open")), false},
		{"nil traversal", query.Eq("Audit.Revision", 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.Evaluate(tt.expr, &order)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("UnknownProperty", func(t *testing.T) {
		_, err := query.Evaluate(query.Eq("Missing", 1), order)
		assert.ErrorIs(t, err, errors.ErrUnknownProperty)
	})

	t.Run("UnboundParameter", func(t *testing.T) {
		_, err := query.Evaluate(query.Eq("ID", query.Param("key")), order)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("UnorderableValues", func(t *testing.T) {
		_, err := query.Evaluate(query.Lt("Status", 3), order)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestLambda(t *testing.T) {
	body := query.And(query.Eq("ID", query.Param("id")), query.Ne("Status", query.Param("status")))
	l := query.Lambda{Param: "id", Body: body}

	assert.Equal(t, []query.Param{"id", "status"}, query.Params(body))

	applied := l.Apply(42)
	assert.Equal(t, []query.Param{"status"}, query.Params(applied))
	assert.Equal(t, []query.Param{"id", "status"}, query.Params(body), "Apply leaves the body untouched")
	assert.Equal(t, `@id => (ID == @id && Status != @status)`, l.String())
}

func TestIdentityFilter(t *testing.T) {
	id := uuid.New()
	filter, err := query.IdentityFilterFor[entities.Customer]()
	require.NoError(t, err)
	assert.Equal(t, query.KeyParam, filter.Param)

	match, err := query.Evaluate(filter.Apply(id), entities.Customer{ID: id})
	require.NoError(t, err)
	assert.True(t, match)

	match, err = query.Evaluate(filter.Apply(id), entities.Customer{ID: uuid.New()})
	require.NoError(t, err)
	assert.False(t, match)

	t.Run("TaggedKey", func(t *testing.T) {
		filter, err := query.IdentityFilterFor[testmodels.Warehouse]()
		require.NoError(t, err)
		assert.Equal(t, query.Eq("Code", query.KeyParam), filter.Body)
	})

	t.Run("NoKey", func(t *testing.T) {
		_, err := query.IdentityFilterFor[entities.AuditEntry]()
		assert.True(t, errors.IsNoKeyProperty(err))
	})
}

func TestAutoInclude(t *testing.T) {
	cat := catalog.New(testmodels.RootModule)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	aug := query.NewAugmenter(cat, query.WithMetrics(metrics))
	orderType := reflect.TypeFor[entities.Order]()

	input := query.New().Where(query.Eq("Status", "open")).OrderBy("Placed").Take(10)
	got := aug.AutoInclude(orderType, input)

	assert.Equal(t, []string{"Customer", "Lines"}, got.Includes())
	assert.Empty(t, input.Includes(), "input query is not modified")
	assert.Equal(t, input.Filters(), got.Filters())
	assert.Equal(t, input.Orders(), got.Orders())
	assert.Equal(t, input.Limit(), got.Limit())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.IncludesApplied.WithLabelValues(orderType.String())))

	t.Run("ExistingIncludeNotRepeated", func(t *testing.T) {
		got := aug.AutoInclude(orderType, query.New().Include("Lines"))
		assert.Equal(t, []string{"Lines", "Customer"}, got.Includes())
	})

	t.Run("Idempotent", func(t *testing.T) {
		assert.True(t, got.Equal(aug.AutoInclude(orderType, got)))
	})

	t.Run("ReadOnlyNavigationSkipped", func(t *testing.T) {
		got := aug.AutoInclude(reflect.TypeFor[entities.Supplier](), query.New())
		assert.Equal(t, []string{"Catalog"}, got.Includes())
	})

	t.Run("NoNavigation", func(t *testing.T) {
		got := aug.AutoInclude(reflect.TypeFor[entities.AuditEntry](), input)
		assert.True(t, got.Equal(input))
	})

	t.Run("NotAnEntity", func(t *testing.T) {
		got := aug.AutoInclude(reflect.TypeFor[testmodels.RatingSystem](), input)
		assert.True(t, got.Equal(input))
	})

	t.Run("NilCatalog", func(t *testing.T) {
		noop := query.NewAugmenter(nil)
		assert.True(t, noop.AutoInclude(orderType, input).Equal(input))
		assert.Nil(t, noop.Catalog())
	})
}

func TestByKey(t *testing.T) {
	aug := query.NewAugmenter(catalog.New(testmodels.RootModule))
	id := uuid.New()

	q, err := aug.ByKey(reflect.TypeFor[entities.Order](), id)
	require.NoError(t, err)
	assert.Equal(t, []query.Expr{query.Eq("ID", id)}, q.Filters())
	assert.Equal(t, []string{"Customer", "Lines"}, q.Includes())
	assert.Equal(t, 1, q.Limit())

	_, err = aug.ByKey(reflect.TypeFor[entities.AuditEntry](), id)
	assert.True(t, errors.IsNoKeyProperty(err))
}

func TestToCondition(t *testing.T) {
	names := func(p string) string { return "attr_" + p }

	t.Run("Composite", func(t *testing.T) {
		e := query.And(
			query.Eq("Status", "open"),
			query.Or(query.Gt("Total", 10), query.Not(query.Le("Tier", 2))),
		)
		cond, err := query.ToCondition(e, names)
		require.NoError(t, err)

		built, err := expression.NewBuilder().WithFilter(cond).Build()
		require.NoError(t, err)
		require.NotNil(t, built.Filter())
		assert.Contains(t, *built.Filter(), "AND")
		assert.Contains(t, *built.Filter(), "OR")
		assert.Contains(t, *built.Filter(), "NOT")

		var attrs []string
		for _, v := range built.Names() {
			attrs = append(attrs, v)
		}
		assert.ElementsMatch(t, []string{"attr_Status", "attr_Total", "attr_Tier"}, attrs)
		assert.Len(t, built.Values(), 3)
	})

	t.Run("EveryComparison", func(t *testing.T) {
		for _, e := range []query.Expr{
			query.Eq("A", 1), query.Ne("A", 1), query.Lt("A", 1),
			query.Le("A", 1), query.Gt("A", 1), query.Ge("A", 1),
		} {
			cond, err := query.ToCondition(e, nil)
			require.NoError(t, err, e.String())
			_, err = expression.NewBuilder().WithFilter(cond).Build()
			assert.NoError(t, err, e.String())
		}
	})

	t.Run("DateTimeNormalized", func(t *testing.T) {
		cond, err := query.ToCondition(query.Gt("Placed", strfmt.DateTime(time.Unix(0, 0).UTC())), nil)
		require.NoError(t, err)
		built, err := expression.NewBuilder().WithFilter(cond).Build()
		require.NoError(t, err)
		for _, v := range built.Values() {
			assert.NotNil(t, v)
		}
	})

	t.Run("UnboundParameter", func(t *testing.T) {
		filter, err := query.IdentityFilterFor[entities.Customer]()
		require.NoError(t, err)
		_, err = query.ToCondition(filter.Body, nil)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestApply(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []entities.Order{
		{Status: "open", Total: 10, Placed: base.Add(2 * time.Hour), Notes: "b"},
		{Status: "closed", Total: 50, Placed: base, Notes: "a"},
		{Status: "open", Total: 30, Placed: base.Add(time.Hour), Notes: "c"},
		{Status: "open", Total: 30, Placed: base.Add(3 * time.Hour), Notes: "d"},
	}

	t.Run("FilterSortLimit", func(t *testing.T) {
		q := query.New().Where(query.Eq("Status", "open")).OrderByDesc("Total").OrderBy("Placed").Take(2)
		got, err := query.Apply(orders, q)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "c", got[0].Notes)
		assert.Equal(t, "d", got[1].Notes)
		assert.Equal(t, "b", orders[0].Notes, "input untouched")
	})

	t.Run("StableWithoutOrders", func(t *testing.T) {
		got, err := query.Apply(orders, query.New())
		require.NoError(t, err)
		assert.Equal(t, orders, got)
	})

	t.Run("NilSortsFirst", func(t *testing.T) {
		withCustomer := []entities.Order{
			{Notes: "x", Customer: &entities.Customer{Name: "Zed"}},
			{Notes: "y"},
		}
		got, err := query.Apply(withCustomer, query.New().OrderBy("Customer.Name"))
		require.NoError(t, err)
		assert.Equal(t, "y", got[0].Notes)
	})

	t.Run("UnorderableProperty", func(t *testing.T) {
		_, err := query.Apply(orders, query.New().OrderBy("ID"))
		assert.True(t, errors.IsValidationError(err))
	})
}

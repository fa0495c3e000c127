/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/entitybind/query"
)

// plan is how a query.Query is executed against the table
type plan struct {
	// useQuery selects a Query on the table key or an index; otherwise Scan
	useQuery  bool
	indexName *string
	expr      *expression.Expression
}

// pageFunc reads one page starting at startKey
type pageFunc func(ctx context.Context, startKey map[string]types.AttributeValue, limit int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error)

// plan picks a key condition from a top-level equality on the key property
// or on an index partition property. Every other filter becomes the
// DynamoDB filter expression.
func (d *DynamodbDataStore[T]) plan(q query.Query) (plan, error) {
	var operands []query.Expr
	for _, f := range q.Filters() {
		if l, ok := f.(query.Logical); ok && l.Op == query.OpAnd {
			operands = append(operands, l.Operands...)
			continue
		}
		operands = append(operands, f)
	}

	var (
		p       plan
		keyCond expression.KeyConditionBuilder
		rest    []query.Expr
	)
	for _, e := range operands {
		if !p.useQuery {
			if attr, index, ok := d.keyConditionFor(e); ok {
				c := e.(query.Comparison)
				keyCond = expression.Key(attr).Equal(expression.Value(c.Value))
				p.useQuery = true
				p.indexName = index
				continue
			}
		}
		rest = append(rest, e)
	}

	builder := expression.NewBuilder()
	used := false
	if p.useQuery {
		builder = builder.WithKeyCondition(keyCond)
		used = true
	}
	if filter := query.And(rest...); filter != nil {
		cond, err := query.ToCondition(filter, d.attributeName)
		if err != nil {
			return plan{}, err
		}
		builder = builder.WithFilter(cond)
		used = true
	}
	if used {
		expr, err := builder.Build()
		if err != nil {
			return plan{}, fmt.Errorf("failed to build expression: %w", err)
		}
		p.expr = &expr
	}
	return p, nil
}

func (d *DynamodbDataStore[T]) keyConditionFor(e query.Expr) (string, *string, bool) {
	c, ok := e.(query.Comparison)
	if !ok || c.Op != query.OpEq || c.Value == nil {
		return "", nil, false
	}
	if _, isParam := c.Value.(query.Param); isParam {
		return "", nil, false
	}
	if c.Property == d.descriptor.KeyProperty {
		return d.attributeName(c.Property), nil, true
	}
	for _, idx := range d.indexes {
		if c.Property == idx.PartitionProperty {
			return d.attributeName(c.Property), aws.String(idx.IndexName), true
		}
	}
	return "", nil, false
}

func (d *DynamodbDataStore[T]) pager(p plan) pageFunc {
	if p.useQuery {
		return func(ctx context.Context, startKey map[string]types.AttributeValue, limit int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
			input := &sdk.QueryInput{
				TableName:                 &d.tableName,
				IndexName:                 p.indexName,
				KeyConditionExpression:    p.expr.KeyCondition(),
				FilterExpression:          p.expr.Filter(),
				ExpressionAttributeNames:  p.expr.Names(),
				ExpressionAttributeValues: p.expr.Values(),
				ExclusiveStartKey:         startKey,
			}
			if limit > 0 {
				input.Limit = aws.Int32(limit)
			}
			out, err := d.client.Query(ctx, input)
			if err != nil {
				return nil, nil, err
			}
			return out.Items, out.LastEvaluatedKey, nil
		}
	}

	return func(ctx context.Context, startKey map[string]types.AttributeValue, limit int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
		input := &sdk.ScanInput{
			TableName:         &d.tableName,
			ExclusiveStartKey: startKey,
		}
		if p.expr != nil {
			input.FilterExpression = p.expr.Filter()
			input.ExpressionAttributeNames = p.expr.Names()
			input.ExpressionAttributeValues = p.expr.Values()
		}
		if limit > 0 {
			input.Limit = aws.Int32(limit)
		}
		out, err := d.client.Scan(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return out.Items, out.LastEvaluatedKey, nil
	}
}

// Query reads every page matching q, then applies ordering and the limit.
// Without ordering, paging stops as soon as the limit is reached. Include
// paths are not persisted in this table layout and are only logged.
func (d *DynamodbDataStore[T]) Query(ctx context.Context, q query.Query) ([]T, error) {
	p, err := d.plan(q)
	if err != nil {
		return nil, err
	}
	if includes := q.Includes(); len(includes) > 0 {
		d.logger.Debug("include paths are resolved by the caller", zap.Strings("includes", includes))
	}

	fetch := d.pager(p)
	earlyStop := len(q.Orders()) == 0 && q.Limit() > 0

	var results []T
	var startKey map[string]types.AttributeValue
	for {
		items, lastKey, err := fetch(ctx, startKey, 0)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}

		var page []T
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		results = append(results, page...)

		if earlyStop && len(results) >= q.Limit() {
			break
		}
		if len(lastKey) == 0 {
			break
		}
		startKey = lastKey
	}

	d.logger.Debug("query executed",
		zap.Bool("keyCondition", p.useQuery),
		zap.Int("items", len(results)))

	if err := query.Sort(results, q.Orders()); err != nil {
		return nil, err
	}
	if q.Limit() > 0 && len(results) > q.Limit() {
		results = results[:q.Limit()]
	}
	return results, nil
}

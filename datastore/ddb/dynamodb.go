/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/errors"
	"github.com/suparena/entitybind/observability"
)

// DynamodbDataStore implements datastore.DataStore[T] with one DynamoDB table
// per entity type. The table's partition key is T's key property.
type DynamodbDataStore[T any] struct {
	client     Client
	tableName  string
	descriptor *catalog.EntityDescriptor
	attributes map[string]string // property name -> attribute name
	indexes    []IndexConfig
	logger     *zap.Logger
}

// Option configures a DynamodbDataStore
type Option func(*storeOptions)

type storeOptions struct {
	descriptor *catalog.EntityDescriptor
	indexes    []IndexConfig
	logger     *zap.Logger
}

// WithDescriptor reuses a descriptor cached by a catalog
func WithDescriptor(d *catalog.EntityDescriptor) Option {
	return func(o *storeOptions) {
		o.descriptor = d
	}
}

// WithIndex declares a secondary index queries may read
func WithIndex(cfg IndexConfig) Option {
	return func(o *storeOptions) {
		o.indexes = append(o.indexes, cfg)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		o.logger = observability.OrNop(logger)
	}
}

// NewDynamodbDataStore constructs a new DynamodbDataStore for type T.
// T must have a key property.
func NewDynamodbDataStore[T any](client Client, tableName string, opts ...Option) (*DynamodbDataStore[T], error) {
	if client == nil {
		return nil, errors.NewValidationError("client", "DynamoDB client is required")
	}
	if tableName == "" {
		return nil, errors.NewValidationError("tableName", "table name is required")
	}

	o := storeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	t := reflect.TypeFor[T]()
	d := o.descriptor
	if d == nil {
		var err error
		if d, err = catalog.Describe(t); err != nil {
			return nil, err
		}
	}
	if d.Type != t {
		return nil, fmt.Errorf("descriptor for %s used with store of %s", d.Type, t)
	}
	if !d.HasKey() {
		return nil, errors.NewNoKeyPropertyError(t)
	}

	return &DynamodbDataStore[T]{
		client:     client,
		tableName:  tableName,
		descriptor: d,
		attributes: attributeNames(t),
		indexes:    o.indexes,
		logger:     o.logger.With(zap.String("table", tableName)),
	}, nil
}

// TableName returns the backing table
func (d *DynamodbDataStore[T]) TableName() string {
	return d.tableName
}

// KeyAttribute returns the attribute name of the partition key
func (d *DynamodbDataStore[T]) KeyAttribute() string {
	return d.attributeName(d.descriptor.KeyProperty)
}

// attributeNames maps exported fields to their dynamodbav names
func attributeNames(t reflect.Type) map[string]string {
	out := make(map[string]string)
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("dynamodbav"); ok {
			if n, _, _ := strings.Cut(tag, ","); n == "-" {
				continue
			} else if n != "" {
				name = n
			}
		}
		out[f.Name] = name
	}
	return out
}

// attributeName maps a property path; only its first segment is renamed
func (d *DynamodbDataStore[T]) attributeName(path string) string {
	head, rest, nested := strings.Cut(path, ".")
	if name, ok := d.attributes[head]; ok {
		head = name
	}
	if nested {
		return head + "." + rest
	}
	return head
}

func (d *DynamodbDataStore[T]) keyMap(key any) (map[string]types.AttributeValue, error) {
	if key == nil {
		return nil, errors.NewValidationError(d.descriptor.KeyProperty, "key is required")
	}
	av, err := attributevalue.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}
	return map[string]types.AttributeValue{d.KeyAttribute(): av}, nil
}

// GetOne retrieves a single item by the value of its key property
func (d *DynamodbDataStore[T]) GetOne(ctx context.Context, key any) (*T, error) {
	keyMap, err := d.keyMap(key)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       keyMap,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, errors.NewNotFoundError(d.descriptor.Type.String(), fmt.Sprint(key))
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// Put stores the given entity, replacing any item with the same key
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	if _, err := d.descriptor.KeyValue(entity); err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Delete removes the item with the given key; a missing item is ErrNotFound
func (d *DynamodbDataStore[T]) Delete(ctx context.Context, key any) error {
	keyMap, err := d.keyMap(key)
	if err != nil {
		return err
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(d.KeyAttribute()))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build delete condition: %w", err)
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                 &d.tableName,
		Key:                       keyMap,
		ConditionExpression:       cond.Condition(),
		ExpressionAttributeNames:  cond.Names(),
		ExpressionAttributeValues: cond.Values(),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewNotFoundError(d.descriptor.Type.String(), fmt.Sprint(key))
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

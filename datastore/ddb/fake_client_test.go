/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strconv"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient keeps items by a string key attribute and serves Query and Scan
// from canned pages. LastEvaluatedKey carries the next page number.
type fakeClient struct {
	mu       sync.Mutex
	keyAttr  string
	items    map[string]map[string]types.AttributeValue
	pages    [][]map[string]types.AttributeValue
	failures []error

	queries []*sdk.QueryInput
	scans   []*sdk.ScanInput
	deletes []*sdk.DeleteItemInput
}

func newFakeClient(keyAttr string) *fakeClient {
	return &fakeClient{
		keyAttr: keyAttr,
		items:   make(map[string]map[string]types.AttributeValue),
	}
}

func (c *fakeClient) keyOf(m map[string]types.AttributeValue) string {
	if s, ok := m[c.keyAttr].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (c *fakeClient) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &sdk.GetItemOutput{Item: c.items[c.keyOf(in.Key)]}, nil
}

func (c *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[c.keyOf(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (c *fakeClient) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, in)
	key := c.keyOf(in.Key)
	if _, ok := c.items[key]; !ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(c.items, key)
	return &sdk.DeleteItemOutput{}, nil
}

func (c *fakeClient) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, in)
	items, next, err := c.page(in.ExclusiveStartKey)
	if err != nil {
		return nil, err
	}
	return &sdk.QueryOutput{Items: items, LastEvaluatedKey: next}, nil
}

func (c *fakeClient) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scans = append(c.scans, in)
	items, next, err := c.page(in.ExclusiveStartKey)
	if err != nil {
		return nil, err
	}
	return &sdk.ScanOutput{Items: items, LastEvaluatedKey: next}, nil
}

// page serves the page named by startKey; callers hold mu
func (c *fakeClient) page(startKey map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	if len(c.failures) > 0 {
		err := c.failures[0]
		c.failures = c.failures[1:]
		return nil, nil, err
	}
	n := 0
	if v, ok := startKey["page"].(*types.AttributeValueMemberN); ok {
		n, _ = strconv.Atoi(v.Value)
	}
	if n >= len(c.pages) {
		return nil, nil, nil
	}
	var next map[string]types.AttributeValue
	if n+1 < len(c.pages) {
		next = map[string]types.AttributeValue{"page": &types.AttributeValueMemberN{Value: strconv.Itoa(n + 1)}}
	}
	return c.pages[n], next, nil
}

func (c *fakeClient) calls() (queries, scans int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries), len(c.scans)
}

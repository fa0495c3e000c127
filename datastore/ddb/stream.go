/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/entitybind/query"
	"github.com/suparena/entitybind/storagemodels"
)

// Stream reads the items matching q page by page. Transient page failures are
// retried with a linear backoff. An ordered query is read fully first and
// emitted as a single page, since DynamoDB cannot order a scan.
func (d *DynamodbDataStore[T]) Stream(ctx context.Context, q query.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)

	if len(q.Orders()) > 0 {
		go d.streamOrdered(ctx, q, options, resultCh)
		return resultCh
	}

	p, err := d.plan(q)
	if err != nil {
		resultCh <- storagemodels.StreamResult[T]{Error: err, Meta: storagemodels.StreamMeta{Timestamp: time.Now()}}
		close(resultCh)
		return resultCh
	}

	go d.streamWorker(ctx, d.pager(p), q.Limit(), options, resultCh)
	return resultCh
}

// streamWorker emits every item read through fetch, stopping after limit items when limit is positive
func (d *DynamodbDataStore[T]) streamWorker(
	ctx context.Context,
	fetch pageFunc,
	limit int,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	progress := storagemodels.StreamProgress{StartTime: time.Now()}
	report := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		progress.LastKey = lastKey
		progress.Rate(time.Now())
		options.ProgressHandler(progress)
	}
	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[T]{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      progress.ItemsProcessed,
				PageNumber: progress.PagesProcessed,
				Timestamp:  time.Now(),
			},
		}:
		}
	}

	var startKey map[string]types.AttributeValue
	for {
		if ctx.Err() != nil {
			return
		}

		items, lastKey, err := d.fetchWithRetry(ctx, fetch, startKey, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if options.ErrorHandler == nil || !options.ErrorHandler(err) {
				fail(fmt.Errorf("stream page failed: %w", err))
				return
			}
			// The next start key is unknown once a page is lost, so the stream ends quietly.
			progress.Errors = append(progress.Errors, err)
			d.logger.Warn("stream ended at failed page", zap.Error(err), zap.Int("page", progress.PagesProcessed+1))
			report(nil)
			return
		}

		progress.PagesProcessed++
		for _, item := range items {
			result := d.processItem(item, progress.ItemsProcessed, progress.PagesProcessed)
			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}
			progress.ItemsProcessed++
			if result.Error != nil {
				progress.Errors = append(progress.Errors, result.Error)
			}
			if limit > 0 && progress.ItemsProcessed >= int64(limit) {
				report(nil)
				return
			}
		}

		if len(lastKey) == 0 {
			break
		}
		report(lastKey)
		startKey = lastKey
	}

	report(nil)
}

func (d *DynamodbDataStore[T]) streamOrdered(
	ctx context.Context,
	q query.Query,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	start := time.Now()
	items, err := d.Query(ctx, q)
	if err != nil {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[T]{Error: err, Meta: storagemodels.StreamMeta{Timestamp: time.Now()}}:
		}
		return
	}

	for i, item := range items {
		select {
		case <-ctx.Done():
			return
		case resultCh <- storagemodels.StreamResult[T]{
			Item: item,
			Meta: storagemodels.StreamMeta{Index: int64(i), PageNumber: 1, Timestamp: time.Now()},
		}:
		}
	}

	if options.ProgressHandler != nil {
		progress := storagemodels.StreamProgress{
			ItemsProcessed: int64(len(items)),
			PagesProcessed: 1,
			StartTime:      start,
		}
		progress.Rate(time.Now())
		options.ProgressHandler(progress)
	}
}

// fetchWithRetry reads one page, retrying retryable failures
func (d *DynamodbDataStore[T]) fetchWithRetry(
	ctx context.Context,
	fetch pageFunc,
	startKey map[string]types.AttributeValue,
	options storagemodels.StreamOptions,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		items, lastKey, err := fetch(ctx, startKey, options.PageSize)
		if err == nil {
			return items, lastKey, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, nil, err
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			d.logger.Debug("retrying page read", zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, nil, fmt.Errorf("page read failed after %d retries: %w", options.MaxRetries, lastErr)
}

// processItem converts a DynamoDB item to a typed result
func (d *DynamodbDataStore[T]) processItem(item map[string]types.AttributeValue, index int64, pageNumber int) storagemodels.StreamResult[T] {
	result := storagemodels.StreamResult[T]{
		Raw: maps.Clone(item),
		Meta: storagemodels.StreamMeta{
			Index:      index,
			PageNumber: pageNumber,
			Timestamp:  time.Now(),
		},
	}
	if err := attributevalue.UnmarshalMap(item, &result.Item); err != nil {
		result.Error = fmt.Errorf("failed to unmarshal item to %s: %w", d.descriptor.Type, err)
	}
	return result
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

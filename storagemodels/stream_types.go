/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StreamResult represents a single item in a stream with metadata
type StreamResult[T any] struct {
	Item  T                               // The unmarshaled entity
	Raw   map[string]types.AttributeValue // Raw DynamoDB attributes; nil for in-memory stores
	Error error                           // Item-specific or terminal error
	Meta  StreamMeta                      // Metadata about this item
}

// StreamMeta contains metadata about a streamed item
type StreamMeta struct {
	Index      int64     // Item index in stream (0-based)
	PageNumber int       // Page number (1-based)
	Timestamp  time.Time // When item was retrieved
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	MaxRetries      int                  // Retry attempts for transient errors (default: 3)
	RetryBackoff    time.Duration        // Linear backoff step between retries (default: 1s)
	PageSize        int32                // Items per page (default: 100)
	ProgressHandler func(StreamProgress) // Optional progress callback, called after each page
	ErrorHandler    func(error) bool     // Return true to end quietly at a failed page, false to emit the error
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64                           // Total items emitted
	PagesProcessed int                             // Total pages read
	LastKey        map[string]types.AttributeValue // Last evaluated key; nil once the stream is exhausted
	Errors         []error                         // Accumulated non-fatal errors
	StartTime      time.Time                       // When streaming started
	CurrentRate    float64                         // Items per second
}

// Rate recomputes CurrentRate from the elapsed time
func (p *StreamProgress) Rate(now time.Time) {
	if elapsed := now.Sub(p.StartTime).Seconds(); elapsed > 0 {
		p.CurrentRate = float64(p.ItemsProcessed) / elapsed
	}
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:   100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		PageSize:     100,
	}
}

// ApplyStreamOptions returns the defaults overridden by opts. Non-positive
// buffer and page sizes fall back to the defaults.
func ApplyStreamOptions(opts ...StreamOption) StreamOptions {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	defaults := DefaultStreamOptions()
	if options.BufferSize <= 0 {
		options.BufferSize = defaults.BufferSize
	}
	if options.PageSize <= 0 {
		options.PageSize = defaults.PageSize
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}
	return options
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) StreamOption {
	return func(opts *StreamOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) StreamOption {
	return func(opts *StreamOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithPageSize sets the page size
func WithPageSize(size int32) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}

/*
Package storagemodels defines the streaming types shared by every datastore
implementation.

StreamResult:
One streamed entity with its metadata:

	type StreamResult[T any] struct {
	    Item  T                               // The typed entity
	    Raw   map[string]types.AttributeValue // Raw DynamoDB attributes
	    Error error                           // Item-specific error, if any
	    Meta  StreamMeta                      // Metadata about this item
	}

StreamOptions:
Configuration for streaming behavior:

	results := store.Stream(ctx, q,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	    storagemodels.WithProgressHandler(progressFunc),
	)

Queries themselves are described by query.Query, so the same stream options
work against DynamoDB and the in-memory mock.
*/
package storagemodels

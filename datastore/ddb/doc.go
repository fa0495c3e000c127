/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

Each entity type lives in its own table whose partition key is the entity's
key property. Items are marshalled with the attributevalue package, so
dynamodbav tags rename or hide fields; navigation properties are normally
tagged dynamodbav:"-".

Query Planning:
A query.Query is translated into a single DynamoDB read. A top-level equality
on the key property, or on the partition property of an index declared with
WithIndex, becomes the key condition of a Query; every other filter becomes
the filter expression. Without such an equality the table is scanned:

	store, _ := ddb.NewDynamodbDataStore[Order](client, "orders",
	    ddb.WithIndex(ddb.IndexConfig{IndexName: "StatusIndex", PartitionProperty: "Status"}),
	)
	open, _ := store.Query(ctx, query.New().
	    Where(query.And(query.Eq("Status", "open"), query.Gt("Total", 100))).
	    OrderByDesc("Placed").
	    Take(20))

Ordering and limits are applied after the read. Include paths are not
persisted in this layout; the caller resolves them.

Streaming:
Stream pages the same read with retry logic and progress callbacks:

	results := store.Stream(ctx, query.New(),
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        logger.Info("streaming", zap.Int64("items", p.ItemsProcessed))
	    }),
	)

Integration tests run against a real table with -tags integration.
*/
package ddb

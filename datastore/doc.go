/*
Package datastore defines the persistence boundary entitybind services talk to.

The main interface is DataStore[T], which provides generic CRUD and query
operations for any entity type T:

	type DataStore[T any] interface {
	    GetOne(ctx context.Context, key any) (*T, error)
	    Put(ctx context.Context, entity T) error
	    Delete(ctx context.Context, key any) error
	    Query(ctx context.Context, q query.Query) ([]T, error)
	    Stream(ctx context.Context, q query.Query, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
	}

Keys are values of the entity's key property as found by the catalog
(an entity:"key" tag, or a field named ID). Queries carry the filters,
ordering, limit and eager-load paths built by the query package.

Implementations:
  - ddb: DynamoDB implementation, one table per entity type
  - mock: In-memory implementation for testing

The testmodels package holds a small sample domain used by the tests.
*/
package datastore

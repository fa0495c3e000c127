/*
Package query models entity queries as immutable values and rewrites them for
a catalog.

Filters are small expression trees. They are evaluated in-process by the mock
datastore and translated into DynamoDB condition expressions by the ddb one:

	q := query.New().
		Where(query.Eq("Status", "open")).
		OrderByDesc("Placed").
		Take(20)

An Augmenter adds eager-load paths for every navigable property of an entity
type and builds identity filters from its key property:

	aug := query.NewAugmenter(cat)
	q, err := aug.ByKey(reflect.TypeFor[entities.Order](), id)
*/
package query

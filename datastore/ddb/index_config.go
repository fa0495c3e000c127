/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

// IndexConfig describes a global secondary index whose partition key is an
// entity property. Queries with an equality filter on that property read the
// index instead of scanning the table.
type IndexConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "StatusIndex")
	IndexName string
	// PartitionProperty is the entity property stored as the index partition key
	PartitionProperty string
}

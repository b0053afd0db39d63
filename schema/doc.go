// Package schema defines table schemas and validates incoming batches
// against them.
//
// A Schema is an ordered, immutable list of named, typed columns. The
// supported types are Int32, Utf8 and fixed-size Float32 vectors:
//
//	sch, err := schema.NewBuilder().
//		AddInt32("id", false).
//		AddUtf8("name", true).
//		AddVector("vector", 128, true).
//		Build()
//
// The first vector column of a schema is the one the vector index is built
// over. Additional vector columns are stored and returned but not searchable.
package schema

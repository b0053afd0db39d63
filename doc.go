// Package vectable provides an embedded, columnar table store with vector
// search for Go.
//
// A database is a set of named tables under one URI. Every table has a
// fixed schema of int32, utf8 and fixed-length float32 vector columns. Rows
// are appended in immutable fragments, removed with filter expressions, and
// searched by vector similarity, optionally through an IVF index.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := vectable.Connect(ctx, "./data")
//
//	s := schema.MustDefine(
//	    schema.Column{Name: "id", Type: schema.Int32()},
//	    schema.Column{Name: "name", Type: schema.Utf8()},
//	    schema.Column{Name: "vector", Type: schema.Vector(128)},
//	)
//	b := batch.NewBuilder(s)
//	_ = b.Append(1, "alice", vec1)
//	_ = b.Append(2, "bob", vec2)
//	rows, _ := b.Build()
//
//	tbl, _ := db.CreateTable(ctx, "people", batch.Of(rows))
//
// Query the nearest rows:
//
//	results, _ := tbl.Query().NearestTo(query).Limit(10).Where("id > 1").Execute(ctx)
//	for _, r := range results {
//	    fmt.Println(r.RowID, r.Distance, r.Row)
//	}
//
// Delete with a filter:
//
//	n, _ := tbl.Delete(ctx, "name = 'bob'")
//
// # Storage
//
// Connect understands local paths, memory:// and s3:// URIs. Other
// backends, such as MinIO, are plugged in with WithBlobStore:
//
//	store := minio.NewStore(client, "bucket", "vectors/")
//	db, _ := vectable.Connect(ctx, "minio://bucket/vectors", vectable.WithBlobStore(store))
//
// Each commit writes new immutable blobs and then swaps the table's CURRENT
// pointer, so readers see either the old or the new state and a crash never
// leaves a partial commit visible.
//
// # Indexing
//
// Queries are exact until CreateIndex trains an IVF index. Rows added after
// the build are still found; they are scanned exactly until the next build:
//
//	stats, _ := tbl.CreateIndex(ctx, vectable.WithIndexMetric(distance.MetricCosine))
//
// # Filters
//
// Delete, Scan, CountRows and Where take SQL-like expressions over int32
// and utf8 columns: comparisons (=, !=, <>, <, <=, >, >=), IS [NOT] NULL,
// AND, OR, NOT and parentheses. Comparisons with NULL are false.
package vectable

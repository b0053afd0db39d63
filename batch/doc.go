// Package batch provides in-memory columnar row batches and the Source
// capability accepted by table ingestion.
//
// A Batch holds one column per schema field. Any type that can report a
// schema and enumerate batches implements Source, so callers may stream
// data from memory, from Apache Arrow records (FromArrow) or from their own
// producers:
//
//	b := batch.NewBuilder(sch)
//	_ = b.Append(int32(1), "Alice")
//	_ = b.Append(int32(2), "Bob")
//	rec, _ := b.Build()
//	tbl.Add(ctx, batch.Of(rec))
package batch

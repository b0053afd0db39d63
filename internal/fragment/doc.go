// Package fragment implements the per-table fragment store.
//
// A table is a sequence of immutable fragments. Every fragment holds a
// contiguous range of row ids and is written once as a codec blob. Deleted
// rows are tracked in one roaring bitmap per fragment, persisted as a
// versioned deletion file and swapped copy-on-write.
//
// # Layout
//
//	CURRENT                          pointer to the live manifest
//	MANIFEST-000007.bin              committed table state
//	data/frag-000001.vtf             fragment data
//	deletions/frag-000001-v000005.del
//	index/ivf-000006.idx             vector index
//
// # Commit protocol
//
// Writers are serialized per store. A mutation writes its new blobs, then
// commits a manifest (CURRENT is swapped last), then publishes a new
// in-memory Snapshot. Readers load the current Snapshot with a single
// atomic read and never block on writers. The context is honoured up to the
// commit point; once the manifest write starts the mutation completes.
package fragment

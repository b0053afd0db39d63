// Package blobstore provides the storage abstraction under every vectable
// table.
//
// A BlobStore holds immutable, named blobs: fragments, manifests, deletion
// files and index files. The only blob that is ever overwritten is a table's
// CURRENT pointer, so Put must be atomic: readers see the old or the new
// content, never a mix. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic rename writes, mmap reads
//   - MemoryStore: in-process map for tests and memory:// databases
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with DynamoDB commits
//   - minio.Store: MinIO and other S3-compatible services
//
// Wrappers:
//
//   - Prefixed scopes a store to a sub-namespace (one per table)
//   - CachingStore adds a block cache in front of remote stores
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Stores that can drop a whole namespace at once may also implement Remover.
package blobstore

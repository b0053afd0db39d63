// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("vectors/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db, err := vectable.Connect(ctx, "s3://my-bucket/vectors")
//
// S3 has no atomic rename, so a plain Store relies on the single-writer
// assumption for manifest pointers. Wrap it in a DDBCommitStore to let
// several processes commit to the same database safely.
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large fragments
//   - CRC32C checksums on upload
//   - Batched prefix deletion
package s3

// Package minio stores vectable databases in MinIO or any other
// S3-compatible object store reachable through the MinIO client.
//
// Connect cannot build a MinIO client from a URI alone, so the store is
// created by the caller and passed in:
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "vectors/")
//	db, err := vectable.Connect(ctx, "minio://my-bucket/vectors", vectable.WithBlobStore(store))
//
// Dropping a table or database removes its keys with one bulk
// RemoveObjects call per listing.
package minio

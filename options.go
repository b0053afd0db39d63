package vectable

import (
	"log/slog"

	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/codec"
)

// Compression selects how column blocks of new fragments are compressed.
type Compression = codec.Compression

const (
	CompressionNone = codec.CompressionNone
	CompressionLZ4  = codec.CompressionLZ4
	CompressionZSTD = codec.CompressionZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return codec.ParseCompression(s)
}

type options struct {
	blobs            blobstore.BlobStore
	ddbTable         string
	region           string
	compression      Compression
	memoryLimit      int64
	ioLimit          int64
	maxBuilds        int64
	blockCacheBytes  int64
	loadConcurrency  int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Connect.
//
// Options only take effect on the first Connect of a URI within the
// process; later connects share the database opened by the first.
type Option func(*options)

// WithBlobStore stores the database in the given store instead of the one
// derived from the URI. The URI still identifies the database within the
// process. Use it for MinIO and other S3-compatible backends:
//
//	store := minio.NewStore(client, "bucket", "vectors/")
//	db, _ := vectable.Connect(ctx, "minio://bucket/vectors", vectable.WithBlobStore(store))
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobs = store
	}
}

// WithDynamoDBCommit routes the CURRENT pointers of an s3:// database
// through the given DynamoDB table, so concurrent writers from several
// processes cannot overwrite each other's commits.
func WithDynamoDBCommit(tableName string) Option {
	return func(o *options) {
		o.ddbTable = tableName
	}
}

// WithRegion sets the AWS region for s3:// databases. By default the
// region comes from the AWS configuration chain.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithCompression sets the compression of new fragments. Default: LZ4.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMemoryLimit bounds the memory used for decoded fragments and cached
// blocks. Fragments beyond the limit are decoded per query and not kept.
// 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles blob writes to the given bytes per second.
// 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMaxConcurrentBuilds bounds how many index builds run at once across
// all tables of the database. Default: 1.
func WithMaxConcurrentBuilds(n int) Option {
	return func(o *options) {
		o.maxBuilds = int64(n)
	}
}

// WithBlockCache caches reads of remote blobs in memory, up to bytes.
// It has no effect on local databases, which are memory-mapped.
func WithBlockCache(bytes int64) Option {
	return func(o *options) {
		o.blockCacheBytes = bytes
	}
}

// WithLoadConcurrency bounds how many fragments a single query loads in
// parallel. Default: 8.
func WithLoadConcurrency(n int) Option {
	return func(o *options) {
		o.loadConcurrency = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vectable.BasicMetricsCollector{}
//	db, _ := vectable.Connect(ctx, "./data", vectable.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg query latency: %dns\n", stats.AddCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vectable.NewJSONLogger(slog.LevelInfo)
//	db, _ := vectable.Connect(ctx, "./data", vectable.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      CompressionLZ4,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

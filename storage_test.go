package vectable

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectable/blobstore"
)

func TestParseURI(t *testing.T) {
	abs, err := filepath.Abs("data")
	require.NoError(t, err)

	tests := []struct {
		uri  string
		want location
		str  string
	}{
		{"./data", location{scheme: "file", path: abs}, "file://" + filepath.ToSlash(abs)},
		{"data/", location{scheme: "file", path: abs}, "file://" + filepath.ToSlash(abs)},
		{"/var/lib/db", location{scheme: "file", path: "/var/lib/db"}, "file:///var/lib/db"},
		{"file:///var/lib/db/", location{scheme: "file", path: "/var/lib/db"}, "file:///var/lib/db"},
		{"memory://scratch", location{scheme: "memory", bucket: "scratch"}, "memory://scratch"},
		{"s3://bucket/a/b/", location{scheme: "s3", bucket: "bucket", path: "a/b"}, "s3://bucket/a/b"},
		{"S3://bucket", location{scheme: "s3", bucket: "bucket"}, "s3://bucket"},
		{"minio://bucket/vectors", location{scheme: "minio", bucket: "bucket", path: "vectors"}, "minio://bucket/vectors"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := parseURI(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}

	for _, bad := range []string{"", "s3://", "memory:///"} {
		_, err := parseURI(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	o := applyOptions(nil)
	_, err := openStore(ctx, location{scheme: "gs", bucket: "b"}, &o, nil)
	assert.ErrorIs(t, err, ErrInvalidName)

	mem := blobstore.NewMemoryStore()
	o = applyOptions([]Option{WithBlobStore(mem)})
	got, err := openStore(ctx, location{scheme: "gs", bucket: "b"}, &o, nil)
	require.NoError(t, err)
	assert.Same(t, mem, got)

	o = applyOptions([]Option{WithBlobStore(mem), WithBlockCache(1 << 20)})
	got, err = openStore(ctx, location{scheme: "gs", bucket: "b"}, &o, nil)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.CachingStore{}, got)

	dir := filepath.Join(t.TempDir(), "nested", "db")
	o = applyOptions(nil)
	got, err = openStore(ctx, location{scheme: "file", path: dir}, &o, nil)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.IsType(t, &blobstore.LocalStore{}, got)
}

func TestApplyOptionsDefaults(t *testing.T) {
	o := applyOptions([]Option{nil, WithLogger(nil), WithMetricsCollector(nil)})
	assert.Equal(t, CompressionLZ4, o.compression)
	assert.IsType(t, NoopMetricsCollector{}, o.metricsCollector)
	require.NotNil(t, o.logger)
}

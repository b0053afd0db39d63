package vectable

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/blobstore/s3"
	"github.com/hupe1980/vectable/internal/cache"
	"github.com/hupe1980/vectable/internal/resource"
)

// location is a parsed database URI.
type location struct {
	scheme string // "file", "memory", "s3" or any scheme served by WithBlobStore
	bucket string // s3 bucket or memory name
	path   string // local directory or key prefix
}

func (l location) String() string {
	switch l.scheme {
	case "file":
		return "file://" + filepath.ToSlash(l.path)
	default:
		if l.path == "" {
			return l.scheme + "://" + l.bucket
		}
		return l.scheme + "://" + l.bucket + "/" + l.path
	}
}

// parseURI normalizes a database URI. Plain paths and file:// URIs become
// absolute, cleaned directories; trailing slashes are dropped everywhere.
func parseURI(uri string) (location, error) {
	if uri == "" {
		return location{}, fmt.Errorf("%w: empty database uri", ErrInvalidName)
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || len(scheme) == 1 {
		// No scheme, or a Windows drive letter.
		scheme, rest = "file", uri
	}

	switch scheme = strings.ToLower(scheme); scheme {
	case "file":
		if u, err := url.Parse("file://" + rest); err == nil && u.Host == "" && strings.HasPrefix(rest, "/") {
			rest = u.Path
		}
		abs, err := filepath.Abs(filepath.FromSlash(rest))
		if err != nil {
			return location{}, err
		}
		return location{scheme: scheme, path: filepath.Clean(abs)}, nil
	default:
		bucket, prefix, _ := strings.Cut(strings.Trim(rest, "/"), "/")
		if bucket == "" {
			return location{}, fmt.Errorf("%w: missing %s location in %q", ErrInvalidName, scheme, uri)
		}
		return location{scheme: scheme, bucket: bucket, path: strings.Trim(prefix, "/")}, nil
	}
}

// openStore returns the blob store backing loc.
func openStore(ctx context.Context, loc location, o *options, rc *resource.Controller) (blobstore.BlobStore, error) {
	if o.blobs != nil {
		return withBlockCache(o.blobs, o, rc), nil
	}

	switch loc.scheme {
	case "file":
		if err := os.MkdirAll(loc.path, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		return blobstore.NewLocalStore(loc.path), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		return openS3(ctx, loc, o, rc)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q, use WithBlobStore", ErrInvalidName, loc.scheme)
	}
}

func openS3(ctx context.Context, loc location, o *options, rc *resource.Controller) (blobstore.BlobStore, error) {
	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store := s3.NewStore(awss3.NewFromConfig(cfg), loc.bucket, s3.WithPrefix(loc.path))

	var blobs blobstore.BlobStore = store
	if o.ddbTable != "" {
		blobs = s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), o.ddbTable, loc.String())
	}
	return withBlockCache(blobs, o, rc), nil
}

func withBlockCache(blobs blobstore.BlobStore, o *options, rc *resource.Controller) blobstore.BlobStore {
	if o.blockCacheBytes <= 0 {
		return blobs
	}
	return blobstore.NewCachingStore(blobs, cache.NewShardedLRUBlockCache(o.blockCacheBytes, rc), 0)
}

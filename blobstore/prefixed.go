package blobstore

import (
	"context"
	"strings"
)

// PrefixedStore scopes a BlobStore to the namespace below prefix.
type PrefixedStore struct {
	inner  BlobStore
	prefix string
}

// Prefixed returns a store whose names are resolved below prefix. A
// trailing "/" is added if missing.
func Prefixed(inner BlobStore, prefix string) *PrefixedStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &PrefixedStore{inner: inner, prefix: prefix}
}

// Prefix returns the namespace prefix including the trailing slash.
func (s *PrefixedStore) Prefix() string { return s.prefix }

// Unwrap returns the underlying store.
func (s *PrefixedStore) Unwrap() BlobStore { return s.inner }

func (s *PrefixedStore) Open(ctx context.Context, name string) (Blob, error) {
	return s.inner.Open(ctx, s.prefix+name)
}

func (s *PrefixedStore) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, s.prefix+name, data)
}

func (s *PrefixedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, s.prefix+name)
}

func (s *PrefixedStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.TrimPrefix(n, s.prefix)
	}
	return names, nil
}

// RemoveAll removes every blob under prefix within the namespace.
func (s *PrefixedStore) RemoveAll(ctx context.Context, prefix string) error {
	return DeletePrefix(ctx, s.inner, s.prefix+prefix)
}

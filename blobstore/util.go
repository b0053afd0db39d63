package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
)

// View opens a blob and calls fn with its full content. The slice is only
// valid during fn; Mappable blobs are passed through without copying.
func View(ctx context.Context, s BlobStore, name string, fn func(data []byte) error) error {
	b, err := s.Open(ctx, name)
	if err != nil {
		return err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return err
		}
		return fn(data)
	}

	data, err := readBlob(ctx, b)
	if err != nil {
		return err
	}
	return fn(data)
}

// ReadAll returns a copy of the full content of a blob.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	var out []byte
	err := View(ctx, s, name, func(data []byte) error {
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})
	return out, err
}

func readBlob(ctx context.Context, b Blob) ([]byte, error) {
	buf := make([]byte, b.Size())
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, err
	}
	if n != len(buf) {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// DeletePrefix removes every blob under prefix, using Remover when the
// store supports it.
func DeletePrefix(ctx context.Context, s BlobStore, prefix string) error {
	if r, ok := s.(Remover); ok {
		return r.RemoveAll(ctx, prefix)
	}
	names, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Delete(ctx, name); err != nil && !IsNotFound(err) {
			return err
		}
	}
	return nil
}

func hasPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(name, prefix)
}

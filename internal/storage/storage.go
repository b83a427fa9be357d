package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains file storage abstractions for the uploaded PDF
// bytes. The row store is the source of truth; this layer only keeps the
// original files, addressed by a key derived from content hash and filename.

// ErrNotExist is returned by Get and Delete when no object is stored under the key.
var ErrNotExist = errors.New("object does not exist")

// PutObjectOptions define optional parameters for storing objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the
// implementation will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional and may be ignored by backends that
// cannot represent them.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a file storage client interface with a local-disk and an
// S3-compatible implementation. Methods use context and streaming readers.
type Storage interface {
	// Put stores an object under the given key using the provided reader and options.
	// Writing an existing key overwrites it; identical content under the same key is
	// therefore idempotent.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// List returns the keys of all objects under the given prefix. Used by the
	// startup reconciliation sweep.
	List(ctx context.Context, prefix string) ([]string, error)
}

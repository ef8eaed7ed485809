// Package storage uploads catalog assets to object storage.
// Backends implement Storage: MinIO (any S3-compatible provider through minio-go),
// AWS S3 through aws-sdk-go-v2, and an in-memory store for tests. Gateway turns a
// staged local file into a stored, URL-addressable asset, and Sweeper reclaims
// provisional objects that never became referenced by a video.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Storage is the interface for uploading, tagging and listing objects.
type Storage interface {
	// Upload streams data to the store under the given key with the given object tags.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, tags map[string]string) error
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
	// SetTags replaces the tags of an object.
	SetTags(ctx context.Context, key string, tags map[string]string) error
	// ClearTags removes every tag of an object.
	ClearTags(ctx context.Context, key string) error
	// Tags returns the tags of an object.
	Tags(ctx context.Context, key string) (map[string]string, error)
	// List returns the objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Error is returned by backends when an object operation fails.
type Error struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

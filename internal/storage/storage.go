// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"io"
	"time"
)

// Object is an in-flight upload: content stream plus the metadata the store
// needs to persist it.
type Object struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Storage is the interface for uploading and retrieving objects across buckets.
type Storage interface {
	// Upload streams data to the store under the given bucket and key.
	// Existing objects at the same key are overwritten.
	Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
	// Delete removes an object identified by bucket and key. Deleting an
	// absent object is not an error.
	Delete(ctx context.Context, bucket, key string) error
	// PublicURL constructs the browser-accessible URL for a key in a
	// publicly readable bucket.
	PublicURL(bucket, key string) (string, error)
	// SignedURL issues a time-limited GET URL for a key in a private bucket.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

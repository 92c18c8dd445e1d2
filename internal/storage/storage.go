// Package storage abstracts the two-bucket object store: private originals
// and public watermarked derivatives.
package storage

import (
	"context"
	"io"
	"time"
)

type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	// SignedURL issues a time-limited read URL for a private object.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// PublicURL builds the stable URL of a public object.
	PublicURL(bucket, key string) string
}

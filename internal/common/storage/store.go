// Package storage wraps the object store used for assessment documents and
// uploaded file metadata. All writes are whole-object overwrites; partial
// writes are never visible.
package storage

import (
	"context"
	"time"
)

// ObjectStore is the minimal key/value blob store contract.
type ObjectStore interface {
	// Put writes bytes under key, overwriting any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Get returns the object bytes, or an OBJECT_NOT_FOUND error.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key under prefix. The listing is a snapshot;
	// callers retrying mid-iteration must re-list.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// PresignedURL is a time-limited credential for direct access to one key.
type PresignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// Presigner issues time-limited write/read credentials for client-side
// uploads and downloads.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedURL, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (*PresignedURL, error)
}

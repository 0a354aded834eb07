package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists at the given path.
var ErrNotFound = errors.New("blob not found")

// Store defines the interface for raw blob storage. Implementations know
// nothing about what the bytes mean.
type Store interface {
	// Put writes data at path, replacing any previous content atomically.
	// Parent directories are created as needed. A concurrent reader sees
	// either the old content or the new content, never a partial write.
	Put(ctx context.Context, path string, data []byte) error

	// Get reads the blob at path. Returns ErrNotFound when no blob exists there.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes the blob at path. Deleting a missing blob is not an
	// error (idempotent).
	Delete(ctx context.Context, path string) error
}

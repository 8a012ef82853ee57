package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for empty keys or keys escaping the storage root.
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage defines the interface for byte storage operations.
type Storage interface {
	// EnsureRoot creates the storage root (directory or bucket) if absent.
	// It is idempotent.
	EnsureRoot(ctx context.Context) error

	// Write stores content from the reader with the given key, replacing
	// any existing object. The size parameter is the expected content size
	// (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content with the given key.
	// Returns ErrNotFound if nothing is stored under the key.
	Delete(ctx context.Context, key string) error

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

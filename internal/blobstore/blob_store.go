package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/weiawesome/user-avatar-service/pkg/storage"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

const avatarContentType = "image/png"

// Store persists avatar bytes under content-addressed keys. It is the only
// component that touches the storage backend.
type Store struct {
	backend storage.Storage
}

// New creates a Store over the given backend. The backend carries the
// configured storage root.
func New(backend storage.Storage) *Store {
	return &Store{backend: backend}
}

// PathFor returns the key an avatar is stored under: "{userID}-{hash}.png".
// Identical bytes for the same user always map to the same key, so
// concurrent writers of the same image overwrite each other harmlessly.
func PathFor(userID, contentHash string) string {
	return fmt.Sprintf("%s-%s.png", userID, contentHash)
}

// EnsureRootExists creates the storage root if absent.
func (s *Store) EnsureRootExists(ctx context.Context) error {
	if err := s.backend.EnsureRoot(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Write creates or overwrites the blob at path.
func (s *Store) Write(ctx context.Context, path string, data []byte) error {
	if err := s.EnsureRootExists(ctx); err != nil {
		return err
	}
	if err := s.backend.Write(ctx, path, bytes.NewReader(data), int64(len(data)), avatarContentType); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStorageUnavailable, path, err)
	}
	return nil
}

// Read returns the bytes stored at path.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	rc, err := s.backend.Read(ctx, path)
	if err != nil {
		return nil, classify("read", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, path, err)
	}
	return data, nil
}

// Delete removes the blob at path. ErrBlobNotFound is returned when it is
// already absent; the caller decides whether that matters.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.backend.Delete(ctx, path); err != nil {
		return classify("delete", path, err)
	}
	return nil
}

func classify(op, path string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrBlobNotFound, op, path)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrStorageUnavailable, op, path, err)
}

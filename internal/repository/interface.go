package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidKey   = errors.New("invalid key")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// AvatarRepository stores one AvatarRecord per user.
// Keys are shape-checked before any storage access.
type AvatarRepository interface {
	// Find returns ErrNotFound when the user has no record.
	Find(ctx context.Context, userID string) (*domain.AvatarRecord, error)
	// Insert returns ErrDuplicateKey if a record already exists for the user.
	Insert(ctx context.Context, record *domain.AvatarRecord) error
	// Delete returns ErrNotFound when the user has no record.
	Delete(ctx context.Context, userID string) error
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

func validateKey(userID string) error {
	if !domain.ValidUserID(userID) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, userID)
	}
	return nil
}

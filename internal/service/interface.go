package service

import (
	"context"
	"errors"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

// Caller-facing errors. Everything returned by the services wraps one of
// these; storage and upstream details stay in the wrapped chain for logs.
var (
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrAvatarNotFound     = errors.New("avatar not found")
	ErrAvatarUnavailable  = errors.New("avatar unavailable")
	ErrStorageCorruption  = errors.New("avatar storage corrupted")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileUnavailable = errors.New("profile unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

// AvatarService serves user avatars, filling the local cache from the
// upstream profile service on first access.
type AvatarService interface {
	// GetAvatar returns the avatar image as standard base64.
	GetAvatar(ctx context.Context, userID string) (string, error)
	// DeleteAvatar removes the cached avatar so the next read re-fetches it.
	DeleteAvatar(ctx context.Context, userID string) error
}

// UserService defines the interface for account business logic.
type UserService interface {
	SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.TokenResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	// GetAccount returns the locally registered account.
	GetAccount(ctx context.Context, accountID string) (*domain.User, error)
	// GetUserByID returns the upstream profile. It is never cached.
	GetUserByID(ctx context.Context, userID string) (*domain.RemoteProfile, error)
}

// WelcomeNotifier sends the signup email. Implementations must not block
// on delivery.
type WelcomeNotifier interface {
	SendWelcomeEmail(ctx context.Context, name, email string)
}

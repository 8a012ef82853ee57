package fetcher

import (
	"context"
	"errors"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

var (
	// ErrUpstreamNotFound means the upstream has no such user.
	ErrUpstreamNotFound = errors.New("upstream: user not found")
	// ErrUpstreamUnavailable covers transport failures, 5xx, malformed
	// bodies and oversized or non-image payloads.
	ErrUpstreamUnavailable = errors.New("upstream: unavailable")
)

// Fetcher reads user profiles and avatar images from the remote profile API.
type Fetcher interface {
	FetchProfile(ctx context.Context, userID string) (*domain.RemoteProfile, error)
	FetchImageBytes(ctx context.Context, url string) ([]byte, error)
}

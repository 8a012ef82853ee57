package fetcher

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

// Policy bounds how the service calls the upstream.
type Policy struct {
	Timeout       time.Duration // per call; 0 disables
	RatePerSecond float64       // 0 disables limiting
	Burst         int
}

// policyFetcher applies a Policy around another Fetcher.
type policyFetcher struct {
	next    Fetcher
	timeout time.Duration
	limiter *rate.Limiter
}

// WithPolicy wraps next with a per-call timeout and a token-bucket limiter.
// No retries are performed.
func WithPolicy(next Fetcher, p Policy) Fetcher {
	limit := rate.Inf
	if p.RatePerSecond > 0 {
		limit = rate.Limit(p.RatePerSecond)
	}
	burst := p.Burst
	if burst <= 0 {
		burst = 1
	}

	return &policyFetcher{
		next:    next,
		timeout: p.Timeout,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (f *policyFetcher) FetchProfile(ctx context.Context, userID string) (*domain.RemoteProfile, error) {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.next.FetchProfile(ctx, userID)
}

func (f *policyFetcher) FetchImageBytes(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.next.FetchImageBytes(ctx, url)
}

func (f *policyFetcher) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.timeout)
}

func (f *policyFetcher) wait(ctx context.Context) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %w", ErrUpstreamUnavailable, err)
	}
	return nil
}

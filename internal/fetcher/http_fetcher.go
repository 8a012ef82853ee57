package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultMaxImageBytes = 5 << 20
)

// Config holds remote profile API settings.
type Config struct {
	BaseURL       string
	APIKey        string // sent as x-api-key when set
	Timeout       time.Duration
	MaxImageBytes int64
	VerifyImage   bool
}

// profileEnvelope is the upstream response shape: {"data": {...}}.
type profileEnvelope struct {
	Data *domain.RemoteProfile `json:"data"`
}

// HTTPFetcher implements Fetcher over HTTP.
type HTTPFetcher struct {
	baseURL       string
	apiKey        string
	maxImageBytes int64
	verifyImage   bool
	httpClient    *http.Client
}

// NewHTTPFetcher creates a new remote profile client.
func NewHTTPFetcher(cfg Config) (*HTTPFetcher, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("upstream base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid upstream base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}

	return &HTTPFetcher{
		baseURL:       base,
		apiKey:        cfg.APIKey,
		maxImageBytes: maxBytes,
		verifyImage:   cfg.VerifyImage,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FetchProfile retrieves the profile of a user from GET {base}/users/{id}.
func (f *HTTPFetcher) FetchProfile(ctx context.Context, userID string) (*domain.RemoteProfile, error) {
	endpoint := fmt.Sprintf("%s/users/%s", f.baseURL, url.PathEscape(userID))

	resp, err := f.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: profile status %d", ErrUpstreamNotFound, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: profile status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var envelope profileEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %w", ErrUpstreamUnavailable, err)
	}
	if envelope.Data == nil {
		return nil, ErrUpstreamNotFound
	}

	return envelope.Data, nil
}

// FetchImageBytes downloads the image at imageURL. Bodies larger than the
// configured limit are rejected.
func (f *HTTPFetcher) FetchImageBytes(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := f.get(ctx, imageURL, "image/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: image status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	if resp.ContentLength > f.maxImageBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit %d", ErrUpstreamUnavailable, resp.ContentLength, f.maxImageBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %w", ErrUpstreamUnavailable, err)
	}
	if int64(len(data)) > f.maxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrUpstreamUnavailable, f.maxImageBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image body", ErrUpstreamUnavailable)
	}

	if f.verifyImage {
		if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%w: body is not a decodable image: %w", ErrUpstreamUnavailable, err)
		}
	}

	return data, nil
}

func (f *HTTPFetcher) get(ctx context.Context, endpoint, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", accept)
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

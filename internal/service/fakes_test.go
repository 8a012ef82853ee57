package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/fetcher"
	"github.com/weiawesome/user-avatar-service/internal/repository"
	"github.com/weiawesome/user-avatar-service/pkg/storage"
)

// memAvatarRepo is an in-memory AvatarRepository with a unique key on UserID.
type memAvatarRepo struct {
	mu      sync.Mutex
	records map[string]domain.AvatarRecord
	finds   atomic.Int32
	inserts atomic.Int32
	findErr error
}

func newMemAvatarRepo() *memAvatarRepo {
	return &memAvatarRepo{records: make(map[string]domain.AvatarRecord)}
}

func (r *memAvatarRepo) Find(_ context.Context, userID string) (*domain.AvatarRecord, error) {
	r.finds.Add(1)
	if !domain.ValidUserID(userID) {
		return nil, repository.ErrInvalidKey
	}
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *memAvatarRepo) Insert(_ context.Context, record *domain.AvatarRecord) error {
	r.inserts.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.UserID]; ok {
		return repository.ErrDuplicateKey
	}
	record.CreatedAt = time.Now().UTC()
	r.records[record.UserID] = *record
	return nil
}

func (r *memAvatarRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, userID)
	return nil
}

func (r *memAvatarRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *memAvatarRepo) get(userID string) (domain.AvatarRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	return rec, ok
}

// stubFetcher serves canned profiles and images and counts calls.
type stubFetcher struct {
	profiles     map[string]*domain.RemoteProfile
	images       map[string][]byte
	profileErr   error
	delay        time.Duration
	beforeImage  func()
	profileCalls atomic.Int32
	imageCalls   atomic.Int32
}

func (f *stubFetcher) FetchProfile(ctx context.Context, userID string) (*domain.RemoteProfile, error) {
	f.profileCalls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fetcher.ErrUpstreamUnavailable
		case <-time.After(f.delay):
		}
	}
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, fetcher.ErrUpstreamNotFound
	}
	return p, nil
}

func (f *stubFetcher) FetchImageBytes(_ context.Context, url string) ([]byte, error) {
	f.imageCalls.Add(1)
	if f.beforeImage != nil {
		f.beforeImage()
	}
	data, ok := f.images[url]
	if !ok {
		return nil, fetcher.ErrUpstreamUnavailable
	}
	return data, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	emails []string
}

func (n *recordingNotifier) SendWelcomeEmail(_ context.Context, name, email string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, name+" <"+email+">")
}

// failingDeleteStorage wraps a Storage and fails every Delete.
type failingDeleteStorage struct {
	storage.Storage
	err error
}

func (s *failingDeleteStorage) Delete(context.Context, string) error {
	return s.err
}

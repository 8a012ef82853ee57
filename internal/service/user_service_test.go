package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/fetcher"
	"github.com/weiawesome/user-avatar-service/internal/repository"
	"github.com/weiawesome/user-avatar-service/pkg/jwt"
)

type memUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	r.nextID++
	user.ID = strconv.Itoa(r.nextID)
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type userFixture struct {
	svc      UserService
	repo     *memUserRepo
	notifier *recordingNotifier
	fetcher  *stubFetcher
	tokens   *jwt.Manager
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	tokens, err := jwt.NewManager("test-secret", time.Hour, "user-avatar-service")
	require.NoError(t, err)

	f := &userFixture{
		repo:     newMemUserRepo(),
		notifier: &recordingNotifier{},
		fetcher: &stubFetcher{
			profiles: map[string]*domain.RemoteProfile{
				"2": {ID: 2, Email: "janet.weaver@reqres.in", FirstName: "Janet", LastName: "Weaver", Avatar: "https://upstream.test/img/2.png"},
			},
		},
		tokens: tokens,
	}
	svc := NewUserService(f.repo, f.fetcher, tokens, f.notifier)
	svc.(*userServiceImpl).bcryptCost = bcrypt.MinCost
	f.svc = svc
	return f
}

func TestSignUp(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, &domain.SignUpRequest{Name: "Janet", Email: "janet@example.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := f.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.ID)

	stored, err := f.repo.GetByEmail(ctx, "janet@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	assert.Equal(t, []string{"Janet <janet@example.com>"}, f.notifier.emails)
}

func TestSignUp_EmailExists(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	req := &domain.SignUpRequest{Name: "Janet", Email: "janet@example.com", Password: "secret1"}

	_, err := f.svc.SignUp(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, req)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Len(t, f.notifier.emails, 1)
}

func TestLogin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, &domain.SignUpRequest{Name: "Janet", Email: "janet@example.com", Password: "secret1"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "janet@example.com", password: "secret1"},
		{name: "wrong password", email: "janet@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "secret1", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Login(ctx, &domain.LoginRequest{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			claims, err := f.tokens.Validate(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, "1", claims.ID)
		})
	}
}

func TestGetAccount(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, &domain.SignUpRequest{Name: "Janet", Email: "janet@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := f.tokens.Validate(resp.Token)
	require.NoError(t, err)

	user, err := f.svc.GetAccount(ctx, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "janet@example.com", user.Email)
	assert.Zero(t, f.fetcher.profileCalls.Load())

	_, err = f.svc.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByID(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	profile, err := f.svc.GetUserByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Janet", profile.FirstName)

	// Never cached: every call goes upstream.
	_, err = f.svc.GetUserByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.fetcher.profileCalls.Load())

	_, err = f.svc.GetUserByID(ctx, "23")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.GetUserByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidUserID)

	f.fetcher.profileErr = fetcher.ErrUpstreamUnavailable
	_, err = f.svc.GetUserByID(ctx, "2")
	assert.ErrorIs(t, err, ErrProfileUnavailable)
}

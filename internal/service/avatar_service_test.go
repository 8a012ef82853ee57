package service

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/user-avatar-service/internal/blobstore"
	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/fetcher"
	"github.com/weiawesome/user-avatar-service/internal/hasher"
	"github.com/weiawesome/user-avatar-service/pkg/storage"
)

const avatarURL = "https://upstream.test/img/7.png"

var avatarBytes = []byte("\x89PNG\r\n\x1a\nfake-avatar-7")

type avatarFixture struct {
	svc     AvatarService
	repo    *memAvatarRepo
	fetcher *stubFetcher
	blobs   *blobstore.Store
	root    string
}

func newAvatarFixture(t *testing.T) *avatarFixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "avatars")
	backend, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: root})
	require.NoError(t, err)

	f := &avatarFixture{
		repo: newMemAvatarRepo(),
		fetcher: &stubFetcher{
			profiles: map[string]*domain.RemoteProfile{
				"7": {ID: 7, Avatar: avatarURL},
				"8": {ID: 8, Avatar: ""},
			},
			images: map[string][]byte{avatarURL: avatarBytes},
		},
		blobs: blobstore.New(backend),
		root:  root,
	}
	f.svc = NewAvatarService(f.repo, f.blobs, f.fetcher, hasher.SHA256{})
	return f
}

func (f *avatarFixture) blobFile(t *testing.T, userID string) string {
	t.Helper()
	rec, ok := f.repo.get(userID)
	require.True(t, ok, "expected a record for %s", userID)
	return filepath.Join(f.root, rec.BlobPath)
}

func TestGetAvatar_InvalidUserIDBeforeAnyIO(t *testing.T) {
	f := newAvatarFixture(t)

	for _, id := range []string{"abc", "", "-1", " 7", "7a", "007", "12345678901234567890"} {
		_, err := f.svc.GetAvatar(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidUserID, "id %q", id)

		err = f.svc.DeleteAvatar(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidUserID, "id %q", id)
	}

	assert.Zero(t, f.repo.finds.Load())
	assert.Zero(t, f.fetcher.profileCalls.Load())
	_, err := os.Stat(f.root)
	assert.True(t, os.IsNotExist(err))
}

func TestGetAvatar_FillThenHit(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()
	want := base64.StdEncoding.EncodeToString(avatarBytes)

	got, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	hash := hasher.SHA256{}.Hash(avatarBytes)
	rec, ok := f.repo.get("7")
	require.True(t, ok)
	assert.Equal(t, hash, rec.ContentHash)
	assert.Equal(t, "7-"+hash+".png", rec.BlobPath)

	onDisk, err := os.ReadFile(f.blobFile(t, "7"))
	require.NoError(t, err)
	assert.Equal(t, avatarBytes, onDisk)

	got, err = f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, int32(1), f.fetcher.profileCalls.Load())
	assert.Equal(t, int32(1), f.fetcher.imageCalls.Load())
	assert.Equal(t, int32(1), f.repo.inserts.Load())
}

func TestGetAvatar_UpstreamOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		profileErr error
		wantErr    error
	}{
		{name: "empty avatar url", userID: "8", wantErr: ErrAvatarNotFound},
		{name: "unknown upstream user", userID: "23", wantErr: ErrAvatarNotFound},
		{name: "upstream down", userID: "7", profileErr: fetcher.ErrUpstreamUnavailable, wantErr: ErrAvatarUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAvatarFixture(t)
			f.fetcher.profileErr = tt.profileErr

			_, err := f.svc.GetAvatar(context.Background(), tt.userID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.repo.count())
		})
	}
}

func TestGetAvatar_ImageFetchFailure(t *testing.T) {
	f := newAvatarFixture(t)
	f.fetcher.images = map[string][]byte{}

	_, err := f.svc.GetAvatar(context.Background(), "7")
	assert.ErrorIs(t, err, ErrAvatarUnavailable)
	assert.Zero(t, f.repo.count())
}

func TestGetAvatar_RemovedBlobIsCorruption(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.blobFile(t, "7")))

	_, err = f.svc.GetAvatar(ctx, "7")
	assert.ErrorIs(t, err, ErrStorageCorruption)
	assert.NotErrorIs(t, err, ErrAvatarNotFound)

	// No silent repair.
	assert.Equal(t, int32(1), f.fetcher.profileCalls.Load())
	_, statErr := os.Stat(f.blobFile(t, "7"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGetAvatar_AlteredBlobIsCorruption(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.blobFile(t, "7"), []byte("tampered"), 0o644))

	_, err = f.svc.GetAvatar(ctx, "7")
	assert.ErrorIs(t, err, ErrStorageCorruption)
	assert.Equal(t, int32(1), f.fetcher.profileCalls.Load())
}

func TestGetAvatar_RepositoryFailure(t *testing.T) {
	f := newAvatarFixture(t)
	f.repo.findErr = errors.New("connection refused")

	_, err := f.svc.GetAvatar(context.Background(), "7")
	assert.ErrorIs(t, err, ErrAvatarUnavailable)
	assert.Zero(t, f.fetcher.profileCalls.Load())
}

func TestDeleteThenGetRefetches(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	path := f.blobFile(t, "7")

	require.NoError(t, f.svc.DeleteAvatar(ctx, "7"))
	assert.Zero(t, f.repo.count())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	got, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(avatarBytes), got)
	assert.Equal(t, int32(2), f.fetcher.profileCalls.Load())
}

func TestDeleteAvatar_NoRecord(t *testing.T) {
	f := newAvatarFixture(t)

	err := f.svc.DeleteAvatar(context.Background(), "7")
	assert.ErrorIs(t, err, ErrAvatarNotFound)
}

func TestDeleteAvatar_MissingBlobStillDeletesRecord(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.blobFile(t, "7")))

	require.NoError(t, f.svc.DeleteAvatar(ctx, "7"))
	assert.Zero(t, f.repo.count())

	assert.ErrorIs(t, f.svc.DeleteAvatar(ctx, "7"), ErrAvatarNotFound)
}

func TestDeleteAvatar_BlobFailureStillDeletesRecord(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	path := f.blobFile(t, "7")

	backend, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: f.root})
	require.NoError(t, err)
	failing := &failingDeleteStorage{Storage: backend, err: errors.New("read-only file system")}
	svc := NewAvatarService(f.repo, blobstore.New(failing), f.fetcher, hasher.SHA256{})

	err = svc.DeleteAvatar(ctx, "7")
	assert.ErrorIs(t, err, ErrAvatarUnavailable)
	assert.NotErrorIs(t, err, ErrAvatarNotFound)
	assert.Zero(t, f.repo.count())

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestGetAvatar_BlobWriteFailureLeavesNoRecord(t *testing.T) {
	f := newAvatarFixture(t)
	require.NoError(t, os.WriteFile(f.root, []byte("not a dir"), 0o644))

	_, err := f.svc.GetAvatar(context.Background(), "7")
	assert.ErrorIs(t, err, ErrAvatarUnavailable)
	assert.Zero(t, f.repo.inserts.Load())
	assert.Zero(t, f.repo.count())
}

func TestGetAvatar_ConcurrentRequestsFillOnce(t *testing.T) {
	f := newAvatarFixture(t)
	f.fetcher.delay = 50 * time.Millisecond

	const n = 16
	results := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = f.svc.GetAvatar(context.Background(), "7")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 1, f.repo.count())
	assert.Equal(t, int32(1), f.fetcher.profileCalls.Load())
}

func TestGetAvatar_ConcurrentProcessesShareOneRecord(t *testing.T) {
	f := newAvatarFixture(t)
	f.fetcher.delay = 20 * time.Millisecond

	// A second service instance over the same stores stands in for
	// another process; it does not share the in-process fill group.
	other := NewAvatarService(f.repo, f.blobs, f.fetcher, hasher.SHA256{})

	var wg sync.WaitGroup
	var a, b string
	var errA, errB error
	wg.Add(2)
	go func() { defer wg.Done(); a, errA = f.svc.GetAvatar(context.Background(), "7") }()
	go func() { defer wg.Done(); b, errB = other.GetAvatar(context.Background(), "7") }()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, f.repo.count())
}

func TestGetAvatar_LosingRaceServesWinner(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()
	winnerBytes := []byte("winner-image")
	winnerHash := hasher.SHA256{}.Hash(winnerBytes)
	winnerPath := blobstore.PathFor("7", winnerHash)

	// Another writer records a different image while ours is in flight.
	f.fetcher.beforeImage = func() {
		assert.NoError(t, f.blobs.Write(ctx, winnerPath, winnerBytes))
		assert.NoError(t, f.repo.Insert(ctx, &domain.AvatarRecord{UserID: "7", ContentHash: winnerHash, BlobPath: winnerPath}))
	}

	got, err := f.svc.GetAvatar(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(winnerBytes), got)

	rec, ok := f.repo.get("7")
	require.True(t, ok)
	assert.Equal(t, winnerHash, rec.ContentHash)

	// Our unreferenced blob was cleaned up.
	ourPath := filepath.Join(f.root, blobstore.PathFor("7", hasher.SHA256{}.Hash(avatarBytes)))
	_, err = os.Stat(ourPath)
	assert.True(t, os.IsNotExist(err))
}

func TestGetAvatar_CallerCancellation(t *testing.T) {
	f := newAvatarFixture(t)
	f.fetcher.delay = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.svc.GetAvatar(ctx, "7")
	assert.ErrorIs(t, err, ErrAvatarUnavailable)

	// The detached fill still completes and caches the avatar.
	assert.Eventually(t, func() bool { return f.repo.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

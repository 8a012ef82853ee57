package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/user-avatar-service/internal/audit"
	"github.com/weiawesome/user-avatar-service/internal/blobstore"
	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/fetcher"
	"github.com/weiawesome/user-avatar-service/internal/hasher"
	"github.com/weiawesome/user-avatar-service/internal/repository"
	"github.com/weiawesome/user-avatar-service/pkg/log"
)

// avatarServiceImpl implements AvatarService.
//
// The record repository is the source of truth: a record exists only after
// its blob was written, and a hit is never re-fetched from upstream. Misses
// for the same user are coalesced in-process; across processes the unique
// key on the record decides the winner.
type avatarServiceImpl struct {
	repo    repository.AvatarRepository
	blobs   *blobstore.Store
	fetcher fetcher.Fetcher
	hasher  hasher.Hasher
	fills   singleflight.Group
}

// NewAvatarService creates a new avatar service.
func NewAvatarService(repo repository.AvatarRepository, blobs *blobstore.Store, f fetcher.Fetcher, h hasher.Hasher) AvatarService {
	return &avatarServiceImpl{
		repo:    repo,
		blobs:   blobs,
		fetcher: f,
		hasher:  h,
	}
}

// GetAvatar returns the avatar for userID as base64.
func (s *avatarServiceImpl) GetAvatar(ctx context.Context, userID string) (string, error) {
	if !domain.ValidUserID(userID) {
		return "", ErrInvalidUserID
	}
	ctx = log.WithUser(ctx, userID)

	data, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *avatarServiceImpl) load(ctx context.Context, userID string) ([]byte, error) {
	l := log.Ctx(ctx)

	record, err := s.repo.Find(ctx, userID)
	if err == nil {
		l.Debug().Str(log.FieldCacheResult, "hit").Msg("avatar record found")
		return s.serveHit(ctx, record)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		l.Error().Err(err).Msg("failed to find avatar record")
		return nil, unavailable(err)
	}

	l.Debug().Str(log.FieldCacheResult, "miss").Msg("avatar record missing")

	// The fill outlives any single caller so that waiters sharing it are not
	// failed by the first caller's cancellation.
	fillCtx := context.WithoutCancel(ctx)
	ch := s.fills.DoChan(userID, func() (interface{}, error) {
		return s.fill(fillCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, unavailable(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.Debug().Msg("avatar fill shared with concurrent request")
		}
		return res.Val.([]byte), nil
	}
}

// serveHit reads the blob named by record and checks it against the
// recorded digest. A missing or altered blob is never repaired by a
// re-fetch.
func (s *avatarServiceImpl) serveHit(ctx context.Context, record *domain.AvatarRecord) ([]byte, error) {
	l := log.Ctx(ctx)

	data, err := s.blobs.Read(ctx, record.BlobPath)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			l.Error().Str(log.FieldBlobKey, record.BlobPath).Msg("avatar record points at a missing blob")
			audit.LogAvatar(ctx, audit.ActionAvatarCorrupt, record, "blob missing", "avatar storage corrupted")
			return nil, fmt.Errorf("%w: %w", ErrStorageCorruption, err)
		}
		l.Error().Err(err).Str(log.FieldBlobKey, record.BlobPath).Msg("failed to read avatar blob")
		return nil, unavailable(err)
	}

	if got := s.hasher.Hash(data); got != record.ContentHash {
		l.Error().
			Str(log.FieldBlobKey, record.BlobPath).
			Str(log.FieldContentHash, record.ContentHash).
			Msg("avatar blob does not match recorded digest")
		audit.LogAvatar(ctx, audit.ActionAvatarCorrupt, record, "digest mismatch", "avatar storage corrupted")
		return nil, fmt.Errorf("%w: digest mismatch for %s", ErrStorageCorruption, record.BlobPath)
	}

	audit.LogAvatar(ctx, audit.ActionAvatarServe, record, "", "avatar served from cache")
	return data, nil
}

// fill fetches the avatar from upstream, stores the blob, then records it.
// The blob is written before the record so a record never names a blob
// that was not written.
func (s *avatarServiceImpl) fill(ctx context.Context, userID string) ([]byte, error) {
	l := log.Ctx(ctx)

	// A fill that finished just before this one started has already
	// recorded the avatar.
	if record, err := s.repo.Find(ctx, userID); err == nil {
		return s.serveHit(ctx, record)
	} else if !errors.Is(err, repository.ErrNotFound) {
		l.Error().Err(err).Msg("failed to find avatar record")
		return nil, unavailable(err)
	}

	profile, err := s.fetcher.FetchProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, fetcher.ErrUpstreamNotFound) {
			return nil, ErrAvatarNotFound
		}
		l.Warn().Err(err).Msg("failed to fetch profile")
		return nil, unavailable(err)
	}
	if profile.Avatar == "" {
		return nil, ErrAvatarNotFound
	}

	data, err := s.fetcher.FetchImageBytes(ctx, profile.Avatar)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldUpstreamURL, profile.Avatar).Msg("failed to fetch avatar image")
		return nil, unavailable(err)
	}

	hash := s.hasher.Hash(data)
	path := blobstore.PathFor(userID, hash)

	if err := s.blobs.Write(ctx, path, data); err != nil {
		l.Error().Err(err).Str(log.FieldBlobKey, path).Msg("failed to write avatar blob")
		return nil, unavailable(err)
	}

	record := &domain.AvatarRecord{UserID: userID, ContentHash: hash, BlobPath: path}
	if err := s.repo.Insert(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return s.adoptWinner(ctx, userID, path, hash, data)
		}
		l.Error().Err(err).Msg("failed to insert avatar record")
		return nil, unavailable(err)
	}

	l.Info().
		Str(log.FieldContentHash, hash).
		Int(log.FieldBytes, len(data)).
		Msg("avatar cached")
	audit.LogAvatar(ctx, audit.ActionAvatarFill, record, "", "avatar fetched and cached")
	return data, nil
}

// adoptWinner handles losing the insert race to another writer: the
// winner's record is served so every caller sees the same bytes.
func (s *avatarServiceImpl) adoptWinner(ctx context.Context, userID, path, hash string, data []byte) ([]byte, error) {
	l := log.Ctx(ctx)

	winner, err := s.repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted between our insert and this read.
			l.Warn().Msg("avatar record vanished after duplicate insert; serving fetched bytes")
			return data, nil
		}
		l.Error().Err(err).Msg("failed to re-read avatar record after duplicate insert")
		return nil, unavailable(err)
	}

	if winner.ContentHash == hash {
		l.Debug().Msg("concurrent fill stored identical avatar")
		return data, nil
	}

	// Upstream changed between the two fetches. Our blob is unreferenced.
	l.Warn().
		Str(log.FieldContentHash, hash).
		Str("winner_hash", winner.ContentHash).
		Msg("concurrent fill stored a different avatar; serving the recorded one")

	if winner.BlobPath != path {
		if err := s.blobs.Delete(ctx, path); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
			l.Warn().Err(err).Str(log.FieldBlobKey, path).Msg("failed to remove orphaned avatar blob")
		}
	}

	return s.serveHit(ctx, winner)
}

// DeleteAvatar removes the blob and the record for userID. A blob that is
// already gone does not stop the record from being deleted.
func (s *avatarServiceImpl) DeleteAvatar(ctx context.Context, userID string) error {
	if !domain.ValidUserID(userID) {
		return ErrInvalidUserID
	}
	ctx = log.WithUser(ctx, userID)
	l := log.Ctx(ctx)

	record, err := s.repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAvatarNotFound
		}
		l.Error().Err(err).Msg("failed to find avatar record")
		return unavailable(err)
	}

	var blobErr error
	if err := s.blobs.Delete(ctx, record.BlobPath); err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			l.Warn().Str(log.FieldBlobKey, record.BlobPath).Msg("avatar blob already missing; deleting record")
		} else {
			l.Error().Err(err).Str(log.FieldBlobKey, record.BlobPath).Msg("failed to delete avatar blob")
			blobErr = err
		}
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAvatarNotFound
		}
		l.Error().Err(err).Msg("failed to delete avatar record")
		return unavailable(err)
	}

	if blobErr != nil {
		return unavailable(blobErr)
	}

	audit.LogAvatar(ctx, audit.ActionAvatarDelete, record, "", "avatar deleted")
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrAvatarUnavailable, err)
}

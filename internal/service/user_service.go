package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/weiawesome/user-avatar-service/internal/audit"
	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/fetcher"
	"github.com/weiawesome/user-avatar-service/internal/repository"
	"github.com/weiawesome/user-avatar-service/pkg/jwt"
	"github.com/weiawesome/user-avatar-service/pkg/log"
)

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	repo       repository.UserRepository
	fetcher    fetcher.Fetcher
	tokens     *jwt.Manager
	notifier   WelcomeNotifier
	bcryptCost int
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, f fetcher.Fetcher, tokens *jwt.Manager, notifier WelcomeNotifier) UserService {
	return &userServiceImpl{
		repo:       repo,
		fetcher:    f,
		tokens:     tokens,
		notifier:   notifier,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// SignUp registers a new user and queues the welcome email.
func (s *userServiceImpl) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.TokenResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	s.notifier.SendWelcomeEmail(ctx, user.Name, user.Email)

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after signup")
		return nil, err
	}

	audit.Log(ctx, audit.ActionSignUp, user.ID, "user signed up")

	return &domain.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Login authenticates a user.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Email, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, req.Email, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after login")
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return &domain.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// GetAccount looks up the local account behind an access token.
func (s *userServiceImpl) GetAccount(ctx context.Context, accountID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, accountID).Msg("failed to get account")
		return nil, err
	}
	return user, nil
}

// GetUserByID fetches the upstream profile for userID.
func (s *userServiceImpl) GetUserByID(ctx context.Context, userID string) (*domain.RemoteProfile, error) {
	if !domain.ValidUserID(userID) {
		return nil, ErrInvalidUserID
	}
	l := log.Ctx(ctx)

	profile, err := s.fetcher.FetchProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, fetcher.ErrUpstreamNotFound) {
			return nil, ErrUserNotFound
		}
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to fetch profile")
		return nil, fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}

	audit.Log(ctx, audit.ActionGetProfile, userID, "profile fetched")
	return profile, nil
}

package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrMissingSecret = errors.New("jwt secret is required")
)

// Claims represents JWT claims. ID carries the user's identifier.
type Claims struct {
	jwt.RegisteredClaims
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Manager signs and validates HMAC-SHA256 tokens with a shared secret.
type Manager struct {
	secret   []byte
	duration time.Duration
	issuer   string
	now      func() time.Time
}

// NewManager creates a new JWT manager.
func NewManager(secret string, duration time.Duration, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if duration <= 0 {
		duration = 24 * time.Hour
	}

	return &Manager{
		secret:   []byte(secret),
		duration: duration,
		issuer:   issuer,
		now:      time.Now,
	}, nil
}

// Generate issues a signed token for the given user.
func (m *Manager) Generate(userID, email string) (token string, expiresAt int64, err error) {
	now := m.now()
	exp := now.Add(m.duration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		ID:    userID,
		Email: email,
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", 0, err
	}
	return token, exp.Unix(), nil
}

// Validate parses a token and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Package token mints and verifies access tokens and generates opaque refresh
// secrets with their stored verifiers.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshSecretBytes is the amount of randomness in a refresh secret. Its
// base64url form is 64 characters, inside bcrypt's 72 byte input limit.
const RefreshSecretBytes = 48

var (
	ErrMissingSecret = errors.New("access token signing secret is not configured")
	ErrInvalidToken  = errors.New("invalid access token")
)

// Claims is the access token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID       `json:"userId"`
	Role     domain.Role     `json:"role"`
	UserType domain.UserType `json:"userType"`
}

// Hasher is the adaptive hash used for refresh secret verifiers.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

// Issuer signs access tokens and derives refresh secret verifiers.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	hasher Hasher
	now    func() time.Time
}

// NewIssuer fails when secret is empty so a misconfigured process never
// starts serving.
func NewIssuer(secret string, ttl time.Duration, hasher Hasher) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("access token lifetime must be positive, got %s", ttl)
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		hasher: hasher,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) AccessTokenTTL() time.Duration {
	return i.ttl
}

// IssueAccessToken returns an HS256 token carrying the user's id, role and type.
func (i *Issuer) IssueAccessToken(user *domain.User) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID:   user.ID,
		Role:     user.Role,
		UserType: user.UserType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature and expiry. Every failure is reported
// as ErrInvalidToken.
func (i *Issuer) ParseAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewRefreshSecret returns a fresh random refresh secret.
func NewRefreshSecret() (string, error) {
	buf := make([]byte, RefreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint is a fast lookup key for a secret. It narrows candidates and
// never proves possession on its own.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Verifier returns the stored form of a refresh secret.
func (i *Issuer) Verifier(secret string) (hash string, fingerprint string, err error) {
	hash, err = i.hasher.Hash(secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash refresh secret: %w", err)
	}
	return hash, Fingerprint(secret), nil
}

// MatchesVerifier reports whether secret matches a stored hash.
func (i *Issuer) MatchesVerifier(secret, hash string) (bool, error) {
	return i.hasher.Verify(secret, hash)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/edufam/edufam-backend/internal/token"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RefreshHandle identifies a refresh token by id, by secret, or both. When
// both are given the secret must match the token named by the id.
type RefreshHandle struct {
	ID     *uuid.UUID
	Secret string
}

func (h RefreshHandle) empty() bool {
	return h.ID == nil && h.Secret == ""
}

// Redemption is the result of a successful rotation.
type Redemption struct {
	Token  *domain.RefreshToken
	Secret string
	User   *domain.User
}

// RefreshTokenService issues, rotates and revokes refresh tokens. Every
// redemption consumes the presented token.
type RefreshTokenService struct {
	tokens   repository.RefreshTokenRepository
	users    repository.UserRepository
	sessions repository.SessionRepository
	issuer   *token.Issuer
	ttl      time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewRefreshTokenService(
	tokens repository.RefreshTokenRepository,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	issuer *token.Issuer,
	ttl time.Duration,
	m *metrics.Metrics,
	log zerolog.Logger,
) *RefreshTokenService {
	return &RefreshTokenService{
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		ttl:      ttl,
		metrics:  m,
		log:      log.With().Str("component", "refresh_tokens").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *RefreshTokenService) WithClock(now func() time.Time) *RefreshTokenService {
	s.now = now
	return s
}

// Issue stores a new live token for userID and returns it with its one-time
// plaintext secret.
func (s *RefreshTokenService) Issue(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*domain.RefreshToken, string, error) {
	record, secret, err := s.newRecord(s.now(), userID, sessionID, nil)
	if err != nil {
		return nil, "", err
	}

	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return record, secret, nil
}

func (s *RefreshTokenService) newRecord(now time.Time, userID uuid.UUID, sessionID, rotatedFrom *uuid.UUID) (*domain.RefreshToken, string, error) {
	secret, err := token.NewRefreshSecret()
	if err != nil {
		return nil, "", err
	}

	hash, fingerprint, err := s.issuer.Verifier(secret)
	if err != nil {
		return nil, "", err
	}

	record := &domain.RefreshToken{
		ID:            uuid.New(),
		UserID:        userID,
		SessionID:     sessionID,
		TokenHash:     hash,
		ExpiresAt:     now.Add(s.ttl),
		RotatedFromID: rotatedFrom,
		CreatedAt:     now,
	}
	if s.tokens.Capabilities().RefreshTokenFingerprint {
		record.TokenFingerprint = &fingerprint
	}

	return record, secret, nil
}

// Redeem consumes a live token and returns its successor. Checks run in
// order: existence, expiry, revocation, secret match, owner.
func (s *RefreshTokenService) Redeem(ctx context.Context, h RefreshHandle) (*Redemption, error) {
	if h.empty() {
		return nil, ErrMissingRefreshHandle
	}

	now := s.now()
	record, err := s.resolve(ctx, h, now)
	if err != nil {
		return nil, err
	}

	switch record.State(now) {
	case domain.TokenExpired:
		return nil, ErrRefreshExpired
	case domain.TokenRevoked:
		return nil, ErrRefreshRevoked
	}

	if h.ID != nil && h.Secret != "" {
		ok, err := s.issuer.MatchesVerifier(h.Secret, record.TokenHash)
		if err != nil || !ok {
			s.log.Warn().
				Str("refresh_token_id", record.ID.String()).
				Str("user_id", record.UserID.String()).
				Msg("refresh secret does not match token, revoking")
			if err := s.revokeQuietly(ctx, record.ID, now); err != nil {
				return nil, err
			}
			return nil, ErrInvalidRefresh
		}
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}
	if user == nil || !user.IsActive {
		if err := s.revokeQuietly(ctx, record.ID, now); err != nil {
			return nil, err
		}
		return nil, ErrUserNotFound
	}

	successor, secret, err := s.newRecord(now, record.UserID, record.SessionID, &record.ID)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Rotate(ctx, record.ID, now, successor); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRefreshRevoked
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	s.metrics.ObserveRotation()

	return &Redemption{Token: successor, Secret: secret, User: user}, nil
}

// Revoke destroys the token named by h whatever its state and closes the
// session it belongs to. ErrRefreshRevoked means it was already revoked.
func (s *RefreshTokenService) Revoke(ctx context.Context, h RefreshHandle) error {
	if h.empty() {
		return ErrMissingRefreshHandle
	}

	now := s.now()
	record, err := s.resolve(ctx, h, now)
	if err != nil {
		return err
	}

	if err := s.tokens.Revoke(ctx, record.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrRefreshRevoked
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if record.SessionID != nil {
		if err := s.sessions.End(ctx, *record.SessionID, now); err != nil {
			s.log.Warn().Err(err).Str("session_id", record.SessionID.String()).Msg("failed to close session")
		}
	}
	return nil
}

// revokeQuietly revokes id and ignores a token that is already revoked.
func (s *RefreshTokenService) revokeQuietly(ctx context.Context, id uuid.UUID, now time.Time) error {
	err := s.tokens.Revoke(ctx, id, now)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *RefreshTokenService) resolve(ctx context.Context, h RefreshHandle, now time.Time) (*domain.RefreshToken, error) {
	if h.ID == nil {
		return s.findBySecret(ctx, h.Secret, now)
	}

	record, err := s.tokens.GetByID(ctx, *h.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRefreshNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	return record, nil
}

// findBySecret compares secret against each unexpired candidate hash. With
// the fingerprint column the candidate set is narrowed first.
func (s *RefreshTokenService) findBySecret(ctx context.Context, secret string, now time.Time) (*domain.RefreshToken, error) {
	var (
		candidates []*domain.RefreshToken
		err        error
	)
	if s.tokens.Capabilities().RefreshTokenFingerprint {
		candidates, err = s.tokens.ListUnexpiredByFingerprint(ctx, token.Fingerprint(secret), now)
	} else {
		candidates, err = s.tokens.ListUnexpired(ctx, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	for _, candidate := range candidates {
		ok, err := s.issuer.MatchesVerifier(secret, candidate.TokenHash)
		if err != nil {
			s.log.Warn().Err(err).Str("refresh_token_id", candidate.ID.String()).Msg("unreadable refresh token hash")
			continue
		}
		if ok {
			return candidate, nil
		}
	}
	return nil, ErrRefreshNotFound
}

// PurgeStale deletes tokens that expired or were revoked more than retention ago.
func (s *RefreshTokenService) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.tokens.PurgeStale(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	s.metrics.ObservePurged(n)
	return n, nil
}

// RunPurger calls PurgeStale every interval until ctx is done.
func (s *RefreshTokenService) RunPurger(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeStale(ctx, retention)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error().Err(err).Msg("refresh token purge failed")
				}
				continue
			}
			if n > 0 {
				s.log.Info().Int64("deleted", n).Msg("purged stale refresh tokens")
			}
		}
	}
}

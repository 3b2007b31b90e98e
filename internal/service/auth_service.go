package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/password"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/edufam/edufam-backend/internal/token"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Operation names used for metrics and logs.
const (
	OpLogin      = "login"
	OpRefresh    = "refresh"
	OpLogout     = "logout"
	OpIntrospect = "me"
)

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	refresh  *RefreshTokenService
	hasher   *password.Hasher
	issuer   *token.Issuer
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	refresh *RefreshTokenService,
	hasher *password.Hasher,
	issuer *token.Issuer,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		refresh:  refresh,
		hasher:   hasher,
		issuer:   issuer,
		metrics:  m,
		log:      log.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

type LoginInput struct {
	Email    string
	Password string
	Origin   domain.Origin
}

// AuthResult is returned by Login and Refresh. RefreshToken is the plaintext
// secret and is only ever available here.
type AuthResult struct {
	User           domain.UserView
	AccessToken    string
	RefreshTokenID uuid.UUID
	RefreshToken   string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result, err := s.login(ctx, input)
	s.observe(ctx, OpLogin, err)
	return result, err
}

func (s *AuthService) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Unknown users are verified against an empty digest so both failure
	// paths cost one bcrypt comparison.
	digest := ""
	if user != nil {
		digest = user.PasswordHash
	}
	ok, err := s.hasher.Verify(input.Password, digest)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("stored password digest is unreadable")
		return nil, ErrInvalidCredentials
	}
	if user == nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	session := &domain.UserSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		IPAddress: input.Origin.IPAddress,
		UserAgent: input.Origin.UserAgent,
		Metadata:  input.Origin.Metadata(),
		StartedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	record, secret, err := s.refresh.Issue(ctx, user.ID, &session.ID)
	if err != nil {
		return nil, err
	}

	return s.result(user, record.ID, secret)
}

// Refresh rotates the refresh token named by h and mints a new access token.
func (s *AuthService) Refresh(ctx context.Context, h RefreshHandle) (*AuthResult, error) {
	result, err := s.rotate(ctx, h)
	s.observe(ctx, OpRefresh, err)
	return result, err
}

func (s *AuthService) rotate(ctx context.Context, h RefreshHandle) (*AuthResult, error) {
	redemption, err := s.refresh.Redeem(ctx, h)
	if err != nil {
		return nil, err
	}
	return s.result(redemption.User, redemption.Token.ID, redemption.Secret)
}

// Logout revokes the refresh token named by h. A token that is already
// revoked counts as logged out; only a token that never matched is an error.
func (s *AuthService) Logout(ctx context.Context, h RefreshHandle) error {
	err := s.refresh.Revoke(ctx, h)
	if errors.Is(err, ErrRefreshRevoked) {
		err = nil
	}
	s.observe(ctx, OpLogout, err)
	return err
}

// Introspect verifies an access token and returns its live, active owner.
func (s *AuthService) Introspect(ctx context.Context, accessToken string) (*domain.User, error) {
	user, err := s.introspect(ctx, accessToken)
	s.observe(ctx, OpIntrospect, err)
	return user, err
}

func (s *AuthService) introspect(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) result(user *domain.User, refreshID uuid.UUID, secret string) (*AuthResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:           user.View(),
		AccessToken:    accessToken,
		RefreshTokenID: refreshID,
		RefreshToken:   secret,
	}, nil
}

func (s *AuthService) observe(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
		s.metrics.ObserveAuth(op, metrics.OutcomeSuccess)
	case IsAuthFailure(err):
		s.metrics.ObserveAuth(op, metrics.OutcomeFailure)
		zerolog.Ctx(ctx).Debug().Str("operation", op).Str("reason", err.Error()).Msg("auth request rejected")
	default:
		s.metrics.ObserveAuth(op, metrics.OutcomeError)
		s.log.Error().Err(err).Str("operation", op).Msg("auth request failed")
	}
}

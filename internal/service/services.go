package service

import (
	"fmt"

	"github.com/edufam/edufam-backend/internal/config"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/password"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/edufam/edufam-backend/internal/token"
	"github.com/rs/zerolog"
)

type Services struct {
	Auth          *AuthService
	RefreshTokens *RefreshTokenService
	Users         *UserService
	Issuer        *token.Issuer
}

// NewServices wires the auth stack. It fails on a missing signing secret or
// an unusable cost factor, both of which are fatal at startup.
func NewServices(repos *repository.Repositories, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*Services, error) {
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, hasher)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	refresh := NewRefreshTokenService(repos.RefreshToken, repos.User, repos.Session, issuer, cfg.RefreshTokenTTL(), m, log)

	return &Services{
		Auth:          NewAuthService(repos.User, repos.Session, refresh, hasher, issuer, m, log),
		RefreshTokens: refresh,
		Users:         NewUserService(repos.User, repos.School, hasher),
		Issuer:        issuer,
	}, nil
}

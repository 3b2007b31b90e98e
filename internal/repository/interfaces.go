package repository

import (
	"context"
	"errors"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict means a conditional write matched no row because another
	// writer got there first.
	ErrConflict = errors.New("record changed concurrently")
)

// Capabilities describes optional schema features detected once at startup.
type Capabilities struct {
	RefreshTokenFingerprint bool
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SchoolRepository interface {
	Create(ctx context.Context, school *domain.School) error
	GetByName(ctx context.Context, name string) (*domain.School, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	// End sets the end time once; an already ended session is left untouched.
	End(ctx context.Context, id uuid.UUID, at time.Time) error
}

type RefreshTokenRepository interface {
	Capabilities() Capabilities
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error)
	// ListUnexpiredByFingerprint returns unexpired rows matching fingerprint plus
	// rows that have none. It degrades to ListUnexpired without the column.
	ListUnexpiredByFingerprint(ctx context.Context, fingerprint string, now time.Time) ([]*domain.RefreshToken, error)
	ListUnexpired(ctx context.Context, now time.Time) ([]*domain.RefreshToken, error)
	// Revoke marks an unrevoked token revoked. ErrConflict if it was already revoked.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	// Rotate revokes the live predecessor and inserts its successor in one
	// transaction. ErrConflict if the predecessor was no longer live.
	Rotate(ctx context.Context, predecessorID uuid.UUID, at time.Time, successor *domain.RefreshToken) error
	PurgeStale(ctx context.Context, before time.Time) (int64, error)
}

type Repositories struct {
	User         UserRepository
	School       SchoolRepository
	Session      SessionRepository
	RefreshToken RefreshTokenRepository
}

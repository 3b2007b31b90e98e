package service_test

import (
	"context"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRefreshTokenRepo struct {
	mock.Mock
	caps repository.Capabilities
}

func (m *mockRefreshTokenRepo) Capabilities() repository.Capabilities {
	return m.caps
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockRefreshTokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	args := m.Called(ctx, id)
	tok, _ := args.Get(0).(*domain.RefreshToken)
	return tok, args.Error(1)
}

func (m *mockRefreshTokenRepo) ListUnexpiredByFingerprint(ctx context.Context, fingerprint string, now time.Time) ([]*domain.RefreshToken, error) {
	args := m.Called(ctx, fingerprint, now)
	toks, _ := args.Get(0).([]*domain.RefreshToken)
	return toks, args.Error(1)
}

func (m *mockRefreshTokenRepo) ListUnexpired(ctx context.Context, now time.Time) ([]*domain.RefreshToken, error) {
	args := m.Called(ctx, now)
	toks, _ := args.Get(0).([]*domain.RefreshToken)
	return toks, args.Error(1)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockRefreshTokenRepo) Rotate(ctx context.Context, predecessorID uuid.UUID, at time.Time, successor *domain.RefreshToken) error {
	return m.Called(ctx, predecessorID, at, successor).Error(0)
}

func (m *mockRefreshTokenRepo) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, session *domain.UserSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*domain.UserSession)
	return session, args.Error(1)
}

func (m *mockSessionRepo) End(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

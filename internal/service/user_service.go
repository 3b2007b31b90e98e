package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/password"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/google/uuid"
)

// UserService provisions accounts out of band. It backs the operator CLI;
// the HTTP API never creates users.
type UserService struct {
	users   repository.UserRepository
	schools repository.SchoolRepository
	hasher  *password.Hasher
}

func NewUserService(users repository.UserRepository, schools repository.SchoolRepository, hasher *password.Hasher) *UserService {
	return &UserService{users: users, schools: schools, hasher: hasher}
}

type ProvisionInput struct {
	Email     string
	Password  string
	Role      domain.Role
	FirstName string
	LastName  string
	SchoolID  *uuid.UUID
}

// Provision creates the user unless the email is taken, in which case the
// existing record is returned with created=false.
func (s *UserService) Provision(ctx context.Context, input ProvisionInput) (*domain.User, bool, error) {
	if err := password.ValidatePlain(input.Password); err != nil {
		return nil, false, err
	}
	email := domain.NormalizeEmail(input.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: digest,
		Role:         input.Role,
		UserType:     input.Role.UserType(),
		IsActive:     true,
		SchoolID:     input.SchoolID,
		FirstName:    optional(input.FirstName),
		LastName:     optional(input.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, false, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// EnsureSchool returns the school called name, creating it if needed.
func (s *UserService) EnsureSchool(ctx context.Context, name, address string) (*domain.School, error) {
	school, err := s.schools.GetByName(ctx, name)
	if err == nil {
		return school, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	school = &domain.School{ID: uuid.New(), Name: name, Address: optional(address)}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *UserService) Find(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) ResetPassword(ctx context.Context, email, plain string) error {
	if err := password.ValidatePlain(plain); err != nil {
		return err
	}
	user, err := s.Find(ctx, email)
	if err != nil {
		return err
	}

	digest, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = digest
	user.UpdatedAt = time.Now()
	return s.users.Update(ctx, user)
}

func (s *UserService) SetActive(ctx context.Context, email string, active bool) error {
	user, err := s.Find(ctx, email)
	if err != nil {
		return err
	}
	user.IsActive = active
	user.UpdatedAt = time.Now()
	return s.users.Update(ctx, user)
}

func (s *UserService) CheckPassword(ctx context.Context, email, plain string) (bool, error) {
	user, err := s.Find(ctx, email)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(plain, user.PasswordHash)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

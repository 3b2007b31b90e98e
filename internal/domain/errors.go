package domain

import "errors"

// User validation errors
var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidUserType = errors.New("invalid user type")
	ErrRoleMismatch    = errors.New("role does not belong to user type")
)

// Validate checks the invariants a provisioned user must satisfy.
func (u *User) Validate() error {
	if u.Email == "" || u.Email != NormalizeEmail(u.Email) {
		return ErrInvalidEmail
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	if !u.UserType.IsValid() {
		return ErrInvalidUserType
	}
	if u.Role.UserType() != u.UserType {
		return ErrRoleMismatch
	}
	return nil
}

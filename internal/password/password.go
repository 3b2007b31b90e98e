// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Length bounds shared with the login request validation.
const (
	MinLength = 8
	MaxLength = 72
)

var (
	// ErrTooLong is returned for inputs bcrypt cannot hash.
	ErrTooLong  = bcrypt.ErrPasswordTooLong
	ErrTooShort = errors.New("password must be at least 8 characters")
)

// ValidatePlain rejects passwords that could never pass login validation.
// Length is counted in characters; bcrypt's 72 byte ceiling also applies.
func ValidatePlain(plain string) error {
	n := utf8.RuneCountInString(plain)
	switch {
	case n < MinLength:
		return ErrTooShort
	case n > MaxLength || len(plain) > MaxLength:
		return ErrTooLong
	}
	return nil
}

// Hasher hashes and verifies secrets at a fixed bcrypt cost.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns a Hasher at cost. The dummy digest lets Verify spend the
// same time on unknown accounts as on known ones.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("edufam-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy digest: %w", err)
	}

	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. An empty digest is checked
// against the dummy and always fails. A malformed digest is an error, not a
// mismatch.
func (h *Hasher) Verify(plain, digest string) (bool, error) {
	if digest == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to verify digest: %w", err)
	}
}

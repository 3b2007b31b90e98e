package postgres

import (
	"errors"

	"github.com/edufam/edufam-backend/internal/repository"
	"gorm.io/gorm"
)

// translate maps driver-level errors onto the repository sentinels so nothing
// above this package has to know about GORM.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	default:
		return err
	}
}

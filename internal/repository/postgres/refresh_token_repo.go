package postgres

import (
	"context"
	"time"

	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const fingerprintField = "TokenFingerprint"

type refreshTokenRepository struct {
	db   *gorm.DB
	caps repository.Capabilities
}

// NewRefreshTokenRepository returns a repository that never references the
// fingerprint column unless caps says it exists.
func NewRefreshTokenRepository(db *gorm.DB, caps repository.Capabilities) *refreshTokenRepository {
	return &refreshTokenRepository{db: db, caps: caps}
}

func (r *refreshTokenRepository) Capabilities() repository.Capabilities {
	return r.caps
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return translate(r.insert(r.db.WithContext(ctx), token))
}

func (r *refreshTokenRepository) insert(tx *gorm.DB, token *domain.RefreshToken) error {
	if !r.caps.RefreshTokenFingerprint {
		token.TokenFingerprint = nil
		tx = tx.Omit(fingerprintField)
	}
	return tx.Create(token).Error
}

func (r *refreshTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *refreshTokenRepository) ListUnexpiredByFingerprint(ctx context.Context, fingerprint string, now time.Time) ([]*domain.RefreshToken, error) {
	if !r.caps.RefreshTokenFingerprint {
		return r.ListUnexpired(ctx, now)
	}

	// Rows written before the column existed carry no fingerprint and stay
	// candidates; fingerprinted matches sort first.
	var tokens []*domain.RefreshToken
	err := r.db.WithContext(ctx).
		Where("(token_fingerprint = ? OR token_fingerprint IS NULL) AND expires_at > ?", fingerprint, now).
		Order("token_fingerprint IS NULL, created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

func (r *refreshTokenRepository) ListUnexpired(ctx context.Context, now time.Time) ([]*domain.RefreshToken, error) {
	var tokens []*domain.RefreshToken
	err := r.db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, predecessorID uuid.UUID, at time.Time, successor *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL AND expires_at > ?", predecessorID, at).
			Update("revoked_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrConflict
		}

		return translate(r.insert(tx, successor))
	})
}

// PurgeStale deletes tokens that expired or were revoked before the cutoff.
func (r *refreshTokenRepository) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", before, before).
		Delete(&domain.RefreshToken{})
	return result.RowsAffected, result.Error
}

package postgres

import (
	"context"

	"github.com/edufam/edufam-backend/internal/domain"
	"gorm.io/gorm"
)

type schoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) Create(ctx context.Context, school *domain.School) error {
	return translate(r.db.WithContext(ctx).Create(school).Error)
}

func (r *schoolRepository) GetByName(ctx context.Context, name string) (*domain.School, error) {
	var school domain.School
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("created_at").First(&school).Error
	if err != nil {
		return nil, translate(err)
	}
	return &school, nil
}

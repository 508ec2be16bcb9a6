package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// CompletionFilter narrows completion queries.
type CompletionFilter struct {
	Activity string
	Limit    int
}

// CompletionRepository stores finished checklist runs.
type CompletionRepository interface {
	Create(ctx context.Context, record *models.CompletionRecord) error
	List(ctx context.Context, filter CompletionFilter) ([]models.CompletionRecord, error)
	Delete(ctx context.Context, id uint) error
}

type completionRepository struct {
	db *gorm.DB
}

// NewCompletionRepository constructs the completion repository.
func NewCompletionRepository(db *gorm.DB) CompletionRepository {
	return &completionRepository{db: db}
}

func (r *completionRepository) Create(ctx context.Context, record *models.CompletionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *completionRepository) List(ctx context.Context, filter CompletionFilter) ([]models.CompletionRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.CompletionRecord{})
	if filter.Activity != "" {
		query = query.Where("activity = ?", filter.Activity)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []models.CompletionRecord
	if err := query.Order("completed_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *completionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CompletionRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

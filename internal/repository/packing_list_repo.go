package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// PackingListRepository stores checklist item definitions.
type PackingListRepository interface {
	Find(ctx context.Context, activity, listType string) (*models.PackingList, error)
	Upsert(ctx context.Context, list *models.PackingList) error
}

type packingListRepository struct {
	db *gorm.DB
}

// NewPackingListRepository constructs the packing list repository.
func NewPackingListRepository(db *gorm.DB) PackingListRepository {
	return &packingListRepository{db: db}
}

func (r *packingListRepository) Find(ctx context.Context, activity, listType string) (*models.PackingList, error) {
	var list models.PackingList
	err := r.db.WithContext(ctx).
		Where("activity = ? AND list_type = ?", activity, listType).
		First(&list).Error
	if err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

func (r *packingListRepository) Upsert(ctx context.Context, list *models.PackingList) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "activity"}, {Name: "list_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "items", "updated_at"}),
	}).Create(list).Error
}

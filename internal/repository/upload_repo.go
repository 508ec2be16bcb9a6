package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// UploadRepository persists metadata about uploaded files.
type UploadRepository interface {
	Upsert(ctx context.Context, record *models.UploadRecord) error
	Find(ctx context.Context, bucket, fileName string) (*models.UploadRecord, error)
	ListByBucket(ctx context.Context, bucket string) ([]models.UploadRecord, error)
	Delete(ctx context.Context, id uint) error
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload records.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Upsert(ctx context.Context, record *models.UploadRecord) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bucket"}, {Name: "file_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"storage_key", "url", "mime_type", "size_bytes", "checksum", "uploaded_by", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return err
	}

	stored, err := r.Find(ctx, record.Bucket, record.FileName)
	if err != nil {
		return err
	}
	*record = *stored
	return nil
}

func (r *uploadRepository) Find(ctx context.Context, bucket, fileName string) (*models.UploadRecord, error) {
	var record models.UploadRecord
	err := r.db.WithContext(ctx).
		Where("bucket = ? AND file_name = ?", bucket, fileName).
		First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func (r *uploadRepository) ListByBucket(ctx context.Context, bucket string) ([]models.UploadRecord, error) {
	var records []models.UploadRecord
	err := r.db.WithContext(ctx).
		Where("bucket = ?", bucket).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *uploadRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.UploadRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

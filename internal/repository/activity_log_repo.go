package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// ActivityLogFilter narrows the audit viewer. Zero values match everything;
// From is inclusive and To exclusive.
type ActivityLogFilter struct {
	Page     int
	PageSize int
	Email    string
	Action   string
	From     time.Time
	To       time.Time
}

func (f ActivityLogFilter) apply(db *gorm.DB) *gorm.DB {
	if email := strings.ToLower(strings.TrimSpace(f.Email)); email != "" {
		db = db.Where("LOWER(user_email) LIKE ?", "%"+email+"%")
	}
	if action := strings.TrimSpace(f.Action); action != "" {
		db = db.Where("action = ?", strings.ToUpper(action))
	}
	if !f.From.IsZero() {
		db = db.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		db = db.Where("created_at < ?", f.To)
	}
	return db
}

func (f ActivityLogFilter) paginate(db *gorm.DB) *gorm.DB {
	if f.PageSize <= 0 {
		return db
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * f.PageSize).Limit(f.PageSize)
}

// ActivityLogRepository persists audit trail events.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
	Delete(ctx context.Context, id uint) error
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository returns the gorm-backed audit store.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns one page, newest first, together with the unpaged total.
func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	scoped := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(filter.apply)

	var total int64
	if err := scoped.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.ActivityLog{}, 0, nil
	}

	entries := make([]models.ActivityLog, 0)
	err := scoped.Scopes(filter.paginate).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *activityLogRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ActivityLog{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

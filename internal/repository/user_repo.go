package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// UserRepository persists console accounts and their profiles.
type UserRepository interface {
	Create(ctx context.Context, user *models.UserProfile) error
	GetUser(ctx context.Context, id string) (*models.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	List(ctx context.Context) ([]models.UserProfile, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
	UpdateName(ctx context.Context, id, name string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.UserProfile) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var existing int64
	if err := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrConflict
	}

	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var user models.UserProfile
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).First(&user, "email = ?", normalized).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.UserProfile, error) {
	var users []models.UserProfile
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.UserProfile{}).Count(&total).Error
	return total, err
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	return r.update(ctx, id, "role", role)
}

func (r *userRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.update(ctx, id, "name", name)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, id, "password_hash", passwordHash)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, "last_login_at", at)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.UserProfile{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) update(ctx context.Context, id, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

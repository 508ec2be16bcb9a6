package dto

import (
	"time"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityListRequest defines filters for the activity log viewer.
type ActivityListRequest struct {
	Page     int    `validate:"gte=0"`
	PageSize int    `validate:"gte=0,lte=200"`
	Email    string `validate:"omitempty,max=255"`
	Action   string `validate:"omitempty,max=64"`
	From     time.Time
	To       time.Time
}

// ActivityLogResponse serializes one audit entry.
type ActivityLogResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Action    string    `json:"action"`
	Page      string    `json:"page,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewActivityLogResponse maps a model to its response.
func NewActivityLogResponse(entry models.ActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		UserEmail: entry.UserEmail,
		Action:    entry.Action,
		Page:      entry.Page,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
}

// ActivityListResponse wraps a paginated activity response.
type ActivityListResponse struct {
	Items      []ActivityLogResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// UserCreateRequest creates a console account.
type UserCreateRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"omitempty,max=255"`
	Role     string `json:"role" validate:"required,oneof=INSTRUCTOR GAMEMASTER ADMIN"`
}

// UserRoleUpdateRequest changes an account's role.
type UserRoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=INSTRUCTOR GAMEMASTER ADMIN"`
}

// UserNameUpdateRequest changes an account's display name.
type UserNameUpdateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UserPasswordUpdateRequest sets a new password.
type UserPasswordUpdateRequest struct {
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// UserResponse serializes an account without credentials.
type UserResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Role        models.Role `json:"role"`
	CreatedAt   time.Time   `json:"created_at"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
}

// NewUserResponse maps a profile to its response.
func NewUserResponse(user models.UserProfile) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// NewUserResponseSlice maps profiles to responses.
func NewUserResponseSlice(users []models.UserProfile) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}

// CompletionListRequest filters the completion history.
type CompletionListRequest struct {
	Activity string `validate:"omitempty,max=64"`
	Limit    int    `validate:"gte=0,lte=100"`
}

// PackingListUpsertRequest replaces the item definition of a checklist.
type PackingListUpsertRequest struct {
	Title string                   `json:"title" validate:"omitempty,max=255"`
	Items []map[string]interface{} `json:"items" validate:"required,min=1"`
}

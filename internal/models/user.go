package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is a permission level in the console.
type Role string

const (
	RoleInstructor Role = "INSTRUCTOR"
	RoleGamemaster Role = "GAMEMASTER"
	RoleAdmin      Role = "ADMIN"
)

var roleLevels = map[Role]int{
	RoleInstructor: 1,
	RoleGamemaster: 2,
	RoleAdmin:      3,
}

// Level returns the position of the role in the hierarchy. Unknown roles are 0.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role is part of the hierarchy.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// ParseRole normalises a role name.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}

// Roles lists the hierarchy from least to most privileged.
func Roles() []Role {
	return []Role{RoleInstructor, RoleGamemaster, RoleAdmin}
}

// UserProfile is a console account.
type UserProfile struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"size:255" json:"name,omitempty"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// TableName pins the users table name.
func (UserProfile) TableName() string {
	return "users"
}

// DisplayName falls back to the email when no name is set.
func (u UserProfile) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

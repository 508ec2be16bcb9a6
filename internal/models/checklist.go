package models

import (
	"time"

	"gorm.io/datatypes"
)

// PackingList stores the item definitions of one checklist type.
type PackingList struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Activity  string         `gorm:"size:64;not null;uniqueIndex:idx_packing_list_key" json:"activity"`
	ListType  string         `gorm:"size:64;not null;uniqueIndex:idx_packing_list_key" json:"list_type"`
	Title     string         `gorm:"size:255" json:"title"`
	Items     datatypes.JSON `gorm:"type:json" json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CompletionRecord is the immutable snapshot of one fully checked run.
type CompletionRecord struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Activity        string     `gorm:"size:64;index;not null" json:"activity"`
	ListType        string     `gorm:"size:64;not null" json:"list_type"`
	CompletedBy     string     `gorm:"size:255;not null" json:"completed_by"`
	CompletedByName string     `gorm:"size:255" json:"completed_by_name"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     time.Time  `gorm:"index;not null" json:"completed_at"`
	DurationSeconds int64      `gorm:"not null" json:"duration_seconds"`
	ItemsChecked    int        `gorm:"not null" json:"items_checked"`
	ItemsTotal      int        `gorm:"not null" json:"items_total"`
}

// TableName pins the completions table name.
func (CompletionRecord) TableName() string {
	return "packing_list_completions"
}

package models

import "time"

// UploadRecord tracks a reference file stored in object storage.
type UploadRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Bucket     string    `gorm:"size:128;not null;uniqueIndex:idx_upload_bucket_name" json:"bucket"`
	FileName   string    `gorm:"size:255;not null;uniqueIndex:idx_upload_bucket_name" json:"file_name"`
	StorageKey string    `gorm:"size:512;not null" json:"-"`
	URL        string    `gorm:"size:1024;not null" json:"url"`
	MimeType   string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes  int64     `gorm:"not null" json:"size_bytes"`
	Checksum   string    `gorm:"size:128;index" json:"checksum"`
	UploadedBy string    `gorm:"size:255" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

package dto

import (
	"time"

	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/pkg/ai"
)

// UploadResponse describes the stored asset metadata returned to the client.
type UploadResponse struct {
	ID         uint      `json:"id"`
	Bucket     string    `json:"bucket"`
	FileName   string    `json:"file_name"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"size_bytes"`
	MimeType   string    `json:"mime_type"`
	Checksum   string    `json:"checksum"`
	UploadedBy string    `json:"uploaded_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUploadResponse maps a record to its response.
func NewUploadResponse(record models.UploadRecord) UploadResponse {
	return UploadResponse{
		ID:         record.ID,
		Bucket:     record.Bucket,
		FileName:   record.FileName,
		URL:        record.URL,
		SizeBytes:  record.SizeBytes,
		MimeType:   record.MimeType,
		Checksum:   record.Checksum,
		UploadedBy: record.UploadedBy,
		UpdatedAt:  record.UpdatedAt,
	}
}

// IdeaCreateRequest submits an idea.
type IdeaCreateRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// IdeaResponse serializes an idea with its vote state for the caller.
type IdeaResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Votes     int       `json:"votes"`
	Voted     bool      `json:"voted"`
	CanDelete bool      `json:"can_delete"`
}

// AssistantRequest is a conversation to continue.
type AssistantRequest struct {
	Messages []ai.Message `json:"messages" validate:"required,min=1,max=40,dive"`
}

// AssistantResponse is the assistant's reply.
type AssistantResponse struct {
	Message ai.Message `json:"message"`
	Model   string     `json:"model"`
}

// DistanceRequest asks for the route to a destination.
type DistanceRequest struct {
	Origin      string   `json:"origin" validate:"omitempty,max=64"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Destination string   `json:"destination" validate:"required,max=255"`
}

// OriginResponse is a predefined origin.
type OriginResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// DistanceResponse summarises a route.
type DistanceResponse struct {
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	DistanceKM      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	Summary         string  `json:"summary"`
}

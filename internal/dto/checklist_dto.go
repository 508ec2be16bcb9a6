package dto

import (
	"time"

	"github.com/noah-isme/occ-console-api/internal/checklist"
)

// ChecklistSessionResponse is the persisted run state.
type ChecklistSessionResponse struct {
	CheckedIDs     []string   `json:"checked_ids"`
	StartTime      *time.Time `json:"start_time"`
	CurrentSection int        `json:"current_section"`
}

// ChecklistViewResponse is everything the UI needs to render a checklist.
type ChecklistViewResponse struct {
	Activity        string                   `json:"activity"`
	ListType        string                   `json:"list_type"`
	Title           string                   `json:"title"`
	Sections        []checklist.Section      `json:"sections"`
	Session         ChecklistSessionResponse `json:"session"`
	Progress        checklist.Progress       `json:"progress"`
	SectionProgress checklist.Progress       `json:"section_progress"`
	ElapsedSeconds  int64                    `json:"elapsed_seconds"`
}

// NavigateRequest moves to a section.
type NavigateRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

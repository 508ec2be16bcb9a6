package checklist

import (
	"time"

	"github.com/noah-isme/occ-console-api/internal/models"
)

// Completer identifies who finished a run.
type Completer struct {
	Email string
	Name  string
}

// NewCompletion snapshots the run. Callers are expected to gate on 100%
// progress; an early call records whatever the counts are at that moment.
func NewCompletion(list *List, s *Session, who Completer, now time.Time) models.CompletionRecord {
	progress := ComputeProgress(s, list.Items)

	email := who.Email
	if email == "" {
		email = "unknown"
	}
	name := who.Name
	if name == "" {
		name = email
	}

	return models.CompletionRecord{
		Activity:        list.Key.Activity,
		ListType:        list.Key.ListType,
		CompletedBy:     email,
		CompletedByName: name,
		StartedAt:       s.StartTime(),
		CompletedAt:     now,
		DurationSeconds: s.Elapsed(now),
		ItemsChecked:    progress.Checked,
		ItemsTotal:      progress.Total,
	}
}

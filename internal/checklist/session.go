package checklist

import (
	"math"
	"sort"
	"time"
)

// Session is the mutable state of one run through a checklist.
type Session struct {
	checked        map[string]struct{}
	startTime      *time.Time
	currentSection int
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{checked: make(map[string]struct{})}
}

// CheckedIDs returns the checked ids in sorted order.
func (s *Session) CheckedIDs() []string {
	ids := make([]string, 0, len(s.checked))
	for id := range s.checked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsChecked reports whether id is checked.
func (s *Session) IsChecked(id string) bool {
	_, ok := s.checked[id]
	return ok
}

// StartTime returns the time of the first interaction, if any.
func (s *Session) StartTime() *time.Time {
	if s.startTime == nil {
		return nil
	}
	t := *s.startTime
	return &t
}

// CurrentSection returns the navigation index.
func (s *Session) CurrentSection() int {
	return s.currentSection
}

// touch records the start of the run on first interaction.
func (s *Session) touch(now time.Time) {
	if s.startTime == nil {
		t := now
		s.startTime = &t
	}
}

// Toggle flips the membership of id. Ids unknown to list are ignored apart
// from starting the run.
func (s *Session) Toggle(now time.Time, list *List, id string) {
	s.touch(now)
	if !list.Knows(id) {
		return
	}
	if _, ok := s.checked[id]; ok {
		delete(s.checked, id)
		return
	}
	s.checked[id] = struct{}{}
}

// CheckAll adds every given item.
func (s *Session) CheckAll(now time.Time, items []Item) {
	s.touch(now)
	for _, item := range items {
		if !item.IsDivider {
			s.checked[item.ID] = struct{}{}
		}
	}
}

// UncheckAll removes every given item.
func (s *Session) UncheckAll(now time.Time, items []Item) {
	s.touch(now)
	s.ResetSection(items)
}

// ResetSection removes the given items without touching the start time.
func (s *Session) ResetSection(items []Item) {
	for _, item := range items {
		delete(s.checked, item.ID)
	}
}

// ResetAll clears the run entirely and returns to the first section.
func (s *Session) ResetAll() {
	s.checked = make(map[string]struct{})
	s.startTime = nil
	s.currentSection = 0
}

// Navigate moves to index, clamped to [0, sectionCount).
func (s *Session) Navigate(index, sectionCount int) {
	if sectionCount <= 0 || index < 0 {
		s.currentSection = 0
		return
	}
	if index >= sectionCount {
		index = sectionCount - 1
	}
	s.currentSection = index
}

// Prune drops checked ids the list no longer knows and reports how many were removed.
func (s *Session) Prune(list *List) int {
	removed := 0
	for id := range s.checked {
		if !list.Knows(id) {
			delete(s.checked, id)
			removed++
		}
	}
	return removed
}

// Elapsed returns whole seconds since the run started, 0 when it has not.
func (s *Session) Elapsed(now time.Time) int64 {
	if s.startTime == nil {
		return 0
	}
	seconds := int64(math.Floor(now.Sub(*s.startTime).Seconds()))
	if seconds < 0 {
		return 0
	}
	return seconds
}

// Progress is a checked/total ratio.
type Progress struct {
	Checked int `json:"checked"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Complete reports whether every item is checked.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Checked >= p.Total
}

// ComputeProgress counts the checked items among items. A zero total yields 0%.
func ComputeProgress(s *Session, items []Item) Progress {
	progress := Progress{}
	for _, item := range items {
		if item.IsDivider {
			continue
		}
		progress.Total++
		if s.IsChecked(item.ID) {
			progress.Checked++
		}
	}
	if progress.Total > 0 {
		progress.Percent = int(math.Round(100 * float64(progress.Checked) / float64(progress.Total)))
	}
	return progress
}

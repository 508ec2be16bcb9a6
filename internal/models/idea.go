package models

import "time"

// Idea is an entry on the idea board. The board is stored as a single blob,
// so Idea carries no gorm mapping.
type Idea struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"author_email"`
	CreatedAt   time.Time `json:"created_at"`
	VotedBy     []string  `json:"voted_by"`
}

// Votes is the number of distinct voters.
func (i Idea) Votes() int {
	return len(i.VotedBy)
}

// HasVoted reports whether email has voted for the idea.
func (i Idea) HasVoted(email string) bool {
	for _, voter := range i.VotedBy {
		if voter == email {
			return true
		}
	}
	return false
}

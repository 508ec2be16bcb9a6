package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/occ-console-api/internal/models"
)

const (
	ideaBoardKey     = "occ:ideas"
	ideaBoardVersion = 1
	ideaMaxAttempts  = 5
)

// ErrIdeaBoardBusy is returned when concurrent writers keep invalidating an update.
var ErrIdeaBoardBusy = errors.New("idea board is busy, please retry")

// IdeaStore keeps the whole idea board as one versioned document.
type IdeaStore interface {
	Load(ctx context.Context) ([]models.Idea, error)
	// Update applies fn to the current board and stores the result atomically.
	Update(ctx context.Context, fn func([]models.Idea) ([]models.Idea, error)) error
}

type ideaEnvelope struct {
	Version int           `json:"version"`
	Ideas   []models.Idea `json:"ideas"`
}

type redisIdeaStore struct {
	client *redis.Client
}

// NewIdeaStore constructs a redis-backed idea board.
func NewIdeaStore(client *redis.Client) IdeaStore {
	return &redisIdeaStore{client: client}
}

func (s *redisIdeaStore) Load(ctx context.Context) ([]models.Idea, error) {
	data, err := s.client.Get(ctx, ideaBoardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Idea{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}
	return decodeIdeas(data)
}

func (s *redisIdeaStore) Update(ctx context.Context, fn func([]models.Idea) ([]models.Idea, error)) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, ideaBoardKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("load ideas: %w", err)
		}

		ideas := []models.Idea{}
		if len(data) > 0 {
			if ideas, err = decodeIdeas(data); err != nil {
				return err
			}
		}

		updated, err := fn(ideas)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(ideaEnvelope{Version: ideaBoardVersion, Ideas: updated})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ideaBoardKey, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < ideaMaxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, ideaBoardKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrIdeaBoardBusy
}

// legacyIdea is the unversioned board format kept by earlier clients.
type legacyIdea struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	Timestamp   time.Time `json:"timestamp"`
	VotedBy     []string  `json:"votedBy"`
}

// decodeIdeas accepts the versioned envelope and the legacy bare array.
func decodeIdeas(data []byte) ([]models.Idea, error) {
	var legacy []legacyIdea
	if err := json.Unmarshal(data, &legacy); err == nil {
		ideas := make([]models.Idea, 0, len(legacy))
		for _, idea := range legacy {
			ideas = append(ideas, models.Idea{
				ID:          idea.ID,
				Text:        idea.Text,
				Author:      idea.Author,
				AuthorEmail: idea.AuthorEmail,
				CreatedAt:   idea.Timestamp,
				VotedBy:     idea.VotedBy,
			})
		}
		return normalizeIdeas(ideas), nil
	}

	var envelope ideaEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode ideas: %w", err)
	}
	if envelope.Version > ideaBoardVersion {
		return nil, fmt.Errorf("decode ideas: unsupported version %d", envelope.Version)
	}
	return normalizeIdeas(envelope.Ideas), nil
}

func normalizeIdeas(ideas []models.Idea) []models.Idea {
	if ideas == nil {
		return []models.Idea{}
	}
	for i := range ideas {
		if ideas[i].VotedBy == nil {
			ideas[i].VotedBy = []string{}
		}
	}
	return ideas
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/occ-console-api/internal/checklist"
)

// ChecklistStateStore persists per-user checklist progress.
type ChecklistStateStore interface {
	Load(ctx context.Context, key checklist.Key, userID string) (*checklist.Session, error)
	Save(ctx context.Context, key checklist.Key, userID string, session *checklist.Session) error
	Delete(ctx context.Context, key checklist.Key, userID string) error
}

type redisChecklistStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewChecklistStateStore constructs a redis-backed state store. A zero ttl
// keeps state until it is reset or completed.
func NewChecklistStateStore(client *redis.Client, ttl time.Duration) ChecklistStateStore {
	return &redisChecklistStateStore{client: client, ttl: ttl}
}

// ChecklistStateKey is the redis key holding one user's progress on one list.
func ChecklistStateKey(key checklist.Key, userID string) string {
	return fmt.Sprintf("occ:checklist:%s:%s:%s", key.Activity, key.ListType, userID)
}

func (s *redisChecklistStateStore) Load(ctx context.Context, key checklist.Key, userID string) (*checklist.Session, error) {
	data, err := s.client.Get(ctx, ChecklistStateKey(key, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return checklist.NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checklist state: %w", err)
	}
	return checklist.DecodeState(data)
}

func (s *redisChecklistStateStore) Save(ctx context.Context, key checklist.Key, userID string, session *checklist.Session) error {
	payload, err := checklist.EncodeState(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, ChecklistStateKey(key, userID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save checklist state: %w", err)
	}
	return nil
}

func (s *redisChecklistStateStore) Delete(ctx context.Context, key checklist.Key, userID string) error {
	if err := s.client.Del(ctx, ChecklistStateKey(key, userID)).Err(); err != nil {
		return fmt.Errorf("delete checklist state: %w", err)
	}
	return nil
}

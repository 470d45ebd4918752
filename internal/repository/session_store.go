package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rithvik985/situated-learning-api/internal/workflow"
)

// ErrSessionNotFound is returned when no workflow session exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists workflow sessions between requests.
type SessionStore interface {
	Load(ctx context.Context, id string) (*workflow.Session, error)
	Save(ctx context.Context, session *workflow.Session) error
	Delete(ctx context.Context, id string) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store. Sessions idle past
// the TTL expire; every save refreshes the clock.
func NewSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "sitlearn:session:" + id
}

func (s *redisSessionStore) Load(ctx context.Context, id string) (*workflow.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session workflow.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &session, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session *workflow.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Package redis implements session.Store on Redis, keeping each session's
// turn log in a list so appends preserve order.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/answerforge/answerforge/session"
)

// Config holds Redis configuration for sessions.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultConfig returns default Redis configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   "localhost:6379",
		Prefix: "answerforge:session:",
		TTL:    24 * time.Hour,
	}
}

// Store implements session.Store using Redis lists.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a new Redis-based session store.
func New(config *Config) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Prefix == "" {
		config.Prefix = "answerforge:session:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &Store{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// AppendTurn appends a turn to the session list.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn session.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	raw, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := s.turnsKey(sessionID)
	if err := s.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh session TTL: %w", err)
		}
	}
	if err := s.client.SAdd(ctx, s.indexKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to add session to index: %w", err)
	}
	return nil
}

// History returns all turns for the session in append order.
func (s *Store) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	raws, err := s.client.LRange(ctx, s.turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	turns := make([]session.Turn, 0, len(raws))
	for _, raw := range raws {
		var turn session.Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, fmt.Errorf("failed to decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Sessions lists known session IDs.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Delete removes a session and its turns.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.turnsKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.client.SRem(ctx, s.indexKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) turnsKey(sessionID string) string {
	return s.prefix + "turns:" + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

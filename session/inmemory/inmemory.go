package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/answerforge/answerforge/session"
)

// Store implements session.Store with in-process maps.
type Store struct {
	mu    sync.RWMutex
	turns map[string][]session.Turn
}

// New creates a new in-memory session store
func New() *Store {
	return &Store{
		turns: make(map[string][]session.Turn),
	}
}

// AppendTurn appends a turn to the session log
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn session.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return nil
}

// History returns all turns for the session in append order
func (s *Store) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[sessionID]
	out := make([]session.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Sessions lists known session IDs
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.turns))
	for id := range s.turns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a session and its turns
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}

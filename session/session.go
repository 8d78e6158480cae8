// Package session defines the append-only conversation log keyed by session
// ID. Turns are never rewritten; history is returned oldest first.
package session

import (
	"context"
	"time"
)

// Turn is a single completed query/answer exchange.
type Turn struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Route     string    `json:"route,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation turns. Implementations must be safe for
// concurrent use; appends to distinct sessions must not interleave state.
type Store interface {
	// AppendTurn appends a turn to the session log, creating the session
	// on first use.
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error

	// History returns all turns for the session in append order. A session
	// with no turns yields an empty slice, not an error.
	History(ctx context.Context, sessionID string) ([]Turn, error)

	// Sessions lists known session IDs.
	Sessions(ctx context.Context) ([]string, error)

	// Delete removes a session and its turns.
	Delete(ctx context.Context, sessionID string) error
}

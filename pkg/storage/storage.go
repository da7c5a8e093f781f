package storage

import (
	"context"

	"github.com/jwebster45206/quest-weaver/pkg/session"
)

// Storage persists sessions and their locks.
// LoadSession returns session.ErrSessionNotFound for unknown ids.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	session.Store
}

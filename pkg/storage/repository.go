// Package storage persists pipeline state: which messages have been
// processed, and the mapping from source messages to the calendar events
// they produced. Three backends are provided; the file backend is the
// default and needs no external services.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/catht823/journal-club-calendar-bot/config"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// EventMap links a processed message to the calendar event created or
// updated for it. Update and cancellation messages use it to find the event
// they refer to.
type EventMap struct {
	MessageID string    `json:"message_id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository is the pipeline's persistence interface.
type Repository interface {
	// IsProcessed reports whether the message was already handled,
	// including messages recorded as processed-with-no-event.
	IsProcessed(ctx context.Context, messageID string) (bool, error)

	// MarkProcessed records a message as handled so it is never retried.
	MarkProcessed(ctx context.Context, messageID string) error

	// SaveEventMap upserts the message-to-event mapping.
	SaveEventMap(ctx context.Context, m EventMap) error

	// GetEventMap returns the mapping for a message, or ErrNotFound.
	GetEventMap(ctx context.Context, messageID string) (*EventMap, error)

	// ListEventMaps returns all known mappings. Used by update and
	// cancellation handling to match an original-event reference.
	ListEventMaps(ctx context.Context) ([]EventMap, error)

	// DeleteEventMap removes the mapping for a message. Deleting an absent
	// mapping is not an error.
	DeleteEventMap(ctx context.Context, messageID string) error

	// Close releases backend resources.
	Close() error
}

// Open builds the Repository selected by the storage configuration.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (Repository, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		path, err := cfg.StatePath()
		if err != nil {
			return nil, fmt.Errorf("resolving state path: %w", err)
		}
		return NewFileRepository(path, log)
	case "postgres":
		return NewPostgresRepository(ctx, cfg.Storage.Postgres.ConnectionString(), log)
	case "redis":
		return NewRedisRepository(ctx, cfg.Storage.Redis, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

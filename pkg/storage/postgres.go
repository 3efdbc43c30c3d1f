package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// PostgresRepository stores pipeline state in PostgreSQL. The schema is
// created on first use; both tables are tiny and append-mostly.
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS processed_messages (
	message_id   TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS event_maps (
	message_id TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// NewPostgresRepository connects to PostgreSQL and ensures the schema
// exists. Credentials come from the standard PG* environment variables or
// the connection string.
func NewPostgresRepository(ctx context.Context, connString string, log logging.Logger) (*PostgresRepository, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if connString == "" {
		return nil, fmt.Errorf("postgres connection string is empty")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	log.Debug("connected to postgres state store")
	return &PostgresRepository{pool: pool, log: log}, nil
}

func (r *PostgresRepository) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)`,
		messageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking processed state: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, messageID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO processed_messages (message_id) VALUES ($1)
		 ON CONFLICT (message_id) DO NOTHING`,
		messageID)
	if err != nil {
		return fmt.Errorf("marking processed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveEventMap(ctx context.Context, m EventMap) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_maps (message_id, event_id, title, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (message_id) DO UPDATE
		 SET event_id = EXCLUDED.event_id, title = EXCLUDED.title, updated_at = now()`,
		m.MessageID, m.EventID, m.Title)
	if err != nil {
		return fmt.Errorf("saving event map: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetEventMap(ctx context.Context, messageID string) (*EventMap, error) {
	var m EventMap
	err := r.pool.QueryRow(ctx,
		`SELECT message_id, event_id, title, updated_at FROM event_maps WHERE message_id = $1`,
		messageID).Scan(&m.MessageID, &m.EventID, &m.Title, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jcerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading event map: %w", err)
	}
	return &m, nil
}

func (r *PostgresRepository) ListEventMaps(ctx context.Context) ([]EventMap, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT message_id, event_id, title, updated_at FROM event_maps`)
	if err != nil {
		return nil, fmt.Errorf("listing event maps: %w", err)
	}
	defer rows.Close()

	var out []EventMap
	for rows.Next() {
		var m EventMap
		if err := rows.Scan(&m.MessageID, &m.EventID, &m.Title, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning event map: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeleteEventMap(ctx context.Context, messageID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM event_maps WHERE message_id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("deleting event map: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

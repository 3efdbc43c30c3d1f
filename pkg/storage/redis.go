package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/catht823/journal-club-calendar-bot/config"
	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// Redis key layout.
const (
	keyProcessed = "jcbot:processed" // set of message IDs
	keyEvents    = "jcbot:events"    // hash message ID -> EventMap JSON
)

// RedisRepository stores pipeline state in Redis, for deployments that
// already run one next to the bot.
type RedisRepository struct {
	client *redis.Client
	log    logging.Logger
}

// NewRedisRepository connects to Redis and verifies the connection.
func NewRedisRepository(ctx context.Context, cfg *config.RedisConfig, log logging.Logger) (*RedisRepository, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("redis address is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Debug("connected to redis state store", logging.F("address", cfg.Address))
	return &RedisRepository{client: client, log: log}, nil
}

func (r *RedisRepository) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, keyProcessed, messageID).Result()
	if err != nil {
		return false, fmt.Errorf("checking processed state: %w", err)
	}
	return ok, nil
}

func (r *RedisRepository) MarkProcessed(ctx context.Context, messageID string) error {
	if err := r.client.SAdd(ctx, keyProcessed, messageID).Err(); err != nil {
		return fmt.Errorf("marking processed: %w", err)
	}
	return nil
}

func (r *RedisRepository) SaveEventMap(ctx context.Context, m EventMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling event map: %w", err)
	}
	if err := r.client.HSet(ctx, keyEvents, m.MessageID, data).Err(); err != nil {
		return fmt.Errorf("saving event map: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetEventMap(ctx context.Context, messageID string) (*EventMap, error) {
	data, err := r.client.HGet(ctx, keyEvents, messageID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, jcerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading event map: %w", err)
	}

	var m EventMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing event map: %w", err)
	}
	return &m, nil
}

func (r *RedisRepository) ListEventMaps(ctx context.Context) ([]EventMap, error) {
	all, err := r.client.HGetAll(ctx, keyEvents).Result()
	if err != nil {
		return nil, fmt.Errorf("listing event maps: %w", err)
	}

	out := make([]EventMap, 0, len(all))
	for _, raw := range all {
		var m EventMap
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("parsing event map: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *RedisRepository) DeleteEventMap(ctx context.Context, messageID string) error {
	if err := r.client.HDel(ctx, keyEvents, messageID).Err(); err != nil {
		return fmt.Errorf("deleting event map: %w", err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

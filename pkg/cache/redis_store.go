package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
)

// RedisStore implements ResultStore using Redis. Records are stored as JSON
// under the fingerprint key with a per-entry TTL, so expiry needs no
// sweeping of our own.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	enabled   bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore creates a new Redis-backed result cache.
func NewRedisStore(config RedisConfig) (*RedisStore, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.Database,
	})

	store := &RedisStore{
		client:    client,
		keyPrefix: config.KeyPrefix,
		enabled:   true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.CheckConnection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logging.Infof("RedisStore connected to %s with prefix %q", config.Address, config.KeyPrefix)

	return store, nil
}

// IsEnabled returns whether the store is active.
func (r *RedisStore) IsEnabled() bool {
	return r.enabled
}

// CheckConnection verifies the store connection is healthy.
func (r *RedisStore) CheckConnection(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases resources held by the store.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *RedisStore) recordKey(key string) string {
	return r.keyPrefix + key
}

// Get retrieves a cached record.
func (r *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	if key == "" {
		return nil, ErrInvalidInput
	}

	data, err := r.client.Get(ctx, r.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	r.hits.Add(1)
	return &record, nil
}

// Set stores a record under the key with the given TTL.
func (r *RedisStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if key == "" || record == nil {
		return ErrInvalidInput
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := r.client.Set(ctx, r.recordKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// Flush removes all cached records under the key prefix.
func (r *RedisStore) Flush(ctx context.Context) error {
	pattern := r.recordKey("validation:*")

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to flush records: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan records: %w", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to flush records: %w", err)
		}
	}
	return nil
}

// Stats reports cache statistics.
func (r *RedisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		Backend: string(RedisBackend),
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
	}

	if err := r.CheckConnection(ctx); err != nil {
		return stats, nil
	}
	stats.Connected = true

	var count int64
	iter := r.client.Scan(ctx, 0, r.recordKey("validation:*"), 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return stats, fmt.Errorf("failed to count records: %w", err)
	}
	stats.Entries = count

	return stats, nil
}

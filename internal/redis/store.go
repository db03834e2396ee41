package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"gomate/internal/repository"
)

// DefaultKeyPrefix namespaces gomate keys inside a shared Redis database.
const DefaultKeyPrefix = "gomate:"

// scanBatch is the COUNT hint for SCAN.
const scanBatch = 100

// Store is a repository.Store backed by Redis strings.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a new Store. An empty prefix uses DefaultKeyPrefix.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// GetItem retrieves a value from Redis.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil // Miss
		}
		return "", false, fmt.Errorf("%w: get %s: %v", repository.ErrStorageIO, key, err)
	}
	return value, true, nil
}

// SetItem stores a value in Redis without expiry; TTLs are enforced by the cache layer.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", repository.ErrStorageIO, key, err)
	}
	return nil
}

// RemoveItem removes a key from Redis.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", repository.ErrStorageIO, key, err)
	}
	return nil
}

// GetAllKeys lists every key under the prefix using SCAN.
func (s *Store) GetAllKeys(ctx context.Context) ([]string, error) {
	raw, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	return keys, nil
}

// Clear removes every key under the prefix using a pipeline.
func (s *Store) Clear(ctx context.Context) error {
	raw, err := s.scan(ctx)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, k := range raw {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: clear: %v", repository.ErrStorageIO, err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", repository.ErrStorageIO, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"gomate/internal/config"
)

// NewRedisClient connects to the Redis database that holds the key-value
// store. Commands are traced as datastore segments when nrApp is set, named
// after the store key they touch with prefix stripped.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, prefix string, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(redisOptions(cfg))

	if nrApp != nil {
		client.AddHook(&nrRedisHook{prefix: prefix})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// redisOptions sizes the pool for a handful of short GET/SET/DEL calls.
func redisOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 1,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.IOTimeout,
		WriteTimeout: cfg.IOTimeout,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 4
	}
	return opts
}

// nrRedisHook records each command as a datastore segment.
type nrRedisHook struct {
	prefix string
}

func (h *nrRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *nrRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			segment := newrelic.DatastoreSegment{
				StartTime:  txn.StartSegmentNow(),
				Product:    newrelic.DatastoreRedis,
				Operation:  cmd.Name(),
				Collection: h.collection(cmd),
			}
			defer segment.End()
		}
		return next(ctx, cmd)
	}
}

func (h *nrRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			// The store only pipelines the DELs of Clear.
			segment := newrelic.DatastoreSegment{
				StartTime:  txn.StartSegmentNow(),
				Product:    newrelic.DatastoreRedis,
				Operation:  "pipeline",
				Collection: "kv",
			}
			defer segment.End()
		}
		return next(ctx, cmds)
	}
}

// collection names the store key a single-key command touches, or "kv".
func (h *nrRedisHook) collection(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "get", "set", "del":
	default:
		return "kv"
	}
	args := cmd.Args()
	if len(args) < 2 {
		return "kv"
	}
	key, ok := args[1].(string)
	if !ok || !strings.HasPrefix(key, h.prefix) {
		return "kv"
	}
	return strings.TrimPrefix(key, h.prefix)
}

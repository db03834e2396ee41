package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"gomate/internal/config"
	"gomate/internal/logger"
	redisstore "gomate/internal/redis"
	"gomate/internal/repository"
	"gomate/internal/repository/leveldb"
	"gomate/internal/repository/memory"
	"gomate/internal/repository/postgres"
)

// Storage is the opened durable store and how to release it.
type Storage struct {
	Store repository.Store
	Close func() error
}

// OpenStorage opens the backend selected by cfg.Storage.Backend.
func OpenStorage(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, log logger.Logger) (*Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory, "":
		log.Warn("Using in-memory storage, data will not survive a restart")
		return &Storage{Store: memory.NewStore(), Close: func() error { return nil }}, nil

	case config.StorageLevelDB:
		store, err := leveldb.Open(cfg.Storage.LevelDBPath)
		if err != nil {
			return nil, err
		}
		log.Info("LevelDB storage opened", "path", cfg.Storage.LevelDBPath)
		return &Storage{Store: store, Close: store.Close}, nil

	case config.StorageRedis:
		prefix := cfg.Storage.KeyPrefix
		if prefix == "" {
			prefix = redisstore.DefaultKeyPrefix
		}
		client, err := NewRedisClient(ctx, cfg.Redis, prefix, nrApp)
		if err != nil {
			return nil, err
		}
		log.Info("Redis storage connected", "addr", cfg.Redis.Addr, "prefix", prefix)
		return &Storage{Store: redisstore.NewStore(client, prefix), Close: client.Close}, nil

	case config.StoragePostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("PostgreSQL storage connected", "host", cfg.Database.Host, "db", cfg.Database.DBName)
		return &Storage{Store: store, Close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

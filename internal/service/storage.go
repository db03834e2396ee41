package service

import (
	"context"
	"sort"
	"time"

	"gomate/internal/cache"
	"gomate/internal/logger"
	"gomate/internal/metrics"
	"gomate/internal/repository"
)

const previewLength = 100

// StorageItem describes one stored key.
type StorageItem struct {
	Key     string `json:"key"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

// StorageService exposes maintenance over the durable store and caches.
type StorageService struct {
	store    repository.Store
	volatile *cache.Volatile
	offline  *cache.Offline
	logger   logger.Logger
}

// NewStorageService creates a new StorageService.
func NewStorageService(store repository.Store, volatile *cache.Volatile, offline *cache.Offline, log logger.Logger) *StorageService {
	if log == nil {
		log = logger.Nop()
	}
	return &StorageService{store: store, volatile: volatile, offline: offline, logger: log}
}

// Info lists every stored key with its size in bytes and a short preview.
func (s *StorageService) Info(ctx context.Context) ([]StorageItem, error) {
	keys, err := s.store.GetAllKeys(ctx)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("keys").Inc()
		s.logger.Error("Failed to list storage keys", "error", err)
		return nil, err
	}
	sort.Strings(keys)

	items := make([]StorageItem, 0, len(keys))
	for _, key := range keys {
		value, _, err := s.store.GetItem(ctx, key)
		if err != nil {
			metrics.StorageErrors.WithLabelValues("get").Inc()
			return nil, err
		}
		items = append(items, StorageItem{Key: key, Size: len(value), Preview: preview(value)})
	}
	return items, nil
}

// CacheStatus lists the volatile cache entries.
func (s *StorageService) CacheStatus() []cache.Status {
	return s.volatile.Status()
}

// OfflineStatus lists the durable cache entries.
func (s *StorageService) OfflineStatus(ctx context.Context) ([]cache.Status, error) {
	return s.offline.Status(ctx)
}

// PruneCache drops durable cache entries past their TTL.
func (s *StorageService) PruneCache(ctx context.Context) (int, error) {
	return s.offline.Prune(ctx)
}

// RunPruner prunes the durable cache every interval until ctx is done.
func (s *StorageService) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.offline.Prune(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Scheduled cache prune failed", "error", err)
			}
		}
	}
}

// ClearCache drops both caches. The next read goes to the live source.
func (s *StorageService) ClearCache(ctx context.Context) error {
	s.volatile.InvalidateAll()
	return s.offline.Clear(ctx)
}

// ClearAll removes every stored key and empties the volatile cache.
func (s *StorageService) ClearAll(ctx context.Context) error {
	s.volatile.InvalidateAll()
	if err := s.store.Clear(ctx); err != nil {
		metrics.StorageErrors.WithLabelValues("clear").Inc()
		s.logger.Error("Failed to clear storage", "error", err)
		return err
	}
	s.logger.Info("All storage cleared")
	return nil
}

func preview(value string) string {
	if value == "" {
		return "empty"
	}
	r := []rune(value)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r) + "..."
}

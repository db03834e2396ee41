package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gomate/internal/logger"
	"gomate/internal/metrics"
	"gomate/internal/repository"
)

// Offline is the durable offline cache.
// All entries live in one store value, so writes are serialized per store key.
type Offline struct {
	store repository.Store
	locks *repository.KeyMutex
	key   string
	ttl   time.Duration
	now   Clock
	log   logger.Logger
}

// NewOffline creates an offline cache persisted under repository.KeyOfflineCache.
func NewOffline(store repository.Store, locks *repository.KeyMutex, ttl time.Duration, now Clock, log logger.Logger) *Offline {
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = repository.NewKeyMutex()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Offline{
		store: store,
		locks: locks,
		key:   repository.KeyOfflineCache,
		ttl:   ttl,
		now:   now,
		log:   log,
	}
}

// TTL returns the configured time-to-live.
func (c *Offline) TTL() time.Duration {
	return c.ttl
}

// IsStale reports whether entry is past the TTL now.
func (c *Offline) IsStale(entry Entry) bool {
	return entry.Expired(c.now(), c.ttl)
}

// Set stores payload under name with the current timestamp.
// A storage failure is logged and returned; callers keep their in-memory result.
func (c *Offline) Set(ctx context.Context, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	unlock := c.locks.Lock(c.key)
	defer unlock()

	entries, err := c.load(ctx)
	if err != nil {
		// Writing now would drop the entries we failed to read.
		return err
	}

	entries[name] = Entry{Data: data, Timestamp: c.now().UnixMilli()}
	if err := c.save(ctx, entries); err != nil {
		return err
	}

	c.log.Debug("Data cached", "key", name)
	return nil
}

// Get decodes the entry under name into dst if it is within the TTL.
// A stale entry is deleted before reporting a miss.
func (c *Offline) Get(ctx context.Context, name string, dst interface{}) (Entry, bool) {
	unlock := c.locks.Lock(c.key)
	defer unlock()

	entries, err := c.load(ctx)
	if err != nil {
		return Entry{}, false
	}

	entry, ok := entries[name]
	if !ok {
		metrics.CacheLookups.WithLabelValues(metrics.TierOffline, metrics.OutcomeMiss).Inc()
		return Entry{}, false
	}

	if entry.Expired(c.now(), c.ttl) {
		metrics.CacheLookups.WithLabelValues(metrics.TierOffline, metrics.OutcomeExpired).Inc()
		c.log.Info("Cache expired", "key", name)
		delete(entries, name)
		_ = c.save(ctx, entries)
		return Entry{}, false
	}

	return c.decode(name, entry, dst)
}

// Peek decodes the entry under name into dst regardless of its age.
func (c *Offline) Peek(ctx context.Context, name string, dst interface{}) (Entry, bool) {
	unlock := c.locks.Lock(c.key)
	defer unlock()

	entries, err := c.load(ctx)
	if err != nil {
		return Entry{}, false
	}

	entry, ok := entries[name]
	if !ok {
		metrics.CacheLookups.WithLabelValues(metrics.TierOffline, metrics.OutcomeMiss).Inc()
		return Entry{}, false
	}
	return c.decode(name, entry, dst)
}

// Invalidate removes the entry under name.
func (c *Offline) Invalidate(ctx context.Context, name string) error {
	unlock := c.locks.Lock(c.key)
	defer unlock()

	entries, err := c.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := entries[name]; !ok {
		return nil
	}
	delete(entries, name)
	return c.save(ctx, entries)
}

// Prune removes every entry older than the TTL and reports how many were dropped.
func (c *Offline) Prune(ctx context.Context) (int, error) {
	unlock := c.locks.Lock(c.key)
	defer unlock()

	entries, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	removed := 0
	for name, entry := range entries {
		if entry.Expired(now, c.ttl) {
			delete(entries, name)
			removed++
		}
	}

	if err := c.save(ctx, entries); err != nil {
		return 0, err
	}

	c.log.Info("Old cache cleared", "removed", removed, "remaining", len(entries))
	return removed, nil
}

// Clear drops the whole offline cache.
func (c *Offline) Clear(ctx context.Context) error {
	unlock := c.locks.Lock(c.key)
	defer unlock()

	if err := c.store.RemoveItem(ctx, c.key); err != nil {
		metrics.StorageErrors.WithLabelValues("remove").Inc()
		c.log.Error("Failed to clear offline cache", "error", err)
		return err
	}
	c.log.Info("All cache cleared")
	return nil
}

// Status lists cached names with their age and remaining lifetime.
func (c *Offline) Status(ctx context.Context) ([]Status, error) {
	unlock := c.locks.Lock(c.key)
	entries, err := c.load(ctx)
	unlock()
	if err != nil {
		return nil, err
	}

	now := c.now()
	statuses := make([]Status, 0, len(entries))
	for name, entry := range entries {
		age := now.Sub(entry.StoredAt())
		statuses = append(statuses, Status{Key: name, Age: age, ExpiresIn: c.ttl - age})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Key < statuses[j].Key })
	return statuses, nil
}

func (c *Offline) decode(name string, entry Entry, dst interface{}) (Entry, bool) {
	if dst != nil {
		if err := json.Unmarshal(entry.Data, dst); err != nil {
			metrics.CacheLookups.WithLabelValues(metrics.TierOffline, metrics.OutcomeCorrupt).Inc()
			c.log.Warn("Cached payload is corrupt, treating as absent", "key", name, "error", err)
			return Entry{}, false
		}
	}
	metrics.CacheLookups.WithLabelValues(metrics.TierOffline, metrics.OutcomeHit).Inc()
	return entry, true
}

// load reads the entry map. Corrupt JSON is treated as an empty cache;
// only store failures are returned.
func (c *Offline) load(ctx context.Context) (map[string]Entry, error) {
	raw, ok, err := c.store.GetItem(ctx, c.key)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("get").Inc()
		c.log.Error("Failed to read offline cache", "error", err)
		return nil, err
	}

	entries := make(map[string]Entry)
	if !ok || raw == "" {
		return entries, nil
	}

	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.log.Warn("Offline cache is corrupt, starting empty", "error", err)
		return make(map[string]Entry), nil
	}
	return entries, nil
}

func (c *Offline) save(ctx context.Context, entries map[string]Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode offline cache: %w", err)
	}
	if err := c.store.SetItem(ctx, c.key, string(data)); err != nil {
		metrics.StorageErrors.WithLabelValues("set").Inc()
		c.log.Error("Failed to save offline cache", "error", err)
		return err
	}
	return nil
}

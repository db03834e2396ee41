package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"gomate/internal/repository"
	"gomate/internal/repository/memory"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errDiskFull = errors.New("disk full")

// failingStore wraps a memory store and fails the selected operations.
type failingStore struct {
	*memory.Store
	failGet bool
	failSet bool
}

func (s *failingStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, errors.Join(repository.ErrStorageIO, errDiskFull)
	}
	return s.Store.GetItem(ctx, key)
}

func (s *failingStore) SetItem(ctx context.Context, key, value string) error {
	if s.failSet {
		return errors.Join(repository.ErrStorageIO, errDiskFull)
	}
	return s.Store.SetItem(ctx, key, value)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

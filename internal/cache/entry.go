package cache

import (
	"encoding/json"
	"time"
)

// Cache TTL defaults.
const (
	VolatileTTL = 5 * time.Minute // Live schedule responses
	OfflineTTL  = 24 * time.Hour  // Offline fallback payloads
)

// Clock returns the current time.
type Clock func() time.Time

// Entry is a cached payload and the epoch milliseconds it was written at.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// StoredAt returns the write time of the entry.
func (e Entry) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Expired reports whether the entry is older than ttl at now.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	return IsExpired(e.StoredAt(), now, ttl)
}

// IsExpired reports whether something stored at storedAt is stale at now.
// An age of exactly ttl is still valid.
func IsExpired(storedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(storedAt) > ttl
}

// Status describes one cached key.
type Status struct {
	Key       string        `json:"key"`
	Age       time.Duration `json:"age"`
	ExpiresIn time.Duration `json:"expiresIn"`
}

package repository

import "context"

// Persisted keys. These names are shared with existing installs and must not change.
const (
	KeyTripHistory     = "@gomate_trip_history"
	KeyOfflineCache    = "@gomate_offline_cache"
	KeyUserPreferences = "@gomate_user_preferences"
	KeyLastSync        = "@gomate_last_sync"
)

// Store is the durable key-value store. Values are JSON strings.
type Store interface {
	// GetItem returns the value stored under key.
	// A missing key is reported as ok == false with a nil error.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// GetAllKeys lists every stored key.
	GetAllKeys(ctx context.Context) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gomate/internal/domain"
	"gomate/internal/logger"
	"gomate/internal/metrics"
	"gomate/internal/repository"
)

// lastSyncLayout is an ISO-8601 UTC timestamp with milliseconds.
const lastSyncLayout = "2006-01-02T15:04:05.000Z07:00"

// PreferenceService stores user preferences and the last sync time.
type PreferenceService struct {
	store  repository.Store
	now    func() time.Time
	logger logger.Logger
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(store repository.Store, now func() time.Time, log logger.Logger) *PreferenceService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PreferenceService{store: store, now: now, logger: log}
}

// Preferences returns the saved preferences, or the defaults when nothing
// usable is stored.
func (s *PreferenceService) Preferences(ctx context.Context) domain.UserPreferences {
	raw, ok, err := s.store.GetItem(ctx, repository.KeyUserPreferences)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("get").Inc()
		s.logger.Error("Failed to read user preferences", "error", err)
		return domain.DefaultPreferences()
	}
	if !ok || raw == "" {
		return domain.DefaultPreferences()
	}

	var prefs domain.UserPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn("User preferences are corrupt, using defaults", "error", err)
		return domain.DefaultPreferences()
	}
	return prefs
}

// SavePreferences replaces the stored preferences.
func (s *PreferenceService) SavePreferences(ctx context.Context, prefs domain.UserPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.store.SetItem(ctx, repository.KeyUserPreferences, string(data)); err != nil {
		metrics.StorageErrors.WithLabelValues("set").Inc()
		s.logger.Error("Failed to save user preferences", "error", err)
		return err
	}
	s.logger.Info("User preferences saved")
	return nil
}

// UpdateLastSync records the current time as the last successful sync.
func (s *PreferenceService) UpdateLastSync(ctx context.Context) error {
	stamp := s.now().UTC().Format(lastSyncLayout)
	if err := s.store.SetItem(ctx, repository.KeyLastSync, stamp); err != nil {
		metrics.StorageErrors.WithLabelValues("set").Inc()
		return err
	}
	s.logger.Debug("Last sync updated", "at", stamp)
	return nil
}

// LastSync returns the last successful sync time, if any.
func (s *PreferenceService) LastSync(ctx context.Context) (time.Time, bool) {
	raw, ok, err := s.store.GetItem(ctx, repository.KeyLastSync)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("get").Inc()
		s.logger.Error("Failed to read last sync", "error", err)
		return time.Time{}, false
	}
	if !ok || raw == "" {
		return time.Time{}, false
	}

	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("Last sync timestamp is corrupt", "value", raw, "error", err)
		return time.Time{}, false
	}
	return at, true
}

var _ SyncRecorder = (*PreferenceService)(nil)

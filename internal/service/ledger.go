package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gomate/internal/domain"
	"gomate/internal/logger"
	"gomate/internal/metrics"
	"gomate/internal/repository"
)

// TripLedger is the persisted trip history, most recent first.
//
// Reads never fail: missing or corrupt data is an empty history. Once the
// history has been read, storage failures degrade to an in-memory copy kept
// until a later write reaches the store again. Before that, a failed read
// leaves nothing to write against, so Append and Remove return the error
// instead of overwriting the stored history.
type TripLedger struct {
	store  repository.Store
	locks  *repository.KeyMutex
	key    string
	now    func() time.Time
	logger logger.Logger

	mu     sync.Mutex
	mirror []domain.TripHistoryEntry
	loaded bool // mirror is authoritative
	dirty  bool // mirror holds writes the store has not accepted
}

// NewTripLedger creates a ledger persisted under repository.KeyTripHistory.
func NewTripLedger(store repository.Store, locks *repository.KeyMutex, now func() time.Time, log logger.Logger) *TripLedger {
	if locks == nil {
		locks = repository.NewKeyMutex()
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TripLedger{
		store:  store,
		locks:  locks,
		key:    repository.KeyTripHistory,
		now:    now,
		logger: log,
	}
}

// Append records a ticket at the head of the history and returns the
// updated history. The entry id is the ticket id, or the current time in
// epoch milliseconds when the ticket has none. Duplicate ids are kept.
func (l *TripLedger) Append(ctx context.Context, ticket domain.Ticket) ([]domain.TripHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(l.key)
	defer unlock()

	now := l.now()
	id := ticket.TicketID
	if id == "" {
		id = domain.ID(strconv.FormatInt(now.UnixMilli(), 10))
	}
	entry := domain.TripHistoryEntry{ID: id, Ticket: ticket, SavedAt: now.UTC()}

	history, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	updated := make([]domain.TripHistoryEntry, 0, len(history)+1)
	updated = append(updated, entry)
	updated = append(updated, history...)

	l.save(ctx, updated)
	metrics.LedgerMutations.WithLabelValues("append").Inc()
	l.logger.Info("Trip saved to history", "id", id, "name", ticket.Name)

	return cloneHistory(updated), nil
}

// Remove deletes every entry with the given id. An unknown id is not an error.
func (l *TripLedger) Remove(ctx context.Context, id domain.ID) error {
	if id == "" {
		return ErrInvalidTripID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := l.locks.Lock(l.key)
	defer unlock()

	history, err := l.load(ctx)
	if err != nil {
		return err
	}
	updated := make([]domain.TripHistoryEntry, 0, len(history))
	for _, entry := range history {
		if entry.ID != id {
			updated = append(updated, entry)
		}
	}

	if len(updated) == len(history) {
		return nil
	}

	l.save(ctx, updated)
	metrics.LedgerMutations.WithLabelValues("remove").Inc()
	l.logger.Info("Trip deleted from history", "id", id)
	return nil
}

// Clear empties the history.
func (l *TripLedger) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := l.locks.Lock(l.key)
	defer unlock()

	l.save(ctx, []domain.TripHistoryEntry{})
	metrics.LedgerMutations.WithLabelValues("clear").Inc()
	l.logger.Info("Trip history cleared")
	return nil
}

// List returns the history, most recent first.
func (l *TripLedger) List(ctx context.Context) []domain.TripHistoryEntry {
	unlock := l.locks.Lock(l.key)
	defer unlock()

	history, _ := l.load(ctx)
	return cloneHistory(history)
}

// Statistics recomputes the statistics from the current history.
func (l *TripLedger) Statistics(ctx context.Context) domain.TripStatistics {
	return domain.ComputeStatistics(l.List(ctx))
}

// load must be called with the key lock held. It fails only when the
// store cannot be read and no authoritative copy is held in memory.
func (l *TripLedger) load(ctx context.Context) ([]domain.TripHistoryEntry, error) {
	l.mu.Lock()
	if l.dirty {
		history := l.mirror
		l.mu.Unlock()
		return history, nil
	}
	l.mu.Unlock()

	raw, ok, err := l.store.GetItem(ctx, l.key)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("get").Inc()
		l.mu.Lock()
		defer l.mu.Unlock()
		if !l.loaded {
			l.logger.Error("Failed to read trip history", "error", err)
			return []domain.TripHistoryEntry{}, fmt.Errorf("read trip history: %w", err)
		}
		l.logger.Error("Failed to read trip history, using in-memory copy", "error", err)
		return l.mirror, nil
	}

	var history []domain.TripHistoryEntry
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			l.logger.Warn("Trip history is corrupt, treating as empty", "error", err)
			history = nil
		}
	}
	if history == nil {
		history = []domain.TripHistoryEntry{}
	}

	l.mu.Lock()
	l.mirror = history
	l.loaded = true
	l.mu.Unlock()
	return history, nil
}

// save must be called with the key lock held.
func (l *TripLedger) save(ctx context.Context, history []domain.TripHistoryEntry) {
	l.mu.Lock()
	l.mirror = history
	l.loaded = true
	l.mu.Unlock()

	data, err := json.Marshal(history)
	if err != nil {
		l.logger.Error("Failed to encode trip history", "error", err)
		l.setDirty(true)
		return
	}

	if err := l.store.SetItem(ctx, l.key, string(data)); err != nil {
		metrics.StorageErrors.WithLabelValues("set").Inc()
		l.logger.Error("Failed to save trip history, continuing in memory", "error", err)
		l.setDirty(true)
		return
	}
	l.setDirty(false)
}

func (l *TripLedger) setDirty(dirty bool) {
	l.mu.Lock()
	l.dirty = dirty
	l.mu.Unlock()
}

func cloneHistory(history []domain.TripHistoryEntry) []domain.TripHistoryEntry {
	out := make([]domain.TripHistoryEntry, len(history))
	copy(out, history)
	return out
}

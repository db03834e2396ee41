package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gomate/internal/cache"
	"gomate/internal/logger"
	"gomate/internal/metrics"
)

// SyncState is the position of a dataset in the sync state machine.
type SyncState string

const (
	SyncStateIdle           SyncState = "IDLE"
	SyncStateFetching       SyncState = "FETCHING"
	SyncStateFresh          SyncState = "FRESH"
	SyncStateFallbackServed SyncState = "FALLBACK_SERVED"
	SyncStateFailed         SyncState = "FAILED"
)

// DefaultFetchTimeout bounds a single live fetch.
const DefaultFetchTimeout = 10 * time.Second

var errOffline = errors.New("device is offline")

// Connectivity reports whether the device is offline.
type Connectivity interface {
	Offline() bool
}

// SyncRecorder is told about every successful live fetch.
type SyncRecorder interface {
	UpdateLastSync(ctx context.Context) error
}

// FetchFunc retrieves a dataset from the live source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Dataset identifies what an Orchestrator keeps in sync.
type Dataset[T any] struct {
	Name        string // durable offline cache key
	VolatileKey string // volatile API cache key
	Fetch       FetchFunc[T]
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	FetchTimeout       time.Duration
	AllowStaleFallback bool // serve durable entries older than their TTL when live fetch fails
}

// Result is the outcome of a read.
type Result[T any] struct {
	Data     T
	State    SyncState
	Stale    bool      // served from the durable cache past its TTL
	StoredAt time.Time // when the served data was cached; zero for a live fetch
}

// Orchestrator serves one dataset from the live source with write-through
// to both caches and fallback to the durable cache.
//
// Concurrent reads of the same generation share one fetch. ForceRefresh bumps
// the generation; a fetch that finishes after its generation was superseded
// still answers its own callers but is never written to either cache.
type Orchestrator[T any] struct {
	dataset Dataset[T]
	cfg     OrchestratorConfig

	volatile *cache.Volatile
	offline  *cache.Offline
	conn     Connectivity
	recorder SyncRecorder
	logger   logger.Logger

	group singleflight.Group

	// writeMu orders write-through against ForceRefresh and is held across
	// the durable write. Lock order is writeMu then mu. mu is never held
	// across I/O, so State and Generation do not wait on storage.
	writeMu sync.Mutex
	mu      sync.Mutex // guards gen and state
	gen     uint64
	state   SyncState
}

// NewOrchestrator creates an Orchestrator. conn and recorder may be nil.
func NewOrchestrator[T any](
	dataset Dataset[T],
	cfg OrchestratorConfig,
	volatile *cache.Volatile,
	offline *cache.Offline,
	conn Connectivity,
	recorder SyncRecorder,
	log logger.Logger,
) *Orchestrator[T] {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator[T]{
		dataset:  dataset,
		cfg:      cfg,
		volatile: volatile,
		offline:  offline,
		conn:     conn,
		recorder: recorder,
		logger:   log.With("dataset", dataset.Name),
		state:    SyncStateIdle,
	}
}

// State returns the current sync state.
func (o *Orchestrator[T]) State() SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Generation returns the current generation.
func (o *Orchestrator[T]) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen
}

// Read returns the dataset from the volatile cache, the live source, or
// the durable cache, in that order. When nothing can be served the error
// wraps ErrNoDataAvailable and the result state is SyncStateFailed.
//
// ctx only bounds the caller's wait; the shared fetch runs on its own
// timeout so that an abandoned caller does not fail everyone joined to it.
func (o *Orchestrator[T]) Read(ctx context.Context) (Result[T], error) {
	gen := o.Generation()
	if v, ok := o.volatile.Get(o.dataset.VolatileKey); ok {
		if data, ok := v.(T); ok {
			o.logger.Debug("Returning cached data")
			o.record(gen, SyncStateFresh)
			return Result[T]{Data: data, State: SyncStateFresh}, nil
		}
	}

	if o.conn != nil && o.conn.Offline() {
		o.logger.Debug("Offline, serving durable cache")
		return o.fallback(ctx, gen, errOffline)
	}

	o.mu.Lock()
	gen = o.gen
	o.state = SyncStateFetching
	o.mu.Unlock()

	key := fmt.Sprintf("%s#%d", o.dataset.VolatileKey, gen)
	fetchCtx := context.WithoutCancel(ctx)
	ch := o.group.DoChan(key, func() (interface{}, error) {
		return o.fetch(fetchCtx, gen)
	})

	select {
	case <-ctx.Done():
		return Result[T]{State: SyncStateFetching}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			o.logger.Warn("Live fetch failed, falling back to offline cache", "error", res.Err)
			return o.fallback(ctx, gen, res.Err)
		}
		o.record(gen, SyncStateFresh)
		return Result[T]{Data: res.Val.(T), State: SyncStateFresh}, nil
	}
}

// ForceRefresh returns the dataset to Idle and drops its volatile entry.
// The durable cache is kept so a failed refresh can still fall back.
// It waits for an in-flight write-through to finish.
func (o *Orchestrator[T]) ForceRefresh() {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.state = SyncStateIdle
	o.mu.Unlock()

	o.volatile.Invalidate(o.dataset.VolatileKey)
	o.logger.Info("Forced refresh", "generation", gen)
}

// Refresh forces a refresh and reads the dataset.
func (o *Orchestrator[T]) Refresh(ctx context.Context) (Result[T], error) {
	o.ForceRefresh()
	return o.Read(ctx)
}

// Cached returns the last known copy of the dataset without fetching:
// the volatile entry if valid, else the durable one regardless of age.
func (o *Orchestrator[T]) Cached(ctx context.Context) (T, bool) {
	if v, ok := o.volatile.Get(o.dataset.VolatileKey); ok {
		if data, ok := v.(T); ok {
			return data, true
		}
	}
	var data T
	_, ok := o.offline.Peek(ctx, o.dataset.Name, &data)
	return data, ok
}

func (o *Orchestrator[T]) fetch(ctx context.Context, gen uint64) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()

	data, err := o.dataset.Fetch(ctx)
	if err != nil {
		return data, err
	}

	o.writeMu.Lock()
	if current := o.Generation(); gen != current {
		o.writeMu.Unlock()
		metrics.SupersededFetches.WithLabelValues(o.dataset.Name).Inc()
		o.logger.Info("Discarding superseded fetch", "generation", gen, "current", current)
		return data, nil
	}

	o.volatile.Set(o.dataset.VolatileKey, data)
	if err := o.offline.Set(ctx, o.dataset.Name, data); err != nil {
		o.logger.Warn("Failed to persist offline copy, continuing in memory", "error", err)
	}
	o.mu.Lock()
	o.state = SyncStateFresh
	o.mu.Unlock()
	o.writeMu.Unlock()

	if o.recorder != nil {
		if err := o.recorder.UpdateLastSync(ctx); err != nil {
			o.logger.Warn("Failed to update last sync", "error", err)
		}
	}
	return data, nil
}

func (o *Orchestrator[T]) fallback(ctx context.Context, gen uint64, cause error) (Result[T], error) {
	var (
		data  T
		entry cache.Entry
		ok    bool
	)
	if o.cfg.AllowStaleFallback {
		entry, ok = o.offline.Peek(ctx, o.dataset.Name, &data)
	} else {
		entry, ok = o.offline.Get(ctx, o.dataset.Name, &data)
	}

	if !ok {
		o.record(gen, SyncStateFailed)
		o.logger.Error("No data available", "error", cause)
		return Result[T]{State: SyncStateFailed}, fmt.Errorf("%w: %s: %w", ErrNoDataAvailable, o.dataset.Name, cause)
	}

	o.record(gen, SyncStateFallbackServed)
	return Result[T]{
		Data:     data,
		State:    SyncStateFallbackServed,
		Stale:    o.offline.IsStale(entry),
		StoredAt: entry.StoredAt(),
	}, nil
}

// record sets the state only while gen is current, so a caller that
// outlived a ForceRefresh cannot overwrite the newer generation's state.
func (o *Orchestrator[T]) record(gen uint64, state SyncState) {
	o.mu.Lock()
	if gen == o.gen {
		o.state = state
	}
	o.mu.Unlock()
	metrics.SyncOutcomes.WithLabelValues(o.dataset.Name, string(state)).Inc()
}

// Package metrics holds the Prometheus collectors for the offline data layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache tiers.
const (
	TierVolatile = "volatile"
	TierOffline  = "offline"
)

// Cache lookup outcomes.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeExpired = "expired"
	OutcomeCorrupt = "corrupt"
)

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomate_cache_lookups_total",
		Help: "Cache lookups by tier and outcome",
	}, []string{"tier", "outcome"})

	SyncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomate_sync_outcomes_total",
		Help: "Dataset reads by final sync state",
	}, []string{"dataset", "state"})

	SupersededFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomate_sync_superseded_fetches_total",
		Help: "Fetches discarded because a newer generation started",
	}, []string{"dataset"})

	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomate_storage_errors_total",
		Help: "Durable store failures by operation",
	}, []string{"op"})

	ConnectivityTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomate_connectivity_transitions_total",
		Help: "Reachability transitions by new state",
	}, []string{"state"})

	LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomate_ledger_mutations_total",
		Help: "Trip history mutations by operation",
	}, []string{"op"})
)

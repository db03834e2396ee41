// Package reachability tracks network connectivity and notifies listeners
// on every online/offline transition.
package reachability

import (
	"sync"
	"time"

	"gomate/internal/logger"
	"gomate/internal/metrics"
)

// Listener receives the new offline state after a transition.
type Listener func(offline bool)

// Subscription is a registered listener.
type Subscription struct {
	monitor *Monitor
	id      uint64
	fn      Listener

	mu     sync.Mutex // held while fn runs
	active bool
}

// Unsubscribe stops delivery. Once it returns the listener is never called
// again. It must not be called from inside the listener itself.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	s.monitor.remove(s.id)
}

// State is a point-in-time view of connectivity.
type State struct {
	Offline bool      `json:"offline"`
	Since   time.Time `json:"since"`
}

// Monitor is the single source of truth for the offline flag.
type Monitor struct {
	mu     sync.Mutex
	state  State
	subs   map[uint64]*Subscription
	nextID uint64

	deliver sync.Mutex // orders transitions and their delivery
	now     func() time.Time
	logger  logger.Logger
}

// NewMonitor creates a monitor that starts online.
func NewMonitor(log logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		state:  State{Since: time.Now()},
		subs:   make(map[uint64]*Subscription),
		now:    time.Now,
		logger: log,
	}
}

// Offline reports the current state.
func (m *Monitor) Offline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Offline
}

// State returns the current state and when it was entered.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AddListener registers fn for future transitions.
func (m *Monitor) AddListener(fn Listener) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	sub := &Subscription{monitor: m, id: m.nextID, fn: fn, active: true}
	m.subs[sub.id] = sub
	return sub
}

// Set records the observed state. Listeners are called, in registration
// order, only when the state actually changes. It reports whether it did.
func (m *Monitor) Set(offline bool) bool {
	m.deliver.Lock()
	defer m.deliver.Unlock()

	m.mu.Lock()
	if m.state.Offline == offline {
		m.mu.Unlock()
		return false
	}
	m.state = State{Offline: offline, Since: m.now()}
	subs := make([]*Subscription, 0, len(m.subs))
	for id := uint64(1); id <= m.nextID; id++ {
		if sub, ok := m.subs[id]; ok {
			subs = append(subs, sub)
		}
	}
	m.mu.Unlock()

	label := "online"
	if offline {
		label = "offline"
	}
	metrics.ConnectivityTransitions.WithLabelValues(label).Inc()
	m.logger.Info("Connectivity changed", "offline", offline, "listeners", len(subs))

	for _, sub := range subs {
		sub.mu.Lock()
		if sub.active {
			sub.fn(offline)
		}
		sub.mu.Unlock()
	}
	return true
}

func (m *Monitor) remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

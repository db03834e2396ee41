package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gomate/internal/cache"
	"gomate/internal/domain"
	"gomate/internal/remote"
	"gomate/internal/repository"
	"gomate/internal/repository/memory"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore wraps an in-memory store with error injection.
type MockStore struct {
	*memory.Store

	mu       sync.Mutex
	GetError error
	SetError error
	SetHook  func(key string) // runs before every SetItem

	SetCallCount int32
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{Store: memory.NewStore()}
}

func (m *MockStore) SetErrors(get, set error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetError = get
	m.SetError = set
}

func (m *MockStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	err := m.GetError
	m.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return m.Store.GetItem(ctx, key)
}

func (m *MockStore) SetItem(ctx context.Context, key, value string) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	err, hook := m.SetError, m.SetHook
	m.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	if err != nil {
		return err
	}
	return m.Store.SetItem(ctx, key, value)
}

var errStoreDown = fmt.Errorf("%w: disk unavailable", repository.ErrStorageIO)

// ──────────────────────────────────────────────
// MOCK SOURCE
// ──────────────────────────────────────────────

// MockSource is a remote.Source whose behavior is set per test.
type MockSource struct {
	FetchScheduleFunc    func(ctx context.Context) ([]domain.Route, error)
	FetchRouteDetailFunc func(ctx context.Context, id string) (domain.RouteDetail, error)
	SearchRoutesFunc     func(ctx context.Context, from, to string) ([]domain.Route, error)
	FetchNearbyFunc      func(ctx context.Context, lat, lon float64) ([]domain.NearbyStop, error)

	ScheduleCallCount int32
	DetailCallCount   int32
}

func (m *MockSource) FetchSchedule(ctx context.Context) ([]domain.Route, error) {
	atomic.AddInt32(&m.ScheduleCallCount, 1)
	if m.FetchScheduleFunc == nil {
		return testRoutes(), nil
	}
	return m.FetchScheduleFunc(ctx)
}

func (m *MockSource) FetchRouteDetail(ctx context.Context, id string) (domain.RouteDetail, error) {
	atomic.AddInt32(&m.DetailCallCount, 1)
	if m.FetchRouteDetailFunc == nil {
		route, ok := domain.FindRoute(testRoutes(), id)
		if !ok {
			return domain.RouteDetail{}, fmt.Errorf("mock: %w", remote.ErrNotFound)
		}
		return domain.BuildRouteDetail(route), nil
	}
	return m.FetchRouteDetailFunc(ctx, id)
}

func (m *MockSource) SearchRoutes(ctx context.Context, from, to string) ([]domain.Route, error) {
	if m.SearchRoutesFunc == nil {
		return domain.SearchRoutes(testRoutes(), from, to), nil
	}
	return m.SearchRoutesFunc(ctx, from, to)
}

func (m *MockSource) FetchNearbyStops(ctx context.Context, lat, lon float64) ([]domain.NearbyStop, error) {
	if m.FetchNearbyFunc == nil {
		return []domain.NearbyStop{{ID: "stop_001", Name: "Colombo Fort Railway Station", Type: domain.TransportTrain}}, nil
	}
	return m.FetchNearbyFunc(ctx, lat, lon)
}

// ──────────────────────────────────────────────
// MOCK CONNECTIVITY
// ──────────────────────────────────────────────

// MockConnectivity is a settable offline flag.
type MockConnectivity struct {
	offline atomic.Bool
}

func (m *MockConnectivity) Offline() bool     { return m.offline.Load() }
func (m *MockConnectivity) SetOffline(v bool) { m.offline.Store(v) }

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCaches(store repository.Store, clock *testClock) (*cache.Volatile, *cache.Offline) {
	volatile := cache.NewVolatile(cache.VolatileTTL, 0, clock.Now)
	offline := cache.NewOffline(store, repository.NewKeyMutex(), cache.OfflineTTL, clock.Now, nil)
	return volatile, offline
}

func testRoutes() []domain.Route {
	return []domain.Route{
		{ID: "route_001", Name: "Colombo to Kandy Express", Type: domain.TransportTrain, Operator: "Sri Lanka Railways",
			Status: domain.RouteStatusOnTime, Departure: "06:00 AM", Arrival: "09:30 AM", Price: 1200, Platform: "3",
			Stops: []string{"Colombo Fort", "Ragama", "Kandy"}},
		{ID: "route_003", Name: "Colombo to Galle Highway Express", Type: domain.TransportBus, Operator: "SLTB Express",
			Status: domain.RouteStatusDepartingSoon, Departure: "08:00 AM", Arrival: "10:30 AM", Price: 850, Platform: "A12",
			RealTimeDelay: 5, Stops: []string{"Colombo", "Panadura", "Galle"}},
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

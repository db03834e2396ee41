package remote

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gomate/internal/domain"
)

// DefaultMockLatency is the simulated schedule round trip.
// Detail and nearby-stop requests take half of it.
const DefaultMockLatency = 800 * time.Millisecond

// lastUpdatedLayout matches the provider's millisecond UTC timestamps.
const lastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"

// MockConfig configures the simulated provider.
type MockConfig struct {
	Latency     time.Duration
	FailureRate float64 // Fraction of requests failing with ErrNetwork, 0..1
	Rand        *rand.Rand
	Now         func() time.Time
}

// Mock is an in-process provider serving the built-in catalog with
// simulated latency, live delays and failures.
type Mock struct {
	latency     time.Duration
	failureRate float64
	now         func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand

	routes []domain.Route
	stops  []domain.NearbyStop
}

// NewMock creates a mock provider.
func NewMock(cfg MockConfig) *Mock {
	cat, err := loadCatalog()
	if err != nil {
		panic(err)
	}

	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Mock{
		latency:     cfg.Latency,
		failureRate: cfg.FailureRate,
		now:         cfg.Now,
		rng:         cfg.Rand,
		routes:      cat.Routes,
		stops:       cat.NearbyStops,
	}
}

// Routes returns the catalog as loaded, without live mutation.
func (m *Mock) Routes() []domain.Route {
	return append([]domain.Route(nil), m.routes...)
}

// FetchSchedule returns the catalog with freshly simulated delays and statuses.
func (m *Mock) FetchSchedule(ctx context.Context) ([]domain.Route, error) {
	if err := m.simulate(ctx, m.latency); err != nil {
		return nil, err
	}

	updated := m.now().UTC().Format(lastUpdatedLayout)

	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make([]domain.Route, 0, len(m.routes))
	for _, r := range m.routes {
		r.Stops = append([]string(nil), r.Stops...)

		r.RealTimeDelay = 0
		if m.rng.Float64() > 0.7 {
			r.RealTimeDelay = m.rng.Intn(20)
		}

		switch {
		case m.rng.Float64() > 0.8:
			r.Status = domain.RouteStatusDelayed
		case m.rng.Float64() > 0.5:
			r.Status = domain.RouteStatusOnTime
		default:
			r.Status = domain.RouteStatusDepartingSoon
		}

		r.LastUpdated = updated
		routes = append(routes, r)
	}
	return routes, nil
}

// FetchRouteDetail returns the detailed view of a catalog route.
func (m *Mock) FetchRouteDetail(ctx context.Context, routeID string) (domain.RouteDetail, error) {
	if err := m.simulate(ctx, m.latency/2); err != nil {
		return domain.RouteDetail{}, err
	}

	route, ok := domain.FindRoute(m.routes, routeID)
	if !ok {
		return domain.RouteDetail{}, fmt.Errorf("%w: %s", ErrNotFound, routeID)
	}
	return domain.BuildRouteDetail(route), nil
}

// SearchRoutes matches from and to against route and stop names.
// When nothing matches the whole catalog is returned.
func (m *Mock) SearchRoutes(ctx context.Context, from, to string) ([]domain.Route, error) {
	if err := m.simulate(ctx, m.latency); err != nil {
		return nil, err
	}
	return domain.SearchRoutes(m.Routes(), from, to), nil
}

// FetchNearbyStops returns the catalog stops. The location is not used.
func (m *Mock) FetchNearbyStops(ctx context.Context, lat, lon float64) ([]domain.NearbyStop, error) {
	if err := m.simulate(ctx, m.latency/2); err != nil {
		return nil, err
	}
	return append([]domain.NearbyStop(nil), m.stops...), nil
}

// simulate waits out the latency and rolls for a failure.
func (m *Mock) simulate(ctx context.Context, latency time.Duration) error {
	if err := ctx.Err(); err != nil {
		return classify(ctx, err)
	}

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return classify(ctx, ctx.Err())
		case <-timer.C:
		}
	}

	if m.failureRate <= 0 {
		return nil
	}

	m.mu.Lock()
	roll := m.rng.Float64()
	m.mu.Unlock()

	if roll < m.failureRate {
		return fmt.Errorf("%w: simulated provider failure", ErrNetwork)
	}
	return nil
}

var _ Source = (*Mock)(nil)

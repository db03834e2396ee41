package service

import (
	"context"
	"errors"
	"fmt"

	"gomate/internal/cache"
	"gomate/internal/domain"
	"gomate/internal/logger"
	"gomate/internal/remote"
)

// Dataset keys. These names are shared with existing installs.
const (
	DatasetSchedule     = "transportSchedule"
	VolatileKeySchedule = "liveSchedule"
	DatasetNearbyStops  = "nearbyStops"
)

// ScheduleService serves transport schedules online and offline.
type ScheduleService struct {
	source   remote.Source
	schedule *Orchestrator[[]domain.Route]
	offline  *cache.Offline
	conn     Connectivity
	cfg      OrchestratorConfig
	logger   logger.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	source remote.Source,
	volatile *cache.Volatile,
	offline *cache.Offline,
	conn Connectivity,
	recorder SyncRecorder,
	cfg OrchestratorConfig,
	log logger.Logger,
) *ScheduleService {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	schedule := NewOrchestrator(Dataset[[]domain.Route]{
		Name:        DatasetSchedule,
		VolatileKey: VolatileKeySchedule,
		Fetch:       source.FetchSchedule,
	}, cfg, volatile, offline, conn, recorder, log)

	return &ScheduleService{
		source:   source,
		schedule: schedule,
		offline:  offline,
		conn:     conn,
		cfg:      cfg,
		logger:   log,
	}
}

// Orchestrator exposes the schedule orchestrator for state inspection.
func (s *ScheduleService) Orchestrator() *Orchestrator[[]domain.Route] {
	return s.schedule
}

// Schedule returns the live schedule, or the offline copy when the live
// source is unavailable.
func (s *ScheduleService) Schedule(ctx context.Context) (Result[[]domain.Route], error) {
	return s.schedule.Read(ctx)
}

// Refresh bypasses the volatile cache and fetches the schedule again.
func (s *ScheduleService) Refresh(ctx context.Context) (Result[[]domain.Route], error) {
	return s.schedule.Refresh(ctx)
}

// ResyncOnReconnect returns a connectivity listener that refreshes the
// schedule in the background each time the device comes back online.
func (s *ScheduleService) ResyncOnReconnect(ctx context.Context) func(offline bool) {
	return func(offline bool) {
		if offline {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()
			if _, err := s.schedule.Refresh(ctx); err != nil {
				s.logger.Warn("Resync after reconnect failed", "error", err)
				return
			}
			s.logger.Info("Schedule resynced after reconnect")
		}()
	}
}

// RouteDetail returns the detailed view of a route. When the live source is
// unreachable the detail is rebuilt from the cached schedule.
func (s *ScheduleService) RouteDetail(ctx context.Context, routeID string) (domain.RouteDetail, error) {
	if routeID == "" {
		return domain.RouteDetail{}, ErrInvalidRouteID
	}

	cause := errOffline
	if !s.offlineNow() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		detail, err := s.source.FetchRouteDetail(fetchCtx, routeID)
		cancel()
		if err == nil {
			return detail, nil
		}
		if errors.Is(err, remote.ErrNotFound) {
			return domain.RouteDetail{}, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
		}
		s.logger.Warn("Route detail fetch failed, using cached schedule", "route_id", routeID, "error", err)
		cause = err
	}

	routes, ok := s.schedule.Cached(ctx)
	if !ok {
		return domain.RouteDetail{}, fmt.Errorf("%w: %s: %w", ErrNoDataAvailable, routeID, cause)
	}
	route, ok := domain.FindRoute(routes, routeID)
	if !ok {
		return domain.RouteDetail{}, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}
	return domain.BuildRouteDetail(route), nil
}

// Search finds routes whose name or stops match from or to. When nothing
// matches every route is returned.
func (s *ScheduleService) Search(ctx context.Context, from, to string) ([]domain.Route, error) {
	cause := errOffline
	if !s.offlineNow() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		routes, err := s.source.SearchRoutes(fetchCtx, from, to)
		cancel()
		if err == nil {
			return routes, nil
		}
		s.logger.Warn("Route search failed, searching cached schedule", "from", from, "to", to, "error", err)
		cause = err
	}

	routes, ok := s.schedule.Cached(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: search: %w", ErrNoDataAvailable, cause)
	}
	return domain.SearchRoutes(routes, from, to), nil
}

// NearbyStops returns stations and stands near a location. Each live
// answer replaces the offline copy, which is served when offline.
func (s *ScheduleService) NearbyStops(ctx context.Context, lat, lon float64) ([]domain.NearbyStop, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidLocation
	}

	cause := errOffline
	if !s.offlineNow() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		stops, err := s.source.FetchNearbyStops(fetchCtx, lat, lon)
		cancel()
		if err == nil {
			if err := s.offline.Set(ctx, DatasetNearbyStops, stops); err != nil {
				s.logger.Warn("Failed to persist nearby stops", "error", err)
			}
			return stops, nil
		}
		s.logger.Warn("Nearby stops fetch failed, using offline copy", "error", err)
		cause = err
	}

	var stops []domain.NearbyStop
	if _, ok := s.offline.Peek(ctx, DatasetNearbyStops, &stops); !ok {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoDataAvailable, DatasetNearbyStops, cause)
	}
	return stops, nil
}

func (s *ScheduleService) offlineNow() bool {
	return s.conn != nil && s.conn.Offline()
}

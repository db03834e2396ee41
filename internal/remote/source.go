// Package remote provides live transport schedule sources.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"

	"gomate/internal/domain"
)

var (
	// ErrNetwork is returned when the provider could not be reached or failed.
	ErrNetwork = errors.New("network error")

	// ErrTimeout is returned when a request ran out of time.
	ErrTimeout = errors.New("request timed out")

	// ErrNotFound is returned when a route id is unknown to the provider.
	ErrNotFound = errors.New("route not found")
)

// Source is a live transport data provider.
// Implementations must honor ctx cancellation and deadlines.
type Source interface {
	FetchSchedule(ctx context.Context) ([]domain.Route, error)
	FetchRouteDetail(ctx context.Context, routeID string) (domain.RouteDetail, error)
	SearchRoutes(ctx context.Context, from, to string) ([]domain.Route, error)
	FetchNearbyStops(ctx context.Context, lat, lon float64) ([]domain.NearbyStop, error)
}

// classify maps a transport failure onto ErrTimeout or ErrNetwork.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

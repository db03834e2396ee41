package service

import "errors"

var (
	// ErrNoDataAvailable is returned when the live fetch failed and nothing is cached.
	ErrNoDataAvailable = errors.New("no data available")

	// ErrRouteNotFound is returned when a route id is unknown.
	ErrRouteNotFound = errors.New("route not found")

	// ErrInvalidRouteID is returned when route ID is empty.
	ErrInvalidRouteID = errors.New("invalid route id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidPassengers is returned when fewer than one passenger is booked.
	ErrInvalidPassengers = errors.New("passengers must be at least 1")

	// ErrInvalidTicketClass is returned when the requested class is not offered on the route.
	ErrInvalidTicketClass = errors.New("ticket class not available")

	// ErrInvalidFavorite is returned when a favorite has no id.
	ErrInvalidFavorite = errors.New("invalid favorite")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")
)

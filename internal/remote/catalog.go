package remote

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gomate/internal/domain"
)

//go:embed catalog.json
var catalogJSON []byte

type catalog struct {
	Routes      []domain.Route
	NearbyStops []domain.NearbyStop
}

// loadCatalog parses the built-in route catalog through the same
// normalization as live provider responses.
func loadCatalog() (catalog, error) {
	var raw struct {
		Routes      json.RawMessage     `json:"routes"`
		NearbyStops []domain.NearbyStop `json:"nearbyStops"`
	}
	if err := json.Unmarshal(catalogJSON, &raw); err != nil {
		return catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	routes, err := decodeRoutes(raw.Routes)
	if err != nil {
		return catalog{}, fmt.Errorf("failed to parse catalog routes: %w", err)
	}

	return catalog{Routes: routes, NearbyStops: raw.NearbyStops}, nil
}

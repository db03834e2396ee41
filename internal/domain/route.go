package domain

import (
	"fmt"
	"strings"
)

// TransportType identifies the vehicle serving a route.
type TransportType string

const (
	TransportTrain TransportType = "Train"
	TransportBus   TransportType = "Bus"
)

// RouteStatus represents the live status of a route.
type RouteStatus string

const (
	RouteStatusOnTime        RouteStatus = "On Time"
	RouteStatusDelayed       RouteStatus = "Delayed"
	RouteStatusDepartingSoon RouteStatus = "Departing Soon"
)

// VehicleDetails describes the rolling stock of a route.
type VehicleDetails struct {
	Model         string   `json:"model"`
	Capacity      int      `json:"capacity"`
	Features      []string `json:"features,omitempty"`
	Accessibility string   `json:"accessibility,omitempty"`
}

// Route is a single transport schedule item.
// Routes are never mutated once built; a fetch produces a new set.
//
// A Delayed status is expected to come with a positive RealTimeDelay,
// but nothing enforces it.
type Route struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          TransportType   `json:"type"`
	Operator      string          `json:"operator"`
	Status        RouteStatus     `json:"status"`
	Departure     string          `json:"departure"`
	Arrival       string          `json:"arrival"`
	Duration      string          `json:"duration,omitempty"`
	Price         int             `json:"price"`
	Stops         []string        `json:"stops"`
	Frequency     string          `json:"frequency,omitempty"`
	Description   string          `json:"description,omitempty"`
	RealTimeDelay int             `json:"realTimeDelay"`
	Platform      string          `json:"platform"`
	VehicleNumber string          `json:"vehicleNumber,omitempty"`
	Vehicle       *VehicleDetails `json:"vehicleDetails,omitempty"`
	LastUpdated   string          `json:"lastUpdated,omitempty"`
}

// Matches reports whether the query is a case-insensitive substring of
// the route name or of any stop name.
func (r Route) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}
	for _, stop := range r.Stops {
		if strings.Contains(strings.ToLower(stop), q) {
			return true
		}
	}
	return false
}

// SearchRoutes returns the routes matching from or to.
// When nothing matches the full input set is returned.
func SearchRoutes(routes []Route, from, to string) []Route {
	var results []Route
	for _, r := range routes {
		if r.Matches(from) || r.Matches(to) {
			results = append(results, r)
		}
	}
	if len(results) == 0 {
		return routes
	}
	return results
}

// FindRoute returns the route with the given id.
func FindRoute(routes []Route, id string) (Route, bool) {
	for _, r := range routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}

// StopDetail is a stop along a route with its expected arrival.
type StopDetail struct {
	Name        string   `json:"name"`
	ArrivalTime string   `json:"arrivalTime"`
	Platform    string   `json:"platform"`
	Facilities  []string `json:"facilities"`
}

// TicketClass is a bookable fare class on a route.
type TicketClass struct {
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Available bool   `json:"available"`
}

// RouteDetail is a route with its stop, amenity and fare breakdown.
type RouteDetail struct {
	Route
	DetailedStops []StopDetail  `json:"detailedStops"`
	Amenities     []string      `json:"amenities"`
	TicketClasses []TicketClass `json:"ticketClasses"`
}

var stopFacilities = []string{"Waiting Area", "Restrooms", "Food Court"}

// BuildRouteDetail expands a route into its detailed view.
func BuildRouteDetail(r Route) RouteDetail {
	stops := make([]StopDetail, 0, len(r.Stops))
	for i, name := range r.Stops {
		arrival := r.Departure
		if i > 0 {
			arrival = fmt.Sprintf("%d:%02d AM", 6+i, (30+i*15)%60)
		}
		stops = append(stops, StopDetail{
			Name:        name,
			ArrivalTime: arrival,
			Platform:    r.Platform,
			Facilities:  stopFacilities,
		})
	}

	detail := RouteDetail{Route: r, DetailedStops: stops}
	if r.Type == TransportTrain {
		detail.Amenities = []string{"AC Coaches", "Observation Deck", "Dining Car", "WiFi"}
		detail.TicketClasses = []TicketClass{
			{Name: "1st Class", Price: r.Price * 2, Available: true},
			{Name: "2nd Class", Price: r.Price * 3 / 2, Available: true},
			{Name: "3rd Class", Price: r.Price, Available: true},
		}
	} else {
		detail.Amenities = []string{"AC", "Reclining Seats", "USB Charging", "Entertainment"}
		detail.TicketClasses = []TicketClass{
			{Name: "Luxury", Price: r.Price * 3 / 2, Available: true},
			{Name: "Standard", Price: r.Price, Available: true},
		}
	}
	return detail
}

// TicketClass looks up a class by name, ignoring case.
// Classes that are not available are reported as missing.
func (d RouteDetail) TicketClass(name string) (TicketClass, bool) {
	for _, tc := range d.TicketClasses {
		if strings.EqualFold(tc.Name, name) {
			return tc, tc.Available
		}
	}
	return TicketClass{}, false
}

// TicketClassPrice returns the unit price of the named class.
func (d RouteDetail) TicketClassPrice(name string) (int, bool) {
	tc, ok := d.TicketClass(name)
	return tc.Price, ok
}

// NearbyStop is a station or bus stand close to a location.
type NearbyStop struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     TransportType `json:"type"`
	Distance string        `json:"distance"`
	Lat      float64       `json:"lat"`
	Lon      float64       `json:"lon"`
	Routes   []string      `json:"routes"`
}

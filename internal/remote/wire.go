package remote

import (
	"encoding/json"

	"gomate/internal/domain"
)

// wireRoute is a route as providers send it. Older feeds name the route
// by "title" and carry the vehicle number as trainNumber or busNumber;
// normalize folds those into the domain shape.
type wireRoute struct {
	domain.Route
	ID          domain.ID `json:"id"`
	Title       string    `json:"title"`
	TrainNumber string    `json:"trainNumber"`
	BusNumber   string    `json:"busNumber"`
}

func (w wireRoute) normalize() domain.Route {
	r := w.Route
	r.ID = string(w.ID)
	if r.Name == "" {
		r.Name = w.Title
	}
	if r.VehicleNumber == "" {
		if w.TrainNumber != "" {
			r.VehicleNumber = w.TrainNumber
		} else {
			r.VehicleNumber = w.BusNumber
		}
	}
	if r.Stops == nil {
		r.Stops = []string{}
	}
	return r
}

type wireRouteDetail struct {
	wireRoute
	DetailedStops []domain.StopDetail  `json:"detailedStops"`
	Amenities     []string             `json:"amenities"`
	TicketClasses []domain.TicketClass `json:"ticketClasses"`
}

// normalize fills any breakdown the provider left out from the route itself.
func (w wireRouteDetail) normalize() domain.RouteDetail {
	detail := domain.BuildRouteDetail(w.wireRoute.normalize())
	if len(w.DetailedStops) > 0 {
		detail.DetailedStops = w.DetailedStops
	}
	if len(w.Amenities) > 0 {
		detail.Amenities = w.Amenities
	}
	if len(w.TicketClasses) > 0 {
		detail.TicketClasses = w.TicketClasses
	}
	return detail
}

func decodeRoutes(data []byte) ([]domain.Route, error) {
	var wire []wireRoute
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	routes := make([]domain.Route, 0, len(wire))
	for _, w := range wire {
		routes = append(routes, w.normalize())
	}
	return routes, nil
}

func decodeRouteDetail(data []byte) (domain.RouteDetail, error) {
	var wire wireRouteDetail
	if err := json.Unmarshal(data, &wire); err != nil {
		return domain.RouteDetail{}, err
	}
	return wire.normalize(), nil
}

package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ID identifies tickets and history entries.
// Stored data carries both numeric and string ids. Ids in canonical integer
// form are written back as JSON numbers so existing records keep their
// shape; anything else, such as "007", stays a string.
type ID string

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Ticket is a booking. It is immutable once created.
type Ticket struct {
	TicketID   ID            `json:"ticketId,omitempty"`
	RouteID    string        `json:"routeId,omitempty"`
	Name       string        `json:"name,omitempty"`
	Type       TransportType `json:"type,omitempty"`
	Operator   string        `json:"operator,omitempty"`
	Departure  string        `json:"departure,omitempty"`
	Arrival    string        `json:"arrival,omitempty"`
	Class      string        `json:"class,omitempty"`
	Passengers int           `json:"passengers,omitempty"`
	Price      int           `json:"price,omitempty"`
	TotalPrice int           `json:"totalPrice,omitempty"`
	BookedAt   time.Time     `json:"bookedAt,omitzero"`
}

// Amount is what the trip cost: the total price, or the unit price
// for records that never carried a total.
func (t Ticket) Amount() int {
	if t.TotalPrice != 0 {
		return t.TotalPrice
	}
	return t.Price
}

// TripHistoryEntry is a ticket recorded in the trip history ledger.
type TripHistoryEntry struct {
	ID ID `json:"id"`
	Ticket
	SavedAt time.Time `json:"savedAt,omitzero"`
}

// UnmarshalJSON normalizes older records that name the trip by "title".
func (e *TripHistoryEntry) UnmarshalJSON(data []byte) error {
	type plain TripHistoryEntry
	aux := struct {
		*plain
		Title string `json:"title"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.Name == "" {
		e.Name = aux.Title
	}
	return nil
}

// recentTripsLimit bounds TripStatistics.RecentTrips.
const recentTripsLimit = 5

// TripStatistics is derived from a trip history. It is never stored.
type TripStatistics struct {
	TotalTrips           int                `json:"totalTrips"`
	TotalSpent           int                `json:"totalSpent"`
	TrainTrips           int                `json:"trainTrips"`
	BusTrips             int                `json:"busTrips"`
	FavoriteDestinations map[string]int     `json:"favoriteDestinations"`
	RecentTrips          []TripHistoryEntry `json:"recentTrips"`
}

// ComputeStatistics folds a history into its statistics.
func ComputeStatistics(history []TripHistoryEntry) TripStatistics {
	stats := TripStatistics{
		TotalTrips:           len(history),
		FavoriteDestinations: make(map[string]int),
		RecentTrips:          make([]TripHistoryEntry, 0, recentTripsLimit),
	}

	for i, trip := range history {
		stats.TotalSpent += trip.Amount()

		switch trip.Type {
		case TransportTrain:
			stats.TrainTrips++
		case TransportBus:
			stats.BusTrips++
		}

		if trip.Name != "" {
			stats.FavoriteDestinations[trip.Name]++
		}

		if i < recentTripsLimit {
			stats.RecentTrips = append(stats.RecentTrips, trip)
		}
	}

	return stats
}

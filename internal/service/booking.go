package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gomate/internal/domain"
	"gomate/internal/logger"
)

// IDGenerator produces ticket ids.
type IDGenerator func() string

// BookingService books tickets into the wallet and the trip history.
type BookingService struct {
	schedule *ScheduleService
	ledger   *TripLedger
	newID    IDGenerator
	now      func() time.Time
	logger   logger.Logger

	mu     sync.RWMutex
	wallet []domain.Ticket // most recent first
}

// NewBookingService creates a new BookingService. A nil generator uses UUIDs.
func NewBookingService(schedule *ScheduleService, ledger *TripLedger, newID IDGenerator, log logger.Logger) *BookingService {
	if newID == nil {
		newID = uuid.NewString
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BookingService{
		schedule: schedule,
		ledger:   ledger,
		newID:    newID,
		now:      time.Now,
		logger:   log,
	}
}

// BookRequest contains the parameters for booking a ticket.
type BookRequest struct {
	RouteID    string
	Passengers int
	Class      string // Optional: empty books the base fare
}

// Book creates a ticket for the route. The ticket is priced from the route
// detail so it works offline from the cached schedule.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (domain.Ticket, error) {
	if req.RouteID == "" {
		return domain.Ticket{}, ErrInvalidRouteID
	}
	if req.Passengers < 1 {
		return domain.Ticket{}, ErrInvalidPassengers
	}

	detail, err := s.schedule.RouteDetail(ctx, req.RouteID)
	if err != nil {
		return domain.Ticket{}, err
	}

	unitPrice, class, err := priceFor(detail, req.Class)
	if err != nil {
		return domain.Ticket{}, err
	}

	ticket := domain.Ticket{
		TicketID:   domain.ID(s.newID()),
		RouteID:    detail.ID,
		Name:       detail.Name,
		Type:       detail.Type,
		Operator:   detail.Operator,
		Departure:  detail.Departure,
		Arrival:    detail.Arrival,
		Class:      class,
		Passengers: req.Passengers,
		Price:      unitPrice,
		TotalPrice: unitPrice * req.Passengers,
		BookedAt:   s.now().UTC(),
	}

	if _, err := s.ledger.Append(ctx, ticket); err != nil {
		return domain.Ticket{}, err
	}

	s.mu.Lock()
	s.wallet = append([]domain.Ticket{ticket}, s.wallet...)
	s.mu.Unlock()

	s.logger.Info("Ticket booked", "ticket_id", ticket.TicketID, "route_id", ticket.RouteID, "total_price", ticket.TotalPrice)
	return ticket, nil
}

// Wallet returns the tickets booked in this session, most recent first.
func (s *BookingService) Wallet() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Ticket, len(s.wallet))
	copy(out, s.wallet)
	return out
}

// priceFor resolves the unit price of a class. An empty class books the
// cheapest fare, which is always the route's base price.
func priceFor(detail domain.RouteDetail, class string) (int, string, error) {
	if class == "" {
		if n := len(detail.TicketClasses); n > 0 {
			return detail.TicketClasses[n-1].Price, detail.TicketClasses[n-1].Name, nil
		}
		return detail.Price, "", nil
	}

	tc, ok := detail.TicketClass(class)
	if !ok {
		return 0, "", ErrInvalidTicketClass
	}
	return tc.Price, tc.Name, nil
}

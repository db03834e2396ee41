package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomate/internal/service"
)

// BookingHandler handles HTTP requests for bookings and the ticket wallet.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookRequest is the HTTP request body for booking a ticket.
type BookRequest struct {
	RouteID    string `json:"routeId"`
	Passengers *int   `json:"passengers"` // defaults to 1
	Class      string `json:"class"`
}

// Book handles POST /v1/bookings
func (h *BookingHandler) Book(c *gin.Context) {
	var req BookRequest
	if !bindJSON(c, &req) {
		return
	}
	passengers := 1
	if req.Passengers != nil {
		passengers = *req.Passengers
	}

	ticket, err := h.bookingService.Book(c.Request.Context(), service.BookRequest{
		RouteID:    req.RouteID,
		Passengers: passengers,
		Class:      req.Class,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, ticket)
}

// GetTickets handles GET /v1/tickets
func (h *BookingHandler) GetTickets(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.bookingService.Wallet())
}

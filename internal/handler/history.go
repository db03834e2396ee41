package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomate/internal/domain"
	"gomate/internal/service"
)

// HistoryHandler handles HTTP requests for the trip history.
type HistoryHandler struct {
	ledger *service.TripLedger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(ledger *service.TripLedger) *HistoryHandler {
	return &HistoryHandler{ledger: ledger}
}

// GetHistory handles GET /v1/history
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.ledger.List(c.Request.Context()))
}

// GetStatistics handles GET /v1/history/statistics
func (h *HistoryHandler) GetStatistics(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.ledger.Statistics(c.Request.Context()))
}

// RemoveTrip handles DELETE /v1/history/:id
func (h *HistoryHandler) RemoveTrip(c *gin.Context) {
	if err := h.ledger.Remove(c.Request.Context(), domain.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearHistory handles DELETE /v1/history
func (h *HistoryHandler) ClearHistory(c *gin.Context) {
	if err := h.ledger.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomate/internal/reachability"
)

// ConnectivityHandler exposes the offline flag.
type ConnectivityHandler struct {
	monitor *reachability.Monitor
}

// NewConnectivityHandler creates a new ConnectivityHandler.
func NewConnectivityHandler(monitor *reachability.Monitor) *ConnectivityHandler {
	return &ConnectivityHandler{monitor: monitor}
}

// SetConnectivityRequest is the HTTP request body for overriding connectivity.
type SetConnectivityRequest struct {
	Offline *bool `json:"offline"`
}

// GetConnectivity handles GET /v1/connectivity
func (h *ConnectivityHandler) GetConnectivity(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.monitor.State())
}

// SetConnectivity handles POST /v1/connectivity
func (h *ConnectivityHandler) SetConnectivity(c *gin.Context) {
	var req SetConnectivityRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Offline == nil {
		respondError(c, errMissingOffline)
		return
	}

	h.monitor.Set(*req.Offline)
	respondJSON(c, http.StatusOK, h.monitor.State())
}

// StreamConnectivity handles GET /v1/connectivity/stream. It sends the
// current state, then one server-sent event per transition until the
// client goes away. Transitions are dropped for a client that stops reading.
func (h *ConnectivityHandler) StreamConnectivity(c *gin.Context) {
	events := make(chan reachability.State, 8)
	sub := h.monitor.AddListener(func(bool) {
		select {
		case events <- h.monitor.State():
		default:
		}
	})
	defer sub.Unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("connectivity", h.monitor.State())
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case state := <-events:
			c.SSEvent("connectivity", state)
			c.Writer.Flush()
		}
	}
}

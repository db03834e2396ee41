package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gomate/internal/domain"
	"gomate/internal/service"
)

// ScheduleHandler handles HTTP requests for schedules and routes.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// ScheduleResponse is the HTTP response for schedule reads.
type ScheduleResponse struct {
	Routes   []domain.Route `json:"routes"`
	State    string         `json:"state"`
	Stale    bool           `json:"stale"`
	StoredAt string         `json:"storedAt,omitempty"`
}

func newScheduleResponse(result service.Result[[]domain.Route]) ScheduleResponse {
	resp := ScheduleResponse{
		Routes: result.Data,
		State:  string(result.State),
		Stale:  result.Stale,
	}
	if resp.Routes == nil {
		resp.Routes = []domain.Route{}
	}
	if !result.StoredAt.IsZero() {
		resp.StoredAt = result.StoredAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// GetSchedule handles GET /v1/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	result, err := h.scheduleService.Schedule(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newScheduleResponse(result))
}

// RefreshSchedule handles POST /v1/schedule/refresh
func (h *ScheduleHandler) RefreshSchedule(c *gin.Context) {
	result, err := h.scheduleService.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newScheduleResponse(result))
}

// GetSyncState handles GET /v1/schedule/state
func (h *ScheduleHandler) GetSyncState(c *gin.Context) {
	o := h.scheduleService.Orchestrator()
	respondJSON(c, http.StatusOK, gin.H{
		"state":      o.State(),
		"generation": o.Generation(),
	})
}

// GetRoute handles GET /v1/routes/:id
func (h *ScheduleHandler) GetRoute(c *gin.Context) {
	detail, err := h.scheduleService.RouteDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, detail)
}

// SearchRoutes handles GET /v1/routes/search?from=&to=
func (h *ScheduleHandler) SearchRoutes(c *gin.Context) {
	routes, err := h.scheduleService.Search(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	if routes == nil {
		routes = []domain.Route{}
	}
	respondJSON(c, http.StatusOK, routes)
}

// NearbyStops handles GET /v1/stops/nearby?lat=&lon=
func (h *ScheduleHandler) NearbyStops(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	stops, err := h.scheduleService.NearbyStops(c.Request.Context(), lat, lon)
	if err != nil {
		respondError(c, err)
		return
	}
	if stops == nil {
		stops = []domain.NearbyStop{}
	}
	respondJSON(c, http.StatusOK, stops)
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gomate/internal/domain"
	"gomate/internal/service"
)

// PreferenceHandler handles HTTP requests for user preferences and sync time.
type PreferenceHandler struct {
	preferenceService *service.PreferenceService
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(preferenceService *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

// GetPreferences handles GET /v1/preferences
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.preferenceService.Preferences(c.Request.Context()))
}

// SavePreferences handles PUT /v1/preferences
func (h *PreferenceHandler) SavePreferences(c *gin.Context) {
	var prefs domain.UserPreferences
	if !bindJSON(c, &prefs) {
		return
	}
	if err := h.preferenceService.SavePreferences(c.Request.Context(), prefs); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, prefs)
}

// LastSyncResponse is the HTTP response for the last sync time.
type LastSyncResponse struct {
	LastSync string `json:"lastSync,omitempty"`
	Synced   bool   `json:"synced"`
}

// GetLastSync handles GET /v1/sync/last
func (h *PreferenceHandler) GetLastSync(c *gin.Context) {
	at, ok := h.preferenceService.LastSync(c.Request.Context())
	resp := LastSyncResponse{Synced: ok}
	if ok {
		resp.LastSync = at.UTC().Format(time.RFC3339Nano)
	}
	respondJSON(c, http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomate/internal/cache"
	"gomate/internal/service"
)

// StorageHandler handles HTTP requests for cache and storage maintenance.
type StorageHandler struct {
	storageService *service.StorageService
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(storageService *service.StorageService) *StorageHandler {
	return &StorageHandler{storageService: storageService}
}

// CacheEntryResponse describes one cached key in seconds.
type CacheEntryResponse struct {
	Key              string  `json:"key"`
	AgeSeconds       float64 `json:"ageSeconds"`
	ExpiresInSeconds float64 `json:"expiresInSeconds"`
}

// CacheStatusResponse is the HTTP response for cache status.
type CacheStatusResponse struct {
	Volatile []CacheEntryResponse `json:"volatile"`
	Offline  []CacheEntryResponse `json:"offline"`
}

func toCacheEntries(statuses []cache.Status) []CacheEntryResponse {
	out := make([]CacheEntryResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, CacheEntryResponse{
			Key:              s.Key,
			AgeSeconds:       s.Age.Seconds(),
			ExpiresInSeconds: s.ExpiresIn.Seconds(),
		})
	}
	return out
}

// GetCacheStatus handles GET /v1/cache/status
func (h *StorageHandler) GetCacheStatus(c *gin.Context) {
	offline, err := h.storageService.OfflineStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, CacheStatusResponse{
		Volatile: toCacheEntries(h.storageService.CacheStatus()),
		Offline:  toCacheEntries(offline),
	})
}

// PruneCache handles POST /v1/cache/prune
func (h *StorageHandler) PruneCache(c *gin.Context) {
	removed, err := h.storageService.PruneCache(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"removed": removed})
}

// ClearCache handles DELETE /v1/cache
func (h *StorageHandler) ClearCache(c *gin.Context) {
	if err := h.storageService.ClearCache(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStorageInfo handles GET /v1/storage
func (h *StorageHandler) GetStorageInfo(c *gin.Context) {
	items, err := h.storageService.Info(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, items)
}

// ClearStorage handles DELETE /v1/storage
func (h *StorageHandler) ClearStorage(c *gin.Context) {
	if err := h.storageService.ClearAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

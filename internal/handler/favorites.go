package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gomate/internal/domain"
	"gomate/internal/service"
)

// FavoritesHandler handles HTTP requests for favorites.
type FavoritesHandler struct {
	favoritesService *service.FavoritesService
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(favoritesService *service.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{favoritesService: favoritesService}
}

// GetFavorites handles GET /v1/favorites
func (h *FavoritesHandler) GetFavorites(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.favoritesService.List())
}

// ToggleFavorite handles POST /v1/favorites
func (h *FavoritesHandler) ToggleFavorite(c *gin.Context) {
	var item domain.Favorite
	if !bindJSON(c, &item) {
		return
	}
	favorite, err := h.favoritesService.Toggle(item)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"id": item.ID, "favorite": favorite})
}

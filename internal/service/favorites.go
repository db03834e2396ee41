package service

import (
	"sync"

	"gomate/internal/domain"
)

// FavoritesService keeps the session's starred items in insertion order.
type FavoritesService struct {
	mu    sync.RWMutex
	items []domain.Favorite
}

// NewFavoritesService creates a new FavoritesService.
func NewFavoritesService() *FavoritesService {
	return &FavoritesService{}
}

// Toggle adds the item, or removes it if an item with the same id is
// already starred. It reports whether the item is now a favorite.
func (s *FavoritesService) Toggle(item domain.Favorite) (bool, error) {
	if item.ID == "" {
		return false, ErrInvalidFavorite
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, fav := range s.items {
		if fav.ID == item.ID {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return false, nil
		}
	}
	s.items = append(s.items, item)
	return true, nil
}

// List returns the favorites.
func (s *FavoritesService) List() []domain.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Favorite, len(s.items))
	copy(out, s.items)
	return out
}

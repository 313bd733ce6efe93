package service

import (
	"context"

	"mangazone-api/internal/domain"
)

// LibraryService maintains the per-user favorites and reading history.
// Both lists are newest first, unique by manga and capped.
type LibraryService struct {
	store        domain.Store
	favoritesCap int
	historyCap   int
	now          clock
}

func NewLibraryService(store domain.Store, favoritesCap, historyCap int) *LibraryService {
	if favoritesCap <= 0 {
		favoritesCap = domain.DefaultFavoritesCap
	}
	if historyCap <= 0 {
		historyCap = domain.DefaultHistoryCap
	}
	return &LibraryService{store: store, favoritesCap: favoritesCap, historyCap: historyCap, now: systemClock}
}

// AddFavorite prepends e unless the manga is already a favorite.
func (s *LibraryService) AddFavorite(ctx context.Context, userID string, e domain.FavoriteEntry) ([]domain.FavoriteEntry, error) {
	if userID == "" || e.MangaID == "" {
		return nil, domain.BadRequest("userId and manga are required")
	}
	return s.store.Users().AddFavorite(ctx, userID, e, s.favoritesCap)
}

func (s *LibraryService) RemoveFavorite(ctx context.Context, userID, mangaID string) ([]domain.FavoriteEntry, error) {
	if userID == "" || mangaID == "" {
		return nil, domain.BadRequest("userId and mangaId are required")
	}
	return s.store.Users().RemoveFavorite(ctx, userID, mangaID)
}

// AddHistory moves the manga to the front, stamped now, and marks the
// user active.
func (s *LibraryService) AddHistory(ctx context.Context, userID string, e domain.HistoryEntry) ([]domain.HistoryEntry, error) {
	if userID == "" || e.MangaID == "" {
		return nil, domain.BadRequest("userId and manga are required")
	}
	now := s.now()
	e.LastRead = now
	return s.store.Users().PushHistory(ctx, userID, e, s.historyCap, now)
}

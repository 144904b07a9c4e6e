package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"event-booking/internal/storage"
	"event-booking/models"
)

// FavoritesService keeps an ordered, duplicate-free list of favorite event
// ids per user.
type FavoritesService struct {
	store   storage.Store
	catalog *CatalogService

	mu sync.Mutex
}

func NewFavoritesService(store storage.Store, catalog *CatalogService) *FavoritesService {
	return &FavoritesService{store: store, catalog: catalog}
}

func (s *FavoritesService) load(ctx context.Context, userID string) []string {
	var ids []string
	if !storage.LoadOr(ctx, s.store, storage.FavoritesKey(userID), &ids) {
		return []string{}
	}
	return ids
}

// Toggle adds eventID when absent and removes it when present. It reports
// whether the event is a favorite afterwards.
func (s *FavoritesService) Toggle(ctx context.Context, userID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	found, err := storage.LoadForUpdate(ctx, s.store, storage.FavoritesKey(userID), &ids)
	if err != nil {
		slog.Error("Failed to load favorites", "error", err, "user_id", userID)
		return false, err
	}
	if !found {
		ids = []string{}
	}
	favorited := false
	if i := slices.Index(ids, eventID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, eventID)
		favorited = true
	}

	if err := s.store.Save(ctx, storage.FavoritesKey(userID), ids); err != nil {
		slog.Error("Failed to save favorites", "error", err, "user_id", userID)
		return !favorited, err
	}
	return favorited, nil
}

func (s *FavoritesService) IsFavorite(ctx context.Context, userID, eventID string) bool {
	return slices.Contains(s.List(ctx, userID), eventID)
}

func (s *FavoritesService) List(ctx context.Context, userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, userID)
}

// Events resolves favorite ids against the catalog, skipping ids that no
// longer exist.
func (s *FavoritesService) Events(ctx context.Context, userID string) []models.Event {
	ids := s.List(ctx, userID)
	byID := make(map[string]models.Event)
	for _, event := range s.catalog.List(ctx) {
		byID[event.ID] = event
	}

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if event, ok := byID[id]; ok {
			events = append(events, event)
		}
	}
	return events
}

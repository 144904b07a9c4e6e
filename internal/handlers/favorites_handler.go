package handlers

import (
	"net/http"

	"event-booking/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type FavoritesHandler struct {
	favorites *services.FavoritesService
	catalog   *services.CatalogService
}

func NewFavoritesHandler(favorites *services.FavoritesService, catalog *services.CatalogService) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites, catalog: catalog}
}

func (h *FavoritesHandler) List(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	userID := currentUser(e).ID

	return e.JSON(http.StatusOK, map[string]any{
		"ids":    h.favorites.List(ctx, userID),
		"events": h.favorites.Events(ctx, userID),
	})
}

func (h *FavoritesHandler) Toggle(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	eventID := e.Request.PathValue("eventId")
	if _, err := h.catalog.Get(ctx, eventID); err != nil {
		return apiError(err)
	}

	favorited, err := h.favorites.Toggle(ctx, currentUser(e).ID, eventID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"eventId":  eventID,
		"favorite": favorited,
	})
}

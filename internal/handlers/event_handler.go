package handlers

import (
	"net/http"
	"strings"

	"event-booking/internal/services"
	"event-booking/monitoring"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const similarEventsLimit = 3

type EventHandler struct {
	catalog   *services.CatalogService
	reviews   *services.ReviewService
	favorites *services.FavoritesService
	publicURL string
}

func NewEventHandler(catalog *services.CatalogService, reviews *services.ReviewService, favorites *services.FavoritesService, publicURL string) *EventHandler {
	return &EventHandler{
		catalog:   catalog,
		reviews:   reviews,
		favorites: favorites,
		publicURL: publicURL,
	}
}

func (h *EventHandler) Categories(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"categories": h.catalog.Categories()})
}

// filterFromQuery reads q, category, minPrice, maxPrice, date and location.
// Unparseable prices keep their defaults.
func filterFromQuery(e *core.RequestEvent) services.FilterSpec {
	query := e.Request.URL.Query()
	spec := services.DefaultFilterSpec()

	spec.SearchTerm = strings.TrimSpace(query.Get("q"))
	if category := query.Get("category"); category != "" {
		spec.Category = category
	}
	if minPrice, err := decimal.NewFromString(query.Get("minPrice")); err == nil {
		spec.PriceRange[0] = minPrice
	}
	if maxPrice, err := decimal.NewFromString(query.Get("maxPrice")); err == nil {
		spec.PriceRange[1] = maxPrice
	}
	spec.Date = query.Get("date")
	spec.Location = strings.TrimSpace(query.Get("location"))
	return spec
}

func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	spec := filterFromQuery(e)
	events := h.catalog.Filter(e.Request.Context(), spec)
	monitoring.TrackFilter(len(events))

	return e.JSON(http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
		"filter": spec,
	})
}

func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	eventID := e.Request.PathValue("eventId")

	event, err := h.catalog.Get(ctx, eventID)
	if err != nil {
		return apiError(err)
	}

	response := map[string]any{
		"event":         event,
		"averageRating": h.reviews.Average(ctx, eventID),
	}
	if countdown, err := h.catalog.Countdown(event); err == nil {
		response["countdown"] = countdown
	}
	if user := currentUser(e); user.ID != "" {
		response["favorite"] = h.favorites.IsFavorite(ctx, user.ID, eventID)
	}
	return e.JSON(http.StatusOK, response)
}

func (h *EventHandler) Similar(e *core.RequestEvent) error {
	limit := queryInt(e, "limit", similarEventsLimit)
	events, err := h.catalog.Similar(e.Request.Context(), e.Request.PathValue("eventId"), limit)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"events": events})
}

func (h *EventHandler) Share(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	event, err := h.catalog.Get(e.Request.Context(), eventID)
	if err != nil {
		return apiError(err)
	}

	shareURL := e.Request.URL.Query().Get("url")
	if shareURL == "" {
		shareURL = h.publicURL + "/book/" + eventID
	}
	return e.JSON(http.StatusOK, map[string]any{"targets": services.ShareLinks(event, shareURL)})
}

func (h *EventHandler) Reviews(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	eventID := e.Request.PathValue("eventId")
	if _, err := h.catalog.Get(ctx, eventID); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reviews":       h.reviews.List(ctx, eventID),
		"averageRating": h.reviews.Average(ctx, eventID),
	})
}

func (h *EventHandler) AddReview(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	eventID := e.Request.PathValue("eventId")
	if _, err := h.catalog.Get(ctx, eventID); err != nil {
		return apiError(err)
	}

	var input services.ReviewInput
	if err := e.BindBody(&input); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	review, err := h.reviews.Add(ctx, eventID, currentUser(e), input)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, review)
}

func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	var draft services.EventDraft
	if err := e.BindBody(&draft); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	event, err := h.catalog.Create(e.Request.Context(), currentUser(e).ID, draft)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, event)
}

// QR renders data as a PNG QR code.
func (h *EventHandler) QR(e *core.RequestEvent) error {
	data := e.Request.URL.Query().Get("data")
	if data == "" {
		return apis.NewBadRequestError("data is required", nil)
	}

	png, err := services.QRPNG(data, queryInt(e, "size", 150))
	if err != nil {
		return apiError(err)
	}
	return e.Blob(http.StatusOK, "image/png", png)
}

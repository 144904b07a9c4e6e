package handlers

import (
	"context"
	"errors"
	"net/http"

	"event-booking/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

var errNoPublisher = errors.New("realtime delivery is not configured")

type TicketHandler struct {
	tickets   *services.TicketService
	tasks     *services.TaskRunner
	publisher services.Publisher
	publicURL string
}

func NewTicketHandler(tickets *services.TicketService, tasks *services.TaskRunner, publisher services.Publisher, publicURL string) *TicketHandler {
	return &TicketHandler{
		tickets:   tickets,
		tasks:     tasks,
		publisher: publisher,
		publicURL: publicURL,
	}
}

func (h *TicketHandler) List(e *core.RequestEvent) error {
	filter := services.ParseTicketFilter(e.Request.URL.Query().Get("status"))
	tickets := h.tickets.List(e.Request.Context(), currentUser(e).ID, filter)

	return e.JSON(http.StatusOK, map[string]any{
		"tickets": tickets,
		"total":   len(tickets),
		"filter":  filter,
	})
}

func (h *TicketHandler) Get(e *core.RequestEvent) error {
	ticket, err := h.tickets.Get(e.Request.Context(), currentUser(e).ID, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) Cancel(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	userID := currentUser(e).ID
	id := e.Request.PathValue("id")

	alreadyCancelled, err := h.tickets.Cancel(ctx, userID, id)
	if err != nil {
		return apiError(err)
	}
	ticket, err := h.tickets.Get(ctx, userID, id)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"ticket":           ticket,
		"alreadyCancelled": alreadyCancelled,
	})
}

func (h *TicketHandler) ClearHistory(e *core.RequestEvent) error {
	if err := h.tickets.ClearHistory(e.Request.Context(), currentUser(e).ID); err != nil {
		return apiError(err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *TicketHandler) Image(e *core.RequestEvent) error {
	ticket, err := h.tickets.Get(e.Request.Context(), currentUser(e).ID, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}

	png, err := services.RenderTicketPNG(ticket, nil)
	if err != nil {
		return apiError(err)
	}
	return e.Blob(http.StatusOK, "image/png", png)
}

// Share hands the ticket to the user's devices in the background. A failed
// hand-off shows up as a notice.
func (h *TicketHandler) Share(e *core.RequestEvent) error {
	userID := currentUser(e).ID
	ticket, err := h.tickets.Get(e.Request.Context(), userID, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}

	payload := services.TicketSharePayload(ticket, h.publicURL+"/my-tickets")
	h.tasks.Go(e.Request.Context(), userID, "share", func(ctx context.Context) error {
		if h.publisher == nil {
			return errNoPublisher
		}
		return h.publisher.Publish(services.UserChannel(userID), payload)
	})
	return e.JSON(http.StatusAccepted, payload)
}

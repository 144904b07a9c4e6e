package handlers

import (
	"net/http"
	"strings"

	"event-booking/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// NotificationHandler serves the notification list and the notices left by
// failed background tasks.
type NotificationHandler struct {
	notifications *services.NotificationService
	tasks         *services.TaskRunner
}

func NewNotificationHandler(notifications *services.NotificationService, tasks *services.TaskRunner) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, tasks: tasks}
}

func (h *NotificationHandler) respond(e *core.RequestEvent, code int) error {
	ctx := e.Request.Context()
	userID := currentUser(e).ID

	list := h.notifications.List(ctx, userID)
	return e.JSON(code, map[string]any{
		"notifications": h.notifications.Views(list),
		"unreadCount":   h.notifications.UnreadCount(ctx, userID),
	})
}

func (h *NotificationHandler) List(e *core.RequestEvent) error {
	return h.respond(e, http.StatusOK)
}

func (h *NotificationHandler) Add(e *core.RequestEvent) error {
	var input services.NotificationInput
	if err := e.BindBody(&input); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if strings.TrimSpace(input.Title) == "" {
		return apis.NewBadRequestError("title is required", nil)
	}

	if _, err := h.notifications.Add(e.Request.Context(), currentUser(e).ID, input); err != nil {
		return apiError(err)
	}
	return h.respond(e, http.StatusCreated)
}

func (h *NotificationHandler) MarkRead(e *core.RequestEvent) error {
	if err := h.notifications.MarkRead(e.Request.Context(), currentUser(e).ID, e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return h.respond(e, http.StatusOK)
}

func (h *NotificationHandler) MarkAllRead(e *core.RequestEvent) error {
	if err := h.notifications.MarkAllRead(e.Request.Context(), currentUser(e).ID); err != nil {
		return apiError(err)
	}
	return h.respond(e, http.StatusOK)
}

func (h *NotificationHandler) Remove(e *core.RequestEvent) error {
	if err := h.notifications.Remove(e.Request.Context(), currentUser(e).ID, e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return h.respond(e, http.StatusOK)
}

func (h *NotificationHandler) ClearAll(e *core.RequestEvent) error {
	if err := h.notifications.ClearAll(e.Request.Context(), currentUser(e).ID); err != nil {
		return apiError(err)
	}
	return h.respond(e, http.StatusOK)
}

func (h *NotificationHandler) Notices(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"notices": h.tasks.Notices(currentUser(e).ID)})
}

func (h *NotificationHandler) DismissNotice(e *core.RequestEvent) error {
	if !h.tasks.Dismiss(currentUser(e).ID, e.Request.PathValue("id")) {
		return apis.NewNotFoundError("Notice not found", nil)
	}
	return e.NoContent(http.StatusNoContent)
}

package handlers

import (
	"io"
	"net/http"

	"event-booking/internal/services"
	"event-booking/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ProfileHandler struct {
	profiles      *services.ProfileService
	maxImageBytes int64
}

func NewProfileHandler(profiles *services.ProfileService, maxImageBytes int64) *ProfileHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = services.DefaultMaxImageBytes
	}
	return &ProfileHandler{profiles: profiles, maxImageBytes: maxImageBytes}
}

func (h *ProfileHandler) Get(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, h.profiles.Get(e.Request.Context(), currentUser(e)))
}

func (h *ProfileHandler) Save(e *core.RequestEvent) error {
	var profile models.Profile
	if err := e.BindBody(&profile); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	saved, err := h.profiles.Save(e.Request.Context(), currentUser(e).ID, profile)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, saved)
}

// SetAvatar takes the raw image as the request body.
func (h *ProfileHandler) SetAvatar(e *core.RequestEvent) error {
	data, err := io.ReadAll(io.LimitReader(e.Request.Body, h.maxImageBytes+1))
	if err != nil {
		return apis.NewBadRequestError("Failed to read image", err)
	}

	profile, err := h.profiles.SetAvatar(e.Request.Context(), currentUser(e), data)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, profile)
}

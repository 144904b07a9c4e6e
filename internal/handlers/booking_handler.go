package handlers

import (
	"io"
	"net/http"

	"event-booking/internal/services"
	"event-booking/internal/status"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// BookingHandler drives the booking wizard of the signed-in user for the
// event in the path.
type BookingHandler struct {
	bookings      *services.BookingService
	maxImageBytes int64
}

func NewBookingHandler(bookings *services.BookingService, maxImageBytes int64) *BookingHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = services.DefaultMaxImageBytes
	}
	return &BookingHandler{bookings: bookings, maxImageBytes: maxImageBytes}
}

func (h *BookingHandler) wizard(e *core.RequestEvent) (*services.BookingWizard, error) {
	wizard, err := h.bookings.Wizard(e.Request.Context(), currentUser(e).ID, e.Request.PathValue("eventId"))
	if err != nil {
		return nil, apiError(err)
	}
	return wizard, nil
}

// step runs a wizard transition and answers with the new state, or 409 when
// the transition is not allowed.
func (h *BookingHandler) step(e *core.RequestEvent, action func(w *services.BookingWizard) bool) error {
	wizard, err := h.wizard(e)
	if err != nil {
		return err
	}
	if !action(wizard) {
		return rejected()
	}
	return e.JSON(http.StatusOK, wizard.State())
}

func (h *BookingHandler) State(e *core.RequestEvent) error {
	wizard, err := h.wizard(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, map[string]any{
		"event": wizard.Event(),
		"state": wizard.State(),
	})
}

func (h *BookingHandler) SelectTier(e *core.RequestEvent) error {
	var req struct {
		Index int `json:"index"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	return h.step(e, func(w *services.BookingWizard) bool { return w.SelectTier(req.Index) })
}

func (h *BookingHandler) SetQuantity(e *core.RequestEvent) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	return h.step(e, func(w *services.BookingWizard) bool { return w.SetQuantity(req.Quantity) })
}

func (h *BookingHandler) Next(e *core.RequestEvent) error {
	return h.step(e, (*services.BookingWizard).Next)
}

func (h *BookingHandler) Back(e *core.RequestEvent) error {
	return h.step(e, (*services.BookingWizard).Back)
}

func (h *BookingHandler) UpdateAttendee(e *core.RequestEvent) error {
	var form services.AttendeeForm
	if err := e.BindBody(&form); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	return h.step(e, func(w *services.BookingWizard) bool { return w.UpdateAttendee(form) })
}

// AttachImage takes the raw image as the request body.
func (h *BookingHandler) AttachImage(e *core.RequestEvent) error {
	wizard, err := h.wizard(e)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(e.Request.Body, h.maxImageBytes+1))
	if err != nil {
		return apis.NewBadRequestError("Failed to read image", err)
	}
	if len(data) == 0 {
		return apis.NewBadRequestError("Image is required", nil)
	}
	if int64(len(data)) > h.maxImageBytes {
		return apiError(&status.ImageTooLargeError{Limit: h.maxImageBytes})
	}

	info, err := wizard.AttachImage(data)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, info)
}

func (h *BookingHandler) RemoveImage(e *core.RequestEvent) error {
	return h.step(e, (*services.BookingWizard).RemoveImage)
}

func (h *BookingHandler) Submit(e *core.RequestEvent) error {
	ticket, err := h.bookings.Submit(e.Request.Context(), currentUser(e).ID, e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, ticket)
}

func (h *BookingHandler) Reset(e *core.RequestEvent) error {
	return h.step(e, (*services.BookingWizard).Reset)
}

// TicketImage exports the confirmed ticket with the attached photo.
func (h *BookingHandler) TicketImage(e *core.RequestEvent) error {
	wizard, err := h.wizard(e)
	if err != nil {
		return err
	}

	state := wizard.State()
	if state.Ticket == nil {
		return rejected()
	}

	var photo []byte
	if img := wizard.Image(); img != nil {
		photo = img.Data
	}
	png, err := services.RenderTicketPNG(*state.Ticket, photo)
	if err != nil {
		return apiError(err)
	}
	return e.Blob(http.StatusOK, "image/png", png)
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"event-booking/internal/services"
	"event-booking/internal/status"

	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// apiError maps a service error onto the HTTP error the client sees.
func apiError(err error) error {
	var verrs validation.Errors
	var tooLarge *status.ImageTooLargeError
	switch {
	case errors.As(err, &verrs):
		return apis.NewBadRequestError("Please check the highlighted fields.", verrs)
	case errors.As(err, &tooLarge):
		return apis.NewBadRequestError(uploadLimitMessage(tooLarge.Limit), nil)
	case errors.Is(err, status.ErrImageTooLarge):
		return apis.NewBadRequestError(uploadLimitMessage(services.DefaultMaxImageBytes), nil)
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Event not found", nil)
	case errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError("Ticket not found", nil)
	case errors.Is(err, status.ErrInvalidTransition),
		errors.Is(err, status.ErrSubmissionInFlight),
		errors.Is(err, status.ErrDuplicateTicket):
		return apis.NewApiError(http.StatusConflict, "", nil)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewUnauthorizedError("Sign in required", nil)
	case errors.Is(err, status.ErrInvalidCredentials):
		return apis.NewUnauthorizedError("Invalid email or password", nil)
	case errors.Is(err, status.ErrAccountExists):
		return apis.NewApiError(http.StatusConflict, "An account with this email already exists", nil)
	case errors.Is(err, status.ErrUnsupportedProvider):
		return apis.NewBadRequestError("Unsupported sign-in provider", nil)
	}

	slog.Error("Request failed", "error", err)
	return apis.NewInternalServerError("", nil)
}

var compactSize = strings.NewReplacer(".0 ", "", " ", "", "iB", "B")

// uploadLimitMessage renders limit the way the upload forms word it,
// e.g. "File size should be less than 5MB".
func uploadLimitMessage(limit int64) string {
	return "File size should be less than " + compactSize.Replace(humanize.IBytes(uint64(limit)))
}

// rejected answers a wizard action the current step does not allow.
func rejected() error {
	return apis.NewApiError(http.StatusConflict, "", nil)
}

func queryInt(e *core.RequestEvent, key string, fallback int) int {
	if value, err := strconv.Atoi(e.Request.URL.Query().Get(key)); err == nil {
		return value
	}
	return fallback
}

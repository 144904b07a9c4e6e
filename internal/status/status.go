package status

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound  = errors.New("event: event not found")
	ErrTicketNotFound = errors.New("ticket: ticket not found")

	ErrDuplicateTicket = errors.New("ticket: duplicate ticket id or number")

	ErrInvalidTransition  = errors.New("booking: transition not allowed")
	ErrSubmissionInFlight = errors.New("booking: submission already in progress")
	ErrImageTooLarge      = errors.New("upload: file too large")

	ErrUnauthorized       = errors.New("auth: no active session")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountExists      = errors.New("auth: account already exists")
)

var ErrUnsupportedProvider = errors.New("auth: unsupported sign-in provider")

// ImageTooLargeError reports the limit an upload went over. It matches
// ErrImageTooLarge.
type ImageTooLargeError struct {
	Limit int64
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("upload: file larger than %d bytes", e.Limit)
}

func (e *ImageTooLargeError) Is(target error) bool {
	return target == ErrImageTooLarge
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"event-booking/internal/status"
	"event-booking/models"
	"event-booking/monitoring"
	"event-booking/utils"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

type WizardStep string

const (
	StepSelectingTicket      WizardStep = "selecting_ticket"
	StepEnteringAttendeeInfo WizardStep = "entering_attendee_info"
	StepConfirmed            WizardStep = "confirmed"
)

// TicketSink receives tickets issued by a confirmed booking.
type TicketSink interface {
	Add(ctx context.Context, userID string, ticket models.BookedTicket) error
}

type AttendeeForm struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SpecialRequest string `json:"specialRequest"`
}

func (f AttendeeForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.By(requiredTrimmed)),
		validation.Field(&f.Email, validation.By(requiredTrimmed), validation.By(plausibleEmail)),
	)
}

func requiredTrimmed(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}

// plausibleEmail accepts anything shaped like local@domain.
func plausibleEmail(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return validation.NewError("validation_is_email", "must be a valid email address")
	}
	return nil
}

type AttachedImage struct {
	ContentType string
	Data        []byte
}

type ImageInfo struct {
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	SizeText    string `json:"sizeText"`
}

// WizardState is a point-in-time copy of a wizard.
type WizardState struct {
	EventID      string               `json:"eventId"`
	Step         WizardStep           `json:"step"`
	SelectedTier *int                 `json:"selectedTier"`
	Tier         *models.TicketTier   `json:"tier,omitempty"`
	Quantity     int                  `json:"quantity"`
	Total        decimal.Decimal      `json:"total"`
	Attendee     AttendeeForm         `json:"attendee"`
	Image        *ImageInfo           `json:"image,omitempty"`
	Submitting   bool                 `json:"submitting"`
	Ticket       *models.BookedTicket `json:"ticket,omitempty"`
}

type WizardOptions struct {
	PublicURL     string
	MaxImageBytes int64
	Now           func() time.Time
}

// BookingWizard walks one user through booking one event:
// selecting a tier, entering attendee details, then confirmation.
type BookingWizard struct {
	event   models.Event
	userID  string
	tickets TicketSink
	opts    WizardOptions

	mu         sync.Mutex
	step       WizardStep
	tier       int
	quantity   int
	form       AttendeeForm
	image      *AttachedImage
	submitting bool
	ticket     *models.BookedTicket
}

func NewBookingWizard(event models.Event, userID string, tickets TicketSink, opts WizardOptions) *BookingWizard {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BookingWizard{
		event:    event,
		userID:   userID,
		tickets:  tickets,
		opts:     opts,
		step:     StepSelectingTicket,
		tier:     -1,
		quantity: 1,
	}
}

func (w *BookingWizard) Event() models.Event {
	return w.event
}

func (w *BookingWizard) track(action string, accepted bool) bool {
	monitoring.TrackWizardTransition(action, accepted)
	return accepted
}

// SelectTier picks the ticket tier by index while selecting tickets.
func (w *BookingWizard) SelectTier(index int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectingTicket || index < 0 || index >= len(w.event.Tickets) {
		return w.track("select_tier", false)
	}
	w.tier = index
	return w.track("select_tier", true)
}

func (w *BookingWizard) SetQuantity(n int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectingTicket || n < 1 {
		return w.track("set_quantity", false)
	}
	w.quantity = n
	return w.track("set_quantity", true)
}

func (w *BookingWizard) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepSelectingTicket || w.tier < 0 || w.quantity < 1 {
		return w.track("next", false)
	}
	w.step = StepEnteringAttendeeInfo
	return w.track("next", true)
}

// Back returns to tier selection keeping the selection and form.
func (w *BookingWizard) Back() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepEnteringAttendeeInfo || w.submitting {
		return w.track("back", false)
	}
	w.step = StepSelectingTicket
	return w.track("back", true)
}

func (w *BookingWizard) UpdateAttendee(form AttendeeForm) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepEnteringAttendeeInfo || w.submitting {
		return w.track("update_attendee", false)
	}
	w.form = form
	return w.track("update_attendee", true)
}

// AttachImage keeps an attendee photo. Oversized images are rejected with
// status.ErrImageTooLarge and leave the wizard untouched.
func (w *BookingWizard) AttachImage(data []byte) (ImageInfo, error) {
	if int64(len(data)) > w.opts.MaxImageBytes {
		return ImageInfo{}, &status.ImageTooLargeError{Limit: w.opts.MaxImageBytes}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepEnteringAttendeeInfo || w.submitting {
		return ImageInfo{}, status.ErrInvalidTransition
	}
	w.image = &AttachedImage{
		ContentType: mimetype.Detect(data).String(),
		Data:        append([]byte(nil), data...),
	}
	return imageInfo(w.image), nil
}

// RemoveImage drops the attendee photo. Like AttachImage it only applies
// while entering attendee info; a confirmed booking keeps its photo.
func (w *BookingWizard) RemoveImage() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.image == nil || w.step != StepEnteringAttendeeInfo || w.submitting {
		return false
	}
	w.image = nil
	return true
}

func (w *BookingWizard) Image() *AttachedImage {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.image == nil {
		return nil
	}
	img := *w.image
	return &img
}

// Submit issues the ticket. The wizard lock is released while the ticket
// is written, so a concurrent Submit sees the submission in flight.
func (w *BookingWizard) Submit(ctx context.Context) (models.BookedTicket, error) {
	w.mu.Lock()
	switch {
	case w.submitting:
		w.mu.Unlock()
		w.track("submit", false)
		return models.BookedTicket{}, status.ErrSubmissionInFlight
	case w.step != StepEnteringAttendeeInfo:
		w.mu.Unlock()
		w.track("submit", false)
		return models.BookedTicket{}, status.ErrInvalidTransition
	}
	if err := w.form.Validate(); err != nil {
		w.mu.Unlock()
		w.track("submit", false)
		return models.BookedTicket{}, err
	}

	ticket, err := w.buildTicket()
	if err != nil {
		w.mu.Unlock()
		return models.BookedTicket{}, err
	}
	w.submitting = true
	w.mu.Unlock()

	err = w.tickets.Add(ctx, w.userID, ticket)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		slog.Error("Failed to store booked ticket", "error", err, "event_id", w.event.ID, "user_id", w.userID)
		w.track("submit", false)
		return models.BookedTicket{}, err
	}

	w.step = StepConfirmed
	w.ticket = &ticket
	w.track("submit", true)
	monitoring.TrackBooking(ticket.Category, ticket.Quantity, ticket.TotalAmount)
	slog.Info("Booking confirmed",
		"ticket_id", ticket.ID,
		"ticket_number", ticket.TicketNumber,
		"event_id", ticket.EventID,
		"user_id", w.userID,
	)
	return ticket, nil
}

// buildTicket snapshots the event into a ticket. Callers hold w.mu.
func (w *BookingWizard) buildTicket() (models.BookedTicket, error) {
	now := w.opts.Now()
	tier := w.event.Tickets[w.tier]

	number, err := utils.TicketNumber(w.event.Category, now)
	if err != nil {
		return models.BookedTicket{}, fmt.Errorf("generate ticket number: %w", err)
	}

	unitPrice := tier.PriceValue()
	qrData := url.QueryEscape(fmt.Sprintf("%s-%d", w.event.ID, now.UnixMilli()))

	return models.BookedTicket{
		ID:               uuid.NewString(),
		EventID:          w.event.ID,
		EventName:        w.event.Name,
		EventDescription: w.event.Description,
		EventImage:       w.event.Image,
		Category:         w.event.Category,
		Date:             w.event.Date,
		Time:             w.event.Time,
		Venue:            w.event.Venue,
		Organizer:        w.event.Organizer,
		TicketType:       tier.Type,
		Quantity:         w.quantity,
		UnitPrice:        unitPrice,
		TotalAmount:      unitPrice.Mul(decimal.NewFromInt(int64(w.quantity))),
		PurchaseDate:     now,
		TicketNumber:     number,
		QRCode:           fmt.Sprintf("%s/api/v1/qr?data=%s", w.opts.PublicURL, qrData),
		Status:           models.TicketStatusActive,
		Attendee: models.Attendee{
			Name:  strings.TrimSpace(w.form.Name),
			Email: strings.TrimSpace(w.form.Email),
			Phone: strings.TrimSpace(w.form.Phone),
		},
		SpecialRequest: w.form.SpecialRequest,
	}, nil
}

// Reset starts a new booking for the same event after confirmation.
// Issued tickets are kept.
func (w *BookingWizard) Reset() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepConfirmed {
		return w.track("reset", false)
	}
	w.step = StepSelectingTicket
	w.tier = -1
	w.quantity = 1
	w.form = AttendeeForm{}
	w.image = nil
	w.ticket = nil
	return w.track("reset", true)
}

func (w *BookingWizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := WizardState{
		EventID:    w.event.ID,
		Step:       w.step,
		Quantity:   w.quantity,
		Total:      decimal.Zero,
		Attendee:   w.form,
		Submitting: w.submitting,
	}
	if w.tier >= 0 {
		index := w.tier
		tier := w.event.Tickets[index]
		state.SelectedTier = &index
		state.Tier = &tier
		state.Total = tier.PriceValue().Mul(decimal.NewFromInt(int64(w.quantity)))
	}
	if w.image != nil {
		info := imageInfo(w.image)
		state.Image = &info
	}
	if w.ticket != nil {
		ticket := *w.ticket
		state.Ticket = &ticket
	}
	return state
}

func imageInfo(img *AttachedImage) ImageInfo {
	return ImageInfo{
		ContentType: img.ContentType,
		Size:        len(img.Data),
		SizeText:    humanize.Bytes(uint64(len(img.Data))),
	}
}

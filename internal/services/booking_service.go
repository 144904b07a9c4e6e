package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"event-booking/models"
)

// BookingService keeps one wizard per user and event, so a user can come
// back to a half-finished booking. Wizards left alone longer than the idle
// TTL are dropped by Run.
type BookingService struct {
	catalog       *CatalogService
	tickets       TicketSink
	notifications *NotificationService
	opts          WizardOptions
	idleTTL       time.Duration
	now           func() time.Time

	mu      sync.Mutex
	wizards map[string]*wizardEntry
}

type wizardEntry struct {
	wizard   *BookingWizard
	lastUsed time.Time
}

const DefaultWizardIdleTTL = 30 * time.Minute

func NewBookingService(catalog *CatalogService, tickets TicketSink, notifications *NotificationService, opts WizardOptions) *BookingService {
	return &BookingService{
		catalog:       catalog,
		tickets:       tickets,
		notifications: notifications,
		opts:          opts,
		idleTTL:       DefaultWizardIdleTTL,
		now:           time.Now,
		wizards:       make(map[string]*wizardEntry),
	}
}

// SetIdleTTL changes how long an untouched wizard is kept.
func (s *BookingService) SetIdleTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.idleTTL = ttl
	s.mu.Unlock()
}

func wizardKey(userID, eventID string) string {
	return userID + "|" + eventID
}

// Wizard returns the user's wizard for eventID, starting one if needed.
func (s *BookingService) Wizard(ctx context.Context, userID, eventID string) (*BookingWizard, error) {
	key := wizardKey(userID, eventID)

	if wizard, ok := s.touch(key); ok {
		return wizard, nil
	}

	event, err := s.catalog.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.wizards[key]; ok {
		entry.lastUsed = s.now()
		return entry.wizard, nil
	}
	wizard := NewBookingWizard(event, userID, s.tickets, s.opts)
	s.wizards[key] = &wizardEntry{wizard: wizard, lastUsed: s.now()}
	return wizard, nil
}

func (s *BookingService) touch(key string) (*BookingWizard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.wizards[key]
	if !ok {
		return nil, false
	}
	entry.lastUsed = s.now()
	return entry.wizard, true
}

// Submit confirms the booking and adds a "Booking Confirmed" notification.
func (s *BookingService) Submit(ctx context.Context, userID, eventID string) (models.BookedTicket, error) {
	wizard, err := s.Wizard(ctx, userID, eventID)
	if err != nil {
		return models.BookedTicket{}, err
	}

	ticket, err := wizard.Submit(ctx)
	if err != nil {
		return models.BookedTicket{}, err
	}

	if s.notifications != nil {
		if _, err := s.notifications.Add(ctx, userID, NotificationInput{
			Title:   "Booking Confirmed",
			Message: fmt.Sprintf("Your booking for %s has been confirmed.", ticket.EventName),
			Type:    models.NotificationBooking,
		}); err != nil {
			slog.Warn("Failed to add booking notification", "error", err, "ticket_id", ticket.ID)
		}
	}
	return ticket, nil
}

// DiscardUser drops every wizard the user has open, as on sign-out.
func (s *BookingService) DiscardUser(userID string) int {
	prefix := wizardKey(userID, "")

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.wizards {
		if strings.HasPrefix(key, prefix) {
			delete(s.wizards, key)
			removed++
		}
	}
	return removed
}

// ExpireIdle drops wizards not used within the idle TTL and reports how many
// went.
func (s *BookingService) ExpireIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for key, entry := range s.wizards {
		if entry.lastUsed.Before(cutoff) {
			delete(s.wizards, key)
			removed++
		}
	}
	return removed
}

// Run expires idle wizards every interval until ctx is done.
func (s *BookingService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.ExpireIdle(); removed > 0 {
				slog.Debug("Expired idle booking wizards", "count", removed)
			}
		}
	}
}

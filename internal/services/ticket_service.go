package services

import (
	"context"
	"log/slog"
	"sync"

	"event-booking/internal/status"
	"event-booking/internal/storage"
	"event-booking/models"
	"event-booking/monitoring"
)

type TicketFilter string

const (
	TicketFilterAll       TicketFilter = "all"
	TicketFilterActive    TicketFilter = "active"
	TicketFilterCancelled TicketFilter = "cancelled"
)

// ParseTicketFilter maps a query value to a filter, defaulting to all.
func ParseTicketFilter(value string) TicketFilter {
	switch TicketFilter(value) {
	case TicketFilterActive, TicketFilterCancelled:
		return TicketFilter(value)
	default:
		return TicketFilterAll
	}
}

// TicketService stores issued tickets per user in booking order.
type TicketService struct {
	store storage.Store

	mu sync.Mutex
}

func NewTicketService(store storage.Store) *TicketService {
	return &TicketService{store: store}
}

func (s *TicketService) load(ctx context.Context, userID string) []models.BookedTicket {
	var tickets []models.BookedTicket
	if !storage.LoadOr(ctx, s.store, storage.TicketsKey(userID), &tickets) {
		return []models.BookedTicket{}
	}
	return tickets
}

// loadForUpdate is load for paths that write the list back. Unlike load it
// fails when the store cannot be read.
func (s *TicketService) loadForUpdate(ctx context.Context, userID string) ([]models.BookedTicket, error) {
	var tickets []models.BookedTicket
	found, err := storage.LoadForUpdate(ctx, s.store, storage.TicketsKey(userID), &tickets)
	if err != nil {
		slog.Error("Failed to load tickets", "error", err, "user_id", userID)
		return nil, err
	}
	if !found {
		return []models.BookedTicket{}, nil
	}
	return tickets, nil
}

func (s *TicketService) save(ctx context.Context, userID string, tickets []models.BookedTicket) error {
	if err := s.store.Save(ctx, storage.TicketsKey(userID), tickets); err != nil {
		slog.Error("Failed to save tickets", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (s *TicketService) Add(ctx context.Context, userID string, ticket models.BookedTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	for _, existing := range tickets {
		if existing.ID == ticket.ID || existing.TicketNumber == ticket.TicketNumber {
			return status.ErrDuplicateTicket
		}
	}
	return s.save(ctx, userID, append(tickets, ticket))
}

// Cancel marks the ticket cancelled. Cancelling twice is a no-op reported
// through alreadyCancelled.
func (s *TicketService) Cancel(ctx context.Context, userID, id string) (alreadyCancelled bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return false, err
	}
	for i := range tickets {
		if tickets[i].ID != id {
			continue
		}
		if tickets[i].Status == models.TicketStatusCancelled {
			return true, nil
		}
		tickets[i].Status = models.TicketStatusCancelled
		if err := s.save(ctx, userID, tickets); err != nil {
			return false, err
		}
		monitoring.TrackCancellation(tickets[i].Category)
		slog.Info("Ticket cancelled", "ticket_id", id, "user_id", userID)
		return false, nil
	}
	return false, status.ErrTicketNotFound
}

func (s *TicketService) Get(ctx context.Context, userID, id string) (models.BookedTicket, error) {
	for _, ticket := range s.List(ctx, userID, TicketFilterAll) {
		if ticket.ID == id {
			return ticket, nil
		}
	}
	return models.BookedTicket{}, status.ErrTicketNotFound
}

func (s *TicketService) List(ctx context.Context, userID string, filter TicketFilter) []models.BookedTicket {
	s.mu.Lock()
	tickets := s.load(ctx, userID)
	s.mu.Unlock()

	if filter == TicketFilterAll || filter == "" {
		return tickets
	}
	filtered := make([]models.BookedTicket, 0, len(tickets))
	for _, ticket := range tickets {
		if string(ticket.Status) == string(filter) {
			filtered = append(filtered, ticket)
		}
	}
	return filtered
}

func (s *TicketService) ClearHistory(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx, userID, []models.BookedTicket{})
}

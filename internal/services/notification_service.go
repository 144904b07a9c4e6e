package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"event-booking/internal/storage"
	"event-booking/models"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	pubnub "github.com/pubnub/go"
)

// Publisher fans a message out to realtime subscribers.
type Publisher interface {
	Publish(channel string, message any) error
}

type PubNubPublisher struct {
	PubNub *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{PubNub: pn}
}

func (p *PubNubPublisher) Publish(channel string, message any) error {
	_, _, err := p.PubNub.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

// UserChannel is the realtime channel a user's client subscribes to.
func UserChannel(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

type NotificationInput struct {
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Type    models.NotificationType `json:"type"`
}

// NotificationView is a notification with its age rendered for display.
type NotificationView struct {
	models.Notification
	Age string `json:"age"`
}

type NotificationService struct {
	store     storage.Store
	publisher Publisher
	now       func() time.Time

	mu sync.Mutex
}

func NewNotificationService(store storage.Store, publisher Publisher) *NotificationService {
	return &NotificationService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *NotificationService) seed() []models.Notification {
	now := s.now()
	return []models.Notification{
		{
			ID:        uuid.NewString(),
			Title:     "New Event Added",
			Message:   "Taylor Swift concert tickets are now available!",
			Type:      models.NotificationEvent,
			Timestamp: now.Add(-5 * time.Minute),
		},
		{
			ID:        uuid.NewString(),
			Title:     "Booking Confirmed",
			Message:   "Your booking for Ed Sheeran concert has been confirmed.",
			Type:      models.NotificationBooking,
			Timestamp: now.Add(-30 * time.Minute),
		},
		{
			ID:        uuid.NewString(),
			Title:     "Price Drop Alert",
			Message:   "Prices for The Weeknd concert have been reduced!",
			Type:      models.NotificationPrice,
			Timestamp: now.Add(-2 * time.Hour),
		},
	}
}

// load returns the user's notifications, seeding the sample notifications
// on first use. Callers hold s.mu.
func (s *NotificationService) load(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	found, err := storage.LoadForUpdate(ctx, s.store, storage.NotificationsKey(userID), &list)
	if err != nil {
		slog.Error("Failed to load notifications", "error", err, "user_id", userID)
		return nil, err
	}
	if found {
		return list, nil
	}
	// seed ids must survive the next load
	list = s.seed()
	if err := s.save(ctx, userID, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *NotificationService) save(ctx context.Context, userID string, list []models.Notification) error {
	if list == nil {
		list = []models.Notification{}
	}
	if err := s.store.Save(ctx, storage.NotificationsKey(userID), list); err != nil {
		slog.Error("Failed to save notifications", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// update applies fn to the user's list and persists the result.
func (s *NotificationService) update(ctx context.Context, userID string, fn func([]models.Notification) []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	return s.save(ctx, userID, fn(list))
}

// List falls back to the sample notifications, unsaved, when the store
// cannot be read.
func (s *NotificationService) List(ctx context.Context, userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return s.seed()
	}
	return list
}

// Add prepends a new unread notification and pushes it to the user's channel.
func (s *NotificationService) Add(ctx context.Context, userID string, input NotificationInput) (models.Notification, error) {
	if input.Type == "" {
		input.Type = models.NotificationGeneric
	}
	notification := models.Notification{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Message:   input.Message,
		Type:      input.Type,
		Timestamp: s.now(),
	}

	err := s.update(ctx, userID, func(list []models.Notification) []models.Notification {
		return append([]models.Notification{notification}, list...)
	})
	if err != nil {
		return models.Notification{}, err
	}

	if s.publisher != nil {
		channel := UserChannel(userID)
		if err := s.publisher.Publish(channel, map[string]any{
			"type":         "notification",
			"notification": notification,
		}); err != nil {
			slog.Warn("Failed to publish notification", "error", err, "channel", channel)
		}
	}
	return notification, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.update(ctx, userID, func(list []models.Notification) []models.Notification {
		for i := range list {
			if list[i].ID == id {
				list[i].Read = true
			}
		}
		return list
	})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func(list []models.Notification) []models.Notification {
		for i := range list {
			list[i].Read = true
		}
		return list
	})
}

func (s *NotificationService) Remove(ctx context.Context, userID, id string) error {
	return s.update(ctx, userID, func(list []models.Notification) []models.Notification {
		kept := list[:0]
		for _, n := range list {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		return kept
	})
}

func (s *NotificationService) ClearAll(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func([]models.Notification) []models.Notification {
		return []models.Notification{}
	})
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) int {
	count := 0
	for _, n := range s.List(ctx, userID) {
		if !n.Read {
			count++
		}
	}
	return count
}

// Views renders ages relative to the service clock.
func (s *NotificationService) Views(list []models.Notification) []NotificationView {
	now := s.now()
	views := make([]NotificationView, len(list))
	for i, n := range list {
		views[i] = NotificationView{
			Notification: n,
			Age:          humanize.RelTime(n.Timestamp, now, "ago", "from now"),
		}
	}
	return views
}

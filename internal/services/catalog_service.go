package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"event-booking/internal/status"
	"event-booking/internal/storage"
	"event-booking/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const defaultOrganizer = "Event Organizer"

func DefaultCategories() []models.Category {
	return []models.Category{
		{ID: "tech", Name: "Technology", Icon: "💻"},
		{ID: "music", Name: "Music", Icon: "🎵"},
		{ID: "food", Name: "Food & Drinks", Icon: "🍷"},
		{ID: "gaming", Name: "Gaming", Icon: "🎮"},
		{ID: "sports", Name: "Sports", Icon: "⚽"},
		{ID: "arts", Name: "Arts & Culture", Icon: "🎨"},
	}
}

func DefaultEvents() []models.Event {
	return []models.Event{
		{
			ID:          "1",
			Name:        "Tech Conference 2024",
			Description: "Join us for the biggest tech conference of the year featuring industry leaders and innovative workshops.",
			Category:    "tech",
			Date:        "2024-06-15",
			Time:        "09:00 AM",
			Image:       "https://images.unsplash.com/photo-1540575467063-178a50c2df87?ixlib=rb-4.0.3",
			Venue:       models.Venue{Name: "Innovation Center", City: "San Francisco", Address: "123 Tech Boulevard"},
			Organizer:   models.Organizer{Name: "TechEvents Inc", Contact: "organizer@techevents.com"},
			Tickets: []models.TicketTier{
				{Type: "Early Bird", Price: "$299", Availability: "50/200"},
				{Type: "Regular", Price: "$399", Availability: "150/300"},
				{Type: "VIP", Price: "$699", Availability: "25/50"},
			},
		},
		{
			ID:          "2",
			Name:        "Summer Music Festival",
			Description: "A three-day music extravaganza featuring top artists from around the world.",
			Category:    "music",
			Date:        "2024-07-20",
			Time:        "04:00 PM",
			Image:       "https://images.unsplash.com/photo-1470229722913-7c0e2dbbafd3?ixlib=rb-4.0.3",
			Venue:       models.Venue{Name: "Central Park Arena", City: "New York", Address: "456 Festival Way"},
			Organizer:   models.Organizer{Name: "Music Fest Productions", Contact: "info@musicfest.com"},
			Tickets: []models.TicketTier{
				{Type: "Single Day", Price: "$129", Availability: "1000/5000"},
				{Type: "Weekend Pass", Price: "$299", Availability: "500/2000"},
				{Type: "VIP Weekend", Price: "$599", Availability: "100/300"},
			},
		},
		{
			ID:          "3",
			Name:        "Food & Wine Expo",
			Description: "Experience culinary excellence with tastings from top chefs and renowned wineries.",
			Category:    "food",
			Date:        "2024-08-10",
			Time:        "11:00 AM",
			Image:       "https://images.unsplash.com/photo-1414235077428-338989a2e8c0?ixlib=rb-4.0.3",
			Venue:       models.Venue{Name: "Gourmet Hall", City: "Chicago", Address: "789 Culinary Lane"},
			Organizer:   models.Organizer{Name: "Taste Events", Contact: "events@taste.com"},
			Tickets: []models.TicketTier{
				{Type: "General Admission", Price: "$79", Availability: "200/500"},
				{Type: "Premium Tasting", Price: "$149", Availability: "100/200"},
				{Type: "Chef's Table", Price: "$299", Availability: "20/40"},
			},
		},
		{
			ID:          "4",
			Name:        "Gaming Championship",
			Description: "The ultimate gaming tournament featuring competitive matches across multiple platforms.",
			Category:    "gaming",
			Date:        "2024-09-05",
			Time:        "10:00 AM",
			Image:       "https://images.unsplash.com/photo-1542751371-adc38448a05e?ixlib=rb-4.0.3",
			Venue:       models.Venue{Name: "eSports Arena", City: "Los Angeles", Address: "321 Gaming Street"},
			Organizer:   models.Organizer{Name: "Pro Gaming League", Contact: "tournaments@pgl.com"},
			Tickets: []models.TicketTier{
				{Type: "Spectator", Price: "$49", Availability: "300/1000"},
				{Type: "Player Pass", Price: "$99", Availability: "150/300"},
				{Type: "Premium Package", Price: "$199", Availability: "50/100"},
			},
		},
	}
}

// CatalogFile is the YAML document CATALOG_FILE points at.
type CatalogFile struct {
	Categories []models.Category `yaml:"categories"`
	Events     []models.Event    `yaml:"events"`
}

// LoadCatalogFile reads a YAML catalog. Missing categories fall back to the
// default list.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(file.Categories) == 0 {
		file.Categories = DefaultCategories()
	}

	seen := make(map[string]bool, len(file.Events))
	for _, event := range file.Events {
		if event.ID == "" {
			return nil, fmt.Errorf("catalog %s: event %q has no id", path, event.Name)
		}
		if seen[event.ID] {
			return nil, fmt.Errorf("catalog %s: duplicate event id %q", path, event.ID)
		}
		seen[event.ID] = true
	}
	return &file, nil
}

// EventDraft is what the create-event form submits.
type EventDraft struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Date        string              `json:"date"`
	Time        string              `json:"time"`
	Location    string              `json:"location"`
	Image       string              `json:"image"`
	Tickets     []models.TicketTier `json:"tickets"`
}

// CatalogService serves the seed catalog plus events users created. Seed
// events are read-only.
type CatalogService struct {
	store         storage.Store
	notifications *NotificationService
	seed          []models.Event
	categories    []models.Category
	now           func() time.Time

	mu sync.Mutex
}

func NewCatalogService(store storage.Store, notifications *NotificationService, seed []models.Event, categories []models.Category) *CatalogService {
	if seed == nil {
		seed = DefaultEvents()
	}
	if categories == nil {
		categories = DefaultCategories()
	}
	return &CatalogService{
		store:         store,
		notifications: notifications,
		seed:          seed,
		categories:    categories,
		now:           time.Now,
	}
}

func (s *CatalogService) created(ctx context.Context) []models.Event {
	var events []models.Event
	if !storage.LoadOr(ctx, s.store, storage.KeyEvents, &events) {
		return nil
	}
	return events
}

// List returns the seed events followed by user-created ones.
func (s *CatalogService) List(ctx context.Context) []models.Event {
	s.mu.Lock()
	created := s.created(ctx)
	s.mu.Unlock()

	events := make([]models.Event, 0, len(s.seed)+len(created))
	events = append(events, s.seed...)
	return append(events, created...)
}

func (s *CatalogService) Get(ctx context.Context, id string) (models.Event, error) {
	for _, event := range s.List(ctx) {
		if event.ID == id {
			return event, nil
		}
	}
	return models.Event{}, status.ErrEventNotFound
}

func (s *CatalogService) Filter(ctx context.Context, spec FilterSpec) []models.Event {
	return ApplyFilter(s.List(ctx), spec)
}

func (s *CatalogService) Categories() []models.Category {
	return append([]models.Category(nil), s.categories...)
}

func (s *CatalogService) categoryIDs() []any {
	ids := make([]any, len(s.categories))
	for i, c := range s.categories {
		ids[i] = c.ID
	}
	return ids
}

// Similar returns up to limit other events in the same category.
func (s *CatalogService) Similar(ctx context.Context, id string, limit int) ([]models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	similar := []models.Event{}
	for _, candidate := range s.List(ctx) {
		if len(similar) >= limit {
			break
		}
		if candidate.ID != event.ID && candidate.Category == event.Category {
			similar = append(similar, candidate)
		}
	}
	return similar, nil
}

// Countdown is the time left until the event starts. Unparseable start
// times count from midnight of the event day.
func (s *CatalogService) Countdown(event models.Event) (models.Countdown, error) {
	start, err := time.ParseInLocation(models.DateLayout+" 03:04 PM", event.Date+" "+event.Time, time.Local)
	if err != nil {
		start, err = event.CalendarDate(time.Local)
		if err != nil {
			return models.Countdown{}, fmt.Errorf("event %s date %q: %w", event.ID, event.Date, err)
		}
	}
	return models.CountdownUntil(start, s.now()), nil
}

func (d EventDraft) validate(categories []any) error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Category, validation.Required, validation.In(categories...)),
		validation.Field(&d.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&d.Time, validation.Required),
		validation.Field(&d.Location, validation.Required),
		validation.Field(&d.Tickets, validation.Required, validation.Each(validation.By(func(value any) error {
			tier, _ := value.(models.TicketTier)
			if strings.TrimSpace(tier.Type) == "" {
				return validation.NewError("validation_tier_type", "ticket type is required")
			}
			return nil
		}))),
	)
}

// Create validates draft, appends it to the user-created events and tells
// the creator about it.
func (s *CatalogService) Create(ctx context.Context, userID string, draft EventDraft) (models.Event, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Location = strings.TrimSpace(draft.Location)
	if err := draft.validate(s.categoryIDs()); err != nil {
		return models.Event{}, err
	}

	tiers := make([]models.TicketTier, len(draft.Tickets))
	for i, tier := range draft.Tickets {
		tiers[i] = tier
		if tiers[i].Price == "" {
			tiers[i].Price = "Free"
		}
		if tiers[i].Availability == "" {
			tiers[i].Availability = "0/100"
		}
	}

	event := models.Event{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
		Date:        draft.Date,
		Time:        draft.Time,
		Image:       draft.Image,
		Venue:       models.Venue{Name: draft.Location, City: draft.Location},
		Organizer:   models.Organizer{Name: defaultOrganizer},
		Tickets:     tiers,
		CreatedBy:   userID,
	}

	s.mu.Lock()
	var events []models.Event
	found, err := storage.LoadForUpdate(ctx, s.store, storage.KeyEvents, &events)
	if err == nil {
		if !found {
			events = nil
		}
		err = s.store.Save(ctx, storage.KeyEvents, append(events, event))
	}
	s.mu.Unlock()
	if err != nil {
		slog.Error("Failed to store created event", "error", err, "event_id", event.ID)
		return models.Event{}, err
	}

	if s.notifications != nil {
		if _, err := s.notifications.Add(ctx, userID, NotificationInput{
			Title:   "New Event Added",
			Message: fmt.Sprintf("%s is now open for booking.", event.Name),
			Type:    models.NotificationEvent,
		}); err != nil {
			slog.Warn("Failed to notify about created event", "error", err, "event_id", event.ID)
		}
	}

	slog.Info("Event created", "event_id", event.ID, "user_id", userID)
	return event, nil
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"event-booking/internal/status"
	"event-booking/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() EventDraft {
	return EventDraft{
		Name:     "Rooftop Jazz",
		Category: "music",
		Date:     "2024-10-01",
		Time:     "07:30 PM",
		Location: "Lisbon",
		Tickets:  []models.TicketTier{{Type: "General", Price: "$25"}},
	}
}

func TestCatalogService_SeedCatalog(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	events := env.catalog.List(ctx)
	assert.Equal(t, []string{"1", "2", "3", "4"}, eventIDs(events))

	event, err := env.catalog.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Summer Music Festival", event.Name)
	assert.Equal(t, "129", event.LowestPrice().String())

	_, err = env.catalog.Get(ctx, "99")
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestCatalogService_Categories(t *testing.T) {
	env := newTestEnv()

	categories := env.catalog.Categories()
	require.Len(t, categories, 6)
	assert.Equal(t, "tech", categories[0].ID)
	assert.Equal(t, "Arts & Culture", categories[5].Name)
}

func TestCatalogService_Create(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	event, err := env.catalog.Create(ctx, "u1", validDraft())
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "Event Organizer", event.Organizer.Name)
	assert.Equal(t, "Lisbon", event.Venue.Name)
	assert.Equal(t, "Lisbon", event.Venue.City)
	assert.Equal(t, "u1", event.CreatedBy)

	events := env.catalog.List(ctx)
	require.Len(t, events, 5)
	assert.Equal(t, event.ID, events[4].ID)

	notifications := env.notifications.List(ctx, "u1")
	assert.Equal(t, "New Event Added", notifications[0].Title)
	assert.Contains(t, notifications[0].Message, "Rooftop Jazz")
}

func TestCatalogService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EventDraft)
		field  string
	}{
		{"missing name", func(d *EventDraft) { d.Name = "  " }, "name"},
		{"unknown category", func(d *EventDraft) { d.Category = "cooking" }, "category"},
		{"bad date", func(d *EventDraft) { d.Date = "10/01/2024" }, "date"},
		{"missing time", func(d *EventDraft) { d.Time = "" }, "time"},
		{"missing location", func(d *EventDraft) { d.Location = "" }, "location"},
		{"no tiers", func(d *EventDraft) { d.Tickets = nil }, "tickets"},
		{"tier without type", func(d *EventDraft) { d.Tickets = []models.TicketTier{{Price: "$10"}} }, "tickets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			draft := validDraft()
			tt.mutate(&draft)

			_, err := env.catalog.Create(context.Background(), "u1", draft)

			var verrs validation.Errors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Contains(t, verrs, tt.field)
			assert.Len(t, env.catalog.List(context.Background()), 4)
		})
	}
}

func TestCatalogService_Similar(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		draft := validDraft()
		draft.Category = "tech"
		_, err := env.catalog.Create(ctx, "u1", draft)
		require.NoError(t, err)
	}

	similar, err := env.catalog.Similar(ctx, "1", 3)
	require.NoError(t, err)
	assert.Len(t, similar, 3)
	for _, e := range similar {
		assert.Equal(t, "tech", e.Category)
		assert.NotEqual(t, "1", e.ID)
	}

	none, err := env.catalog.Similar(ctx, "2", 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.catalog.Similar(ctx, "missing", 3)
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestCatalogService_Countdown(t *testing.T) {
	env := newTestEnv()
	env.catalog.now = fixedClock(time.Date(2024, 6, 14, 8, 0, 0, 0, time.Local))

	event, err := env.catalog.Get(context.Background(), "1")
	require.NoError(t, err)

	countdown, err := env.catalog.Countdown(event)
	require.NoError(t, err)
	assert.Equal(t, models.Countdown{Days: 1, Hours: 1}, countdown)

	env.catalog.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local))
	countdown, err = env.catalog.Countdown(event)
	require.NoError(t, err)
	assert.Equal(t, models.Countdown{}, countdown)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
events:
  - id: "pp-1"
    name: Pottery Workshop
    category: arts
    date: "2024-11-02"
    time: "02:00 PM"
    venue:
      name: Clay Studio
      city: Portland
    tickets:
      - type: Standard
        price: "$40"
        availability: "2/12"
`), 0o600))

	file, err := LoadCatalogFile(path)
	require.NoError(t, err)

	require.Len(t, file.Events, 1)
	assert.Equal(t, "Pottery Workshop", file.Events[0].Name)
	assert.Equal(t, "Clay Studio", file.Events[0].Venue.Name)
	assert.Equal(t, "low", file.Events[0].Tickets[0].AvailabilityLevel())
	assert.Len(t, file.Categories, 6)
}

func TestLoadCatalogFile_RejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
events:
  - id: "a"
    name: One
  - id: "a"
    name: Two
`), 0o600))

	_, err := LoadCatalogFile(path)
	assert.ErrorContains(t, err, "duplicate event id")
}

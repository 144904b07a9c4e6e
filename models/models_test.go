package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		expected string
	}{
		{"Dollar price", "$299", "299"},
		{"Free", "Free", "0"},
		{"Empty", "", "0"},
		{"Thousands separator", "$1,299.50", "1299.5"},
		{"Plain number", "49", "49"},
		{"Garbage", "call us", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(ParsePrice(tt.price)),
				"ParsePrice(%q) = %s", tt.price, ParsePrice(tt.price))
		})
	}
}

func TestEvent_LowestPriceUsesFirstTier(t *testing.T) {
	event := Event{
		ID: "1",
		Tickets: []TicketTier{
			{Type: "Early Bird", Price: "$299"},
			{Type: "VIP", Price: "$99"},
		},
	}
	assert.Equal(t, "299", event.LowestPrice().String())

	assert.True(t, Event{}.LowestPrice().IsZero())
}

func TestTicketTier_Availability(t *testing.T) {
	tests := []struct {
		availability string
		level        string
	}{
		{"150/200", "high"},
		{"50/200", "medium"},
		{"20/200", "low"},
		{"0/0", "unknown"},
		{"lots", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.availability, func(t *testing.T) {
			tier := TicketTier{Availability: tt.availability}
			assert.Equal(t, tt.level, tier.AvailabilityLevel())
		})
	}

	consumed, total, ok := TicketTier{Availability: "25/50"}.ParseAvailability()
	require.True(t, ok)
	assert.Equal(t, 25, consumed)
	assert.Equal(t, 50, total)
}

func TestEvent_CalendarDate(t *testing.T) {
	event := Event{Date: "2024-06-15"}

	date, err := event.CalendarDate(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2024, date.Year())
	assert.Equal(t, time.June, date.Month())
	assert.Equal(t, 15, date.Day())

	_, err = Event{Date: "June 15"}.CalendarDate(time.UTC)
	assert.Error(t, err)
}

func TestCountdownUntil(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)

	assert.Equal(t, Countdown{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, CountdownUntil(start, now))
	assert.Equal(t, Countdown{}, CountdownUntil(now.Add(-time.Hour), now))
}

func TestBookedTicket_AmountsSurviveJSON(t *testing.T) {
	ticket := BookedTicket{
		ID:          "ticket-1",
		EventID:     "1",
		Quantity:    3,
		UnitPrice:   decimal.NewFromInt(150),
		TotalAmount: decimal.NewFromInt(450),
		Status:      TicketStatusActive,
	}

	data, err := json.Marshal(ticket)
	require.NoError(t, err)

	var decoded BookedTicket
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.True(t, decoded.TotalAmount.Equal(ticket.TotalAmount))
	assert.True(t, decoded.IsActive())
	assert.Contains(t, string(data), `"eventId":"1"`)
}

func TestUserSession_Expired(t *testing.T) {
	now := time.Now()

	assert.False(t, UserSession{}.Expired(now))
	assert.False(t, UserSession{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, UserSession{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
}

func TestDefaultProfile(t *testing.T) {
	profile := DefaultProfile()

	assert.True(t, profile.Notifications.Email)
	assert.True(t, profile.Notifications.Push)
	assert.False(t, profile.Notifications.SMS)
	assert.Equal(t, "USD", profile.Preferences.Currency)
	assert.Nil(t, profile.Avatar)
}

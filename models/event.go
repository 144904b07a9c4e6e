package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format events are stored with.
const DateLayout = "2006-01-02"

type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon" yaml:"icon"`
}

type Venue struct {
	Name    string `json:"name" yaml:"name"`
	City    string `json:"city" yaml:"city"`
	Address string `json:"address" yaml:"address"`
}

type Organizer struct {
	Name    string `json:"name" yaml:"name"`
	Contact string `json:"contact" yaml:"contact"`
}

type TicketTier struct {
	Type         string `json:"type" yaml:"type"`
	Price        string `json:"price" yaml:"price"`               // "$299", "Free"
	Availability string `json:"availability" yaml:"availability"` // "consumed/total", display only
}

type Event struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Category    string       `json:"category" yaml:"category"`
	Date        string       `json:"date" yaml:"date"`
	Time        string       `json:"time" yaml:"time"`
	Image       string       `json:"image" yaml:"image"`
	Venue       Venue        `json:"venue" yaml:"venue"`
	Organizer   Organizer    `json:"organizer" yaml:"organizer"`
	Tickets     []TicketTier `json:"tickets" yaml:"tickets"`
	CreatedBy   string       `json:"createdBy,omitempty" yaml:"-"`
}

// ParsePrice turns a display price into a number. Anything that is not a
// number once currency symbols and separators are stripped is worth zero.
func ParsePrice(price string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ':
			return -1
		}
		return r
	}, price)

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func (t TicketTier) PriceValue() decimal.Decimal {
	return ParsePrice(t.Price)
}

// ParseAvailability splits "consumed/total". ok is false for malformed values.
func (t TicketTier) ParseAvailability() (consumed, total int, ok bool) {
	left, right, found := strings.Cut(t.Availability, "/")
	if !found {
		return 0, 0, false
	}
	consumed, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(strings.TrimSpace(right))
	if err != nil || total <= 0 {
		return 0, 0, false
	}
	return consumed, total, true
}

// AvailabilityLevel buckets the availability ratio into high, medium or low.
func (t TicketTier) AvailabilityLevel() string {
	consumed, total, ok := t.ParseAvailability()
	if !ok {
		return "unknown"
	}
	percentage := float64(consumed) / float64(total) * 100
	switch {
	case percentage > 50:
		return "high"
	case percentage > 20:
		return "medium"
	default:
		return "low"
	}
}

// LowestPrice is the price of the first tier, which the catalog lists
// cheapest first.
func (e Event) LowestPrice() decimal.Decimal {
	if len(e.Tickets) == 0 {
		return decimal.Zero
	}
	return e.Tickets[0].PriceValue()
}

// CalendarDate parses the event date in loc.
func (e Event) CalendarDate(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, e.Date, loc)
}

type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// CountdownUntil returns the time left until start, zero once it has passed.
func CountdownUntil(start, now time.Time) Countdown {
	diff := start.Sub(now)
	if diff <= 0 {
		return Countdown{}
	}
	total := int(diff / time.Second)
	return Countdown{
		Days:    total / 86400,
		Hours:   (total / 3600) % 24,
		Minutes: (total / 60) % 60,
		Seconds: total % 60,
	}
}

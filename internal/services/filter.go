package services

import (
	"strings"
	"time"

	"event-booking/models"

	"github.com/shopspring/decimal"
)

const CategoryAll = "all"

// FilterSpec narrows the catalog. Zero values mean "no restriction" except
// PriceRange, which is always applied; use DefaultFilterSpec as a base.
type FilterSpec struct {
	SearchTerm string             `json:"searchTerm"`
	Category   string             `json:"category"`
	PriceRange [2]decimal.Decimal `json:"priceRange"`
	Date       string             `json:"date"`
	Location   string             `json:"location"`
}

func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Category:   CategoryAll,
		PriceRange: [2]decimal.Decimal{decimal.Zero, decimal.NewFromInt(1000)},
	}
}

// ApplyFilter returns the events matching every criterion in spec, in the
// order they were given.
func ApplyFilter(events []models.Event, spec FilterSpec) []models.Event {
	search := strings.ToLower(strings.TrimSpace(spec.SearchTerm))
	location := strings.ToLower(strings.TrimSpace(spec.Location))

	day, hasDay, dayValid := "", spec.Date != "", true
	if hasDay {
		day, dayValid = filterDay(spec.Date)
	}

	result := make([]models.Event, 0, len(events))
	for _, event := range events {
		if search != "" && !containsFold(search, event.Name, event.Description, event.Venue.Name) {
			continue
		}
		if spec.Category != "" && spec.Category != CategoryAll && spec.Category != event.Category {
			continue
		}
		price := event.LowestPrice()
		if price.LessThan(spec.PriceRange[0]) || price.GreaterThan(spec.PriceRange[1]) {
			continue
		}
		if hasDay {
			eventDay, ok := filterDay(event.Date)
			if !dayValid || !ok || eventDay != day {
				continue
			}
		}
		if location != "" && !containsFold(location, event.Venue.Name, event.Venue.City) {
			continue
		}
		result = append(result, event)
	}
	return result
}

// containsFold reports whether needle (already lower-cased) is in any field.
func containsFold(needle string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// filterDay reduces a YYYY-MM-DD or RFC 3339 value to its calendar day.
func filterDay(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(models.DateLayout, value); err == nil {
		return t.Format(models.DateLayout), true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(models.DateLayout), true
	}
	return "", false
}

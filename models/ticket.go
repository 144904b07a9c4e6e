package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusCancelled TicketStatus = "cancelled"
)

type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BookedTicket is a snapshot of the event taken at booking time. Later edits
// to the event never reach it.
type BookedTicket struct {
	ID               string          `json:"id"`
	EventID          string          `json:"eventId"`
	EventName        string          `json:"eventName"`
	EventDescription string          `json:"eventDescription"`
	EventImage       string          `json:"eventImage"`
	Category         string          `json:"category"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	Venue            Venue           `json:"venue"`
	Organizer        Organizer       `json:"organizer"`
	TicketType       string          `json:"ticketType"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"price"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	PurchaseDate     time.Time       `json:"purchaseDate"`
	TicketNumber     string          `json:"ticketNumber"`
	QRCode           string          `json:"qrCode"`
	Status           TicketStatus    `json:"status"`
	Attendee         Attendee        `json:"attendee"`
	SpecialRequest   string          `json:"specialRequest,omitempty"`
}

func (t BookedTicket) IsActive() bool {
	return t.Status == TicketStatusActive
}

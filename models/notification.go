package models

import "time"

type NotificationType string

const (
	NotificationEvent   NotificationType = "event"
	NotificationBooking NotificationType = "booking"
	NotificationPrice   NotificationType = "price"
	NotificationGeneric NotificationType = "generic"
)

type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

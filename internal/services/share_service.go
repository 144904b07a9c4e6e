package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"event-booking/models"
	"event-booking/utils"

	"github.com/google/uuid"
)

type ShareTarget struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// escapeComponent escapes like a browser's encodeURIComponent.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ShareLinks builds the share targets offered for an event.
func ShareLinks(event models.Event, shareURL string) []ShareTarget {
	pitch := fmt.Sprintf("Check out %s at %s!", event.Name, event.Venue.Name)
	return []ShareTarget{
		{
			Name: "Facebook",
			URL:  "https://www.facebook.com/sharer/sharer.php?u=" + escapeComponent(shareURL),
		},
		{
			Name: "Twitter",
			URL:  "https://twitter.com/intent/tweet?url=" + escapeComponent(shareURL) + "&text=" + escapeComponent(pitch),
		},
		{
			Name: "WhatsApp",
			URL:  "https://wa.me/?text=" + escapeComponent(pitch+" "+shareURL),
		},
		{
			Name: "Email",
			URL: "mailto:?subject=" + escapeComponent("Check out "+event.Name) +
				"&body=" + escapeComponent(fmt.Sprintf("I thought you might be interested in %s at %s!\n\n%s", event.Name, event.Venue.Name, shareURL)),
		},
		{
			Name: "Copy Link",
			URL:  shareURL,
		},
	}
}

// TicketSharePayload is what a client needs to open its native share sheet.
func TicketSharePayload(ticket models.BookedTicket, shareURL string) map[string]any {
	return map[string]any{
		"type":  "share",
		"title": fmt.Sprintf("Ticket for %s", ticket.EventName),
		"text":  fmt.Sprintf("Check out my ticket for %s!", ticket.EventName),
		"url":   shareURL,
	}
}

// Notice is a dismissible message left behind by a failed capability task.
type Notice struct {
	ID         string    `json:"id"`
	Capability string    `json:"capability"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TaskRunner runs fire-and-forget capability tasks (share, export, clipboard)
// off the request path. Failures turn into notices for the user; each
// capability sits behind its own circuit breaker.
type TaskRunner struct {
	timeout     time.Duration
	maxFailures uint32
	cooldown    time.Duration

	mu       sync.Mutex
	breakers map[string]*utils.CircuitBreaker
	notices  map[string][]Notice
	wg       sync.WaitGroup
}

func NewTaskRunner(timeout time.Duration) *TaskRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TaskRunner{
		timeout:     timeout,
		maxFailures: 3,
		cooldown:    30 * time.Second,
		breakers:    make(map[string]*utils.CircuitBreaker),
		notices:     make(map[string][]Notice),
	}
}

func (r *TaskRunner) breaker(capability string) *utils.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[capability]
	if !ok {
		cb = utils.NewCircuitBreaker(capability, r.maxFailures, r.cooldown)
		r.breakers[capability] = cb
	}
	return cb
}

// Go runs fn in the background. It outlives the caller's cancellation but
// not the runner's timeout.
func (r *TaskRunner) Go(ctx context.Context, userID, capability string, fn func(ctx context.Context) error) {
	cb := r.breaker(capability)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		defer func() {
			if e := recover(); e != nil {
				slog.Error("Capability task panicked", "capability", capability, "user_id", userID, "panic", e)
				r.notify(userID, capability, fmt.Errorf("%v", e))
			}
		}()

		if err := cb.Execute(ctx, fn); err != nil {
			slog.Warn("Capability task failed", "capability", capability, "user_id", userID, "error", err)
			r.notify(userID, capability, err)
		}
	}()
}

func (r *TaskRunner) notify(userID, capability string, err error) {
	message := fmt.Sprintf("%s failed. Please try again.", capabilityLabel(capability))
	if errors.Is(err, utils.ErrCircuitOpen) || errors.Is(err, utils.ErrTooManyRequests) {
		message = fmt.Sprintf("%s is temporarily unavailable.", capabilityLabel(capability))
	}

	r.mu.Lock()
	r.notices[userID] = append(r.notices[userID], Notice{
		ID:         uuid.NewString(),
		Capability: capability,
		Message:    message,
		CreatedAt:  time.Now(),
	})
	r.mu.Unlock()
}

func capabilityLabel(capability string) string {
	if capability == "" {
		return "Task"
	}
	return strings.ToUpper(capability[:1]) + capability[1:]
}

// Wait blocks until every started task has finished.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}

func (r *TaskRunner) Notices(userID string) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Notice{}, r.notices[userID]...)
}

func (r *TaskRunner) Dismiss(userID, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	notices := r.notices[userID]
	for i, n := range notices {
		if n.ID == id {
			r.notices[userID] = append(notices[:i], notices[i+1:]...)
			return true
		}
	}
	return false
}

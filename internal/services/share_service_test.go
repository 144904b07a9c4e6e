package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"event-booking/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinks(t *testing.T) {
	event := models.Event{ID: "1", Name: "Rock & Roll", Venue: models.Venue{Name: "Main Hall"}}

	links := ShareLinks(event, "http://localhost:8090/events/1")
	require.Len(t, links, 5)

	names := make([]string, len(links))
	for i, l := range links {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"Facebook", "Twitter", "WhatsApp", "Email", "Copy Link"}, names)

	assert.Equal(t, "https://www.facebook.com/sharer/sharer.php?u=http%3A%2F%2Flocalhost%3A8090%2Fevents%2F1", links[0].URL)
	assert.NotContains(t, links[1].URL, "+", "spaces are percent encoded")

	tweet, err := url.Parse(links[1].URL)
	require.NoError(t, err)
	assert.Equal(t, "Check out Rock & Roll at Main Hall!", tweet.Query().Get("text"))

	assert.True(t, strings.HasPrefix(links[3].URL, "mailto:?subject=Check%20out%20Rock%20%26%20Roll"))
	assert.Equal(t, "http://localhost:8090/events/1", links[4].URL)
}

func TestTicketSharePayload(t *testing.T) {
	payload := TicketSharePayload(models.BookedTicket{EventName: "Jazz Night"}, "http://x/t/1")

	assert.Equal(t, "Ticket for Jazz Night", payload["title"])
	assert.Equal(t, "Check out my ticket for Jazz Night!", payload["text"])
	assert.Equal(t, "http://x/t/1", payload["url"])
}

func TestTaskRunner_SuccessLeavesNoNotice(t *testing.T) {
	runner := NewTaskRunner(time.Second)

	var ran atomic.Bool
	runner.Go(context.Background(), "u1", "share", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	runner.Wait()

	assert.True(t, ran.Load())
	assert.Empty(t, runner.Notices("u1"))
}

func TestTaskRunner_SurvivesCallerCancellation(t *testing.T) {
	runner := NewTaskRunner(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var taskErr error
	runner.Go(ctx, "u1", "share", func(ctx context.Context) error {
		taskErr = ctx.Err()
		return nil
	})
	runner.Wait()

	assert.NoError(t, taskErr)
}

func TestTaskRunner_FailureAndDismiss(t *testing.T) {
	runner := NewTaskRunner(time.Second)

	runner.Go(context.Background(), "u1", "share", func(ctx context.Context) error {
		return errors.New("no share target")
	})
	runner.Wait()

	notices := runner.Notices("u1")
	require.Len(t, notices, 1)
	assert.Equal(t, "share", notices[0].Capability)
	assert.Equal(t, "Share failed. Please try again.", notices[0].Message)
	assert.Empty(t, runner.Notices("u2"))

	assert.False(t, runner.Dismiss("u1", "missing"))
	assert.True(t, runner.Dismiss("u1", notices[0].ID))
	assert.Empty(t, runner.Notices("u1"))
}

func TestTaskRunner_PanicBecomesNotice(t *testing.T) {
	runner := NewTaskRunner(time.Second)

	runner.Go(context.Background(), "u1", "export", func(ctx context.Context) error {
		panic("renderer exploded")
	})
	runner.Wait()

	notices := runner.Notices("u1")
	require.Len(t, notices, 1)
	assert.Equal(t, "Export failed. Please try again.", notices[0].Message)
}

func TestTaskRunner_BreakerOpensPerCapability(t *testing.T) {
	runner := NewTaskRunner(time.Second)
	fail := func(ctx context.Context) error { return errors.New("clipboard denied") }

	for range 3 {
		runner.Go(context.Background(), "u1", "clipboard", fail)
		runner.Wait()
	}

	var called atomic.Bool
	runner.Go(context.Background(), "u1", "clipboard", func(ctx context.Context) error {
		called.Store(true)
		return nil
	})
	runner.Wait()

	assert.False(t, called.Load(), "open breaker short-circuits the task")
	notices := runner.Notices("u1")
	require.Len(t, notices, 4)
	assert.Equal(t, "Clipboard is temporarily unavailable.", notices[3].Message)

	runner.Go(context.Background(), "u1", "share", func(ctx context.Context) error {
		called.Store(true)
		return nil
	})
	runner.Wait()
	assert.True(t, called.Load(), "other capabilities are unaffected")
}

package services

import (
	"context"
	"testing"
	"time"

	"event-booking/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingService_WizardPerUserAndEvent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.bookings.Wizard(ctx, "u1", "1")
	require.NoError(t, err)
	again, err := env.bookings.Wizard(ctx, "u1", "1")
	require.NoError(t, err)
	other, err := env.bookings.Wizard(ctx, "u2", "1")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, other)

	_, err = env.bookings.Wizard(ctx, "u1", "missing")
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestBookingService_SubmitNotifies(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	wizard, err := env.bookings.Wizard(ctx, "u1", "2")
	require.NoError(t, err)
	require.True(t, wizard.SelectTier(1))
	require.True(t, wizard.SetQuantity(2))
	require.True(t, wizard.Next())
	require.True(t, wizard.UpdateAttendee(validAttendee()))

	ticket, err := env.bookings.Submit(ctx, "u1", "2")
	require.NoError(t, err)

	assert.Equal(t, "Weekend Pass", ticket.TicketType)
	assert.Equal(t, "598", ticket.TotalAmount.String())

	notifications := env.notifications.List(ctx, "u1")
	assert.Equal(t, "Booking Confirmed", notifications[0].Title)
	assert.Equal(t, "Your booking for Summer Music Festival has been confirmed.", notifications[0].Message)

	tickets := env.tickets.List(ctx, "u1", TicketFilterActive)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticket.ID, tickets[0].ID)
}

func TestBookingService_SubmitFailureAddsNoNotification(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.bookings.Submit(ctx, "u1", "2")
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
	assert.Len(t, env.notifications.List(ctx, "u1"), 3)
}

func TestBookingService_DiscardUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.bookings.Wizard(ctx, "u1", "1")
	require.NoError(t, err)
	_, err = env.bookings.Wizard(ctx, "u1", "2")
	require.NoError(t, err)
	other, err := env.bookings.Wizard(ctx, "u2", "1")
	require.NoError(t, err)

	assert.Equal(t, 2, env.bookings.DiscardUser("u1"))

	second, _ := env.bookings.Wizard(ctx, "u1", "1")
	assert.NotSame(t, first, second)
	stillOpen, _ := env.bookings.Wizard(ctx, "u2", "1")
	assert.Same(t, other, stillOpen)
}

func TestBookingService_ExpireIdle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	now := testNow
	env.bookings.now = func() time.Time { return now }
	env.bookings.SetIdleTTL(10 * time.Minute)

	idle, err := env.bookings.Wizard(ctx, "u1", "1")
	require.NoError(t, err)
	active, err := env.bookings.Wizard(ctx, "u1", "2")
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	again, _ := env.bookings.Wizard(ctx, "u1", "2")
	require.Same(t, active, again)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, env.bookings.ExpireIdle())

	fresh, _ := env.bookings.Wizard(ctx, "u1", "1")
	assert.NotSame(t, idle, fresh)
	kept, _ := env.bookings.Wizard(ctx, "u1", "2")
	assert.Same(t, active, kept)
}

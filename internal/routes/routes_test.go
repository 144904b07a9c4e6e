package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	route, params, ok := Match("/book/42")
	require.True(t, ok)
	assert.Equal(t, Booking, route.Name)
	assert.Equal(t, map[string]string{"eventId": "42"}, params)

	_, _, ok = Match("/book/")
	assert.False(t, ok)

	_, _, ok = Match("/book/1/extra")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		signedIn   bool
		expected   string
		route      string
		redirected bool
	}{
		{"discovery is public", "/", false, "/", Discovery, false},
		{"unknown path falls back to discovery", "/nowhere", true, "/", Discovery, true},
		{"unknown path without session", "/admin/panel", false, "/", Discovery, true},
		{"protected route with session", "/my-tickets", true, "/my-tickets", Tickets, false},
		{"protected route without session", "/my-tickets", false, "/onboarding?next=%2Fmy-tickets", Onboarding, true},
		{"booking without session keeps event", "/book/7", false, "/onboarding?next=%2Fbook%2F7", Onboarding, true},
		{"onboarding without session", "/onboarding", false, "/onboarding", Onboarding, false},
		{"onboarding with session goes home", "/onboarding", true, "/", Discovery, true},
		{"onboarding with session follows next", "/onboarding?next=%2Fbook%2F7", true, "/book/7", Booking, true},
		{"onboarding ignores unknown next", "/onboarding?next=%2Fevil", true, "/", Discovery, true},
		{"onboarding ignores public next", "/onboarding?next=%2Fonboarding", true, "/", Discovery, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.path, tt.signedIn)

			assert.Equal(t, tt.expected, res.Path)
			assert.Equal(t, tt.route, res.Route)
			assert.Equal(t, tt.redirected, res.Redirected)
		})
	}
}

func TestResolve_BookingParams(t *testing.T) {
	res := Resolve("/book/3", true)
	assert.Equal(t, map[string]string{"eventId": "3"}, res.Params)
}

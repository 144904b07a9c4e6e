// Package routes names the client-facing screens and decides where a
// navigation ends up given whether the user is signed in.
package routes

import (
	"net/url"
	"strings"
)

const (
	Discovery   = "discovery"
	Booking     = "booking"
	Tickets     = "tickets"
	Favorites   = "favorites"
	Profile     = "profile"
	CreateEvent = "create-event"
	Onboarding  = "onboarding"

	OnboardingPath = "/onboarding"
	DiscoveryPath  = "/"
)

type Route struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	// Protected routes need a session.
	Protected bool `json:"protected"`
	// PublicOnly routes are skipped once a session exists.
	PublicOnly bool `json:"publicOnly"`
}

var All = []Route{
	{Name: Discovery, Pattern: "/"},
	{Name: Booking, Pattern: "/book/{eventId}", Protected: true},
	{Name: Tickets, Pattern: "/my-tickets", Protected: true},
	{Name: Favorites, Pattern: "/favorites", Protected: true},
	{Name: Profile, Pattern: "/profile", Protected: true},
	{Name: CreateEvent, Pattern: "/create-event", Protected: true},
	{Name: Onboarding, Pattern: OnboardingPath, PublicOnly: true},
}

// Match finds the route for path and its path parameters.
func Match(path string) (Route, map[string]string, bool) {
	segments := split(path)
	for _, route := range All {
		if params, ok := matchPattern(split(route.Pattern), segments); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchPattern(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, part := range pattern {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if segments[i] == "" {
				return nil, false
			}
			params[part[1:len(part)-1]] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, false
		}
	}
	return params, true
}

type Resolution struct {
	Path   string            `json:"path"`
	Route  string            `json:"route"`
	Params map[string]string `json:"params,omitempty"`
	// Redirected is true when Path differs from what was asked for.
	Redirected bool `json:"redirected"`
}

// Resolve decides where a navigation to rawPath lands. Unknown paths go to
// discovery, protected paths without a session go to onboarding with the
// destination kept in next, and onboarding with a session goes to next.
func Resolve(rawPath string, signedIn bool) Resolution {
	u, err := url.Parse(rawPath)
	if err != nil {
		return redirect(DiscoveryPath, signedIn)
	}
	path := u.Path
	if path == "" {
		path = DiscoveryPath
	}

	route, params, ok := Match(path)
	switch {
	case !ok:
		return redirect(DiscoveryPath, signedIn)
	case route.Protected && !signedIn:
		return Resolution{
			Path:       OnboardingRedirect(path),
			Route:      Onboarding,
			Redirected: true,
		}
	case route.PublicOnly && signedIn:
		next := u.Query().Get("next")
		if target, _, ok := Match(next); ok && target.Protected {
			res := Resolve(next, true)
			res.Redirected = true
			return res
		}
		return redirect(DiscoveryPath, signedIn)
	}
	return Resolution{Path: path, Route: route.Name, Params: params}
}

func redirect(path string, signedIn bool) Resolution {
	res := Resolve(path, signedIn)
	res.Redirected = true
	return res
}

// OnboardingRedirect is the onboarding URL that returns to path after
// sign-in.
func OnboardingRedirect(path string) string {
	return OnboardingPath + "?next=" + url.QueryEscape(path)
}

package handlers

import (
	"net/http"
	"strings"

	"event-booking/internal/routes"
	"event-booking/internal/services"
	"event-booking/models"
	"event-booking/security"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

const (
	sessionKey = "session"
	tokenKey   = "session_token"
)

type AuthHandler struct {
	auth     *services.AuthService
	bookings *services.BookingService
}

func NewAuthHandler(auth *services.AuthService, bookings *services.BookingService) *AuthHandler {
	return &AuthHandler{auth: auth, bookings: bookings}
}

func bearerToken(e *core.RequestEvent) string {
	header := e.Request.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// LoadSession attaches the caller's session to the request when the bearer
// token is valid. Requests without one pass through anonymously.
func (h *AuthHandler) LoadSession(e *core.RequestEvent) error {
	token := bearerToken(e)
	if token == "" {
		return e.Next()
	}
	session, err := h.auth.Current(e.Request.Context(), token)
	if err == nil {
		e.Set(sessionKey, session)
		e.Set(tokenKey, token)
		e.Set(security.UserIDKey, session.User.ID)
	}
	return e.Next()
}

// RequireAuth rejects anonymous requests with the onboarding URL the client
// should navigate to.
func (h *AuthHandler) RequireAuth(e *core.RequestEvent) error {
	if _, ok := currentSession(e); ok {
		return e.Next()
	}
	return e.JSON(http.StatusUnauthorized, map[string]any{
		"status":   http.StatusUnauthorized,
		"message":  "Sign in required.",
		"redirect": routes.OnboardingRedirect(clientPath(e.Request.URL.Path)),
	})
}

func currentSession(e *core.RequestEvent) (models.UserSession, bool) {
	session, ok := e.Get(sessionKey).(models.UserSession)
	return session, ok
}

func currentUser(e *core.RequestEvent) models.User {
	session, _ := currentSession(e)
	return session.User
}

// clientPath maps an API path to the screen that needs it.
func clientPath(apiPath string) string {
	path := strings.TrimPrefix(apiPath, "/api/v1")
	switch {
	case strings.HasPrefix(path, "/book/"):
		eventID, _, _ := strings.Cut(strings.TrimPrefix(path, "/book/"), "/")
		return "/book/" + eventID
	case strings.HasPrefix(path, "/tickets"):
		return "/my-tickets"
	case strings.HasPrefix(path, "/favorites"):
		return "/favorites"
	case path == "/events":
		return "/create-event"
	case strings.HasPrefix(path, "/profile"),
		strings.HasPrefix(path, "/notifications"),
		strings.HasPrefix(path, "/notices"),
		strings.HasPrefix(path, "/auth"):
		return "/profile"
	}
	return routes.DiscoveryPath
}

func (h *AuthHandler) SignIn(e *core.RequestEvent) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	session, err := h.auth.SignIn(e.Request.Context(), req.Email, req.Password)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, session)
}

func (h *AuthHandler) SignUp(e *core.RequestEvent) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	session, err := h.auth.SignUp(e.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, session)
}

func (h *AuthHandler) SignInWithProvider(e *core.RequestEvent) error {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	session, err := h.auth.SignInWithProvider(e.Request.Context(), req.Provider)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, session)
}

func (h *AuthHandler) ProviderURL(e *core.RequestEvent) error {
	state := e.Request.URL.Query().Get("state")
	return e.JSON(http.StatusOK, map[string]string{"url": h.auth.ProviderLoginURL(state)})
}

func (h *AuthHandler) SignOut(e *core.RequestEvent) error {
	token, _ := e.Get(tokenKey).(string)
	if err := h.auth.SignOut(e.Request.Context(), token); err != nil {
		return apiError(err)
	}
	if h.bookings != nil {
		h.bookings.DiscardUser(currentUser(e).ID)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(e *core.RequestEvent) error {
	session, _ := currentSession(e)
	return e.JSON(http.StatusOK, session)
}

func (h *AuthHandler) UpdateMe(e *core.RequestEvent) error {
	var updates services.UserUpdate
	if err := e.BindBody(&updates); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	token, _ := e.Get(tokenKey).(string)
	user, err := h.auth.UpdateProfile(e.Request.Context(), token, updates)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, user)
}

// ResolveRoute tells the client where a navigation lands.
func (h *AuthHandler) ResolveRoute(e *core.RequestEvent) error {
	path := e.Request.URL.Query().Get("path")
	_, signedIn := currentSession(e)
	return e.JSON(http.StatusOK, routes.Resolve(path, signedIn))
}

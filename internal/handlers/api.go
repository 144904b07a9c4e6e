package handlers

import (
	"event-booking/security"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
)

// API bundles the handlers mounted under /api/v1.
type API struct {
	Auth          *AuthHandler
	Events        *EventHandler
	Bookings      *BookingHandler
	Tickets       *TicketHandler
	Favorites     *FavoritesHandler
	Notifications *NotificationHandler
	Profile       *ProfileHandler
	Limiter       *security.RateLimiter
}

func (a *API) Register(r *router.Router[*core.RequestEvent]) {
	api := r.Group("/api/v1")
	if a.Limiter != nil {
		api.BindFunc(a.Limiter.AntiBot)
	}
	api.BindFunc(a.Auth.LoadSession)
	if a.Limiter != nil {
		api.BindFunc(a.Limiter.RateLimit)
	}

	// Public
	api.GET("/routes/resolve", a.Auth.ResolveRoute)
	api.POST("/auth/signin", a.Auth.SignIn)
	api.POST("/auth/signup", a.Auth.SignUp)
	api.POST("/auth/provider", a.Auth.SignInWithProvider)
	api.GET("/auth/provider/url", a.Auth.ProviderURL)

	api.GET("/categories", a.Events.Categories)
	api.GET("/events", a.Events.ListEvents)
	api.GET("/events/{eventId}", a.Events.GetEvent)
	api.GET("/events/{eventId}/similar", a.Events.Similar)
	api.GET("/events/{eventId}/share", a.Events.Share)
	api.GET("/events/{eventId}/reviews", a.Events.Reviews)
	api.GET("/qr", a.Events.QR)

	protected := api.Group("")
	protected.BindFunc(a.Auth.RequireAuth)

	// Session
	protected.POST("/auth/signout", a.Auth.SignOut)
	protected.GET("/auth/me", a.Auth.Me)
	protected.PATCH("/auth/me", a.Auth.UpdateMe)

	// Catalog
	protected.POST("/events", a.Events.CreateEvent)
	protected.POST("/events/{eventId}/reviews", a.Events.AddReview)

	// Booking wizard
	protected.GET("/book/{eventId}", a.Bookings.State)
	protected.POST("/book/{eventId}/tier", a.Bookings.SelectTier)
	protected.POST("/book/{eventId}/quantity", a.Bookings.SetQuantity)
	protected.POST("/book/{eventId}/next", a.Bookings.Next)
	protected.POST("/book/{eventId}/back", a.Bookings.Back)
	protected.POST("/book/{eventId}/attendee", a.Bookings.UpdateAttendee)
	protected.POST("/book/{eventId}/image", a.Bookings.AttachImage)
	protected.DELETE("/book/{eventId}/image", a.Bookings.RemoveImage)
	protected.POST("/book/{eventId}/submit", a.Bookings.Submit)
	protected.POST("/book/{eventId}/reset", a.Bookings.Reset)
	protected.GET("/book/{eventId}/ticket.png", a.Bookings.TicketImage)

	// Tickets
	protected.GET("/tickets", a.Tickets.List)
	protected.DELETE("/tickets", a.Tickets.ClearHistory)
	protected.GET("/tickets/{id}", a.Tickets.Get)
	protected.POST("/tickets/{id}/cancel", a.Tickets.Cancel)
	protected.GET("/tickets/{id}/image", a.Tickets.Image)
	protected.POST("/tickets/{id}/share", a.Tickets.Share)

	// Favorites
	protected.GET("/favorites", a.Favorites.List)
	protected.POST("/favorites/{eventId}/toggle", a.Favorites.Toggle)

	// Notifications
	protected.GET("/notifications", a.Notifications.List)
	protected.DELETE("/notifications", a.Notifications.ClearAll)
	protected.POST("/notifications/add", a.Notifications.Add)
	protected.POST("/notifications/read-all", a.Notifications.MarkAllRead)
	protected.POST("/notifications/{id}/read", a.Notifications.MarkRead)
	protected.DELETE("/notifications/{id}", a.Notifications.Remove)
	protected.GET("/notices", a.Notifications.Notices)
	protected.DELETE("/notices/{id}", a.Notifications.DismissNotice)

	// Profile
	protected.GET("/profile", a.Profile.Get)
	protected.PUT("/profile", a.Profile.Save)
	protected.POST("/profile/avatar", a.Profile.SetAvatar)
}

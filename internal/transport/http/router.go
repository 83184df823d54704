package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-event-bus/internal/application/delivery"
	"github.com/go-event-bus/internal/application/event"
	"github.com/go-event-bus/internal/application/fanout"
	"github.com/go-event-bus/internal/application/notification"
	"github.com/go-event-bus/internal/application/preference"
	"github.com/go-event-bus/internal/application/subscription"
	"github.com/go-event-bus/internal/config"
	jwtinfra "github.com/go-event-bus/internal/infrastructure/jwt"
	"github.com/go-event-bus/internal/transport/http/handler"
	appmiddleware "github.com/go-event-bus/internal/transport/http/middleware"
	"github.com/go-event-bus/internal/transport/ws"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	EventRepo        EventRepository
	SubscriptionRepo SubscriptionRepository
	PreferenceRepo   PreferenceRepository
	NotificationRepo NotificationRepository
	Dispatcher       *delivery.Dispatcher
	Hub              *ws.Hub
	JWTProvider      *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	apiRL := appmiddleware.NewRateLimiter(cfg.RateLimitPerMin)

	subscriptionSvc := subscription.NewService(deps.SubscriptionRepo)
	preferenceSvc := preference.NewService(deps.PreferenceRepo)
	notificationSvc := notification.NewService(deps.NotificationRepo)
	fanoutEngine := fanout.NewEngine(subscriptionSvc, preferenceSvc, deps.NotificationRepo, deps.Dispatcher, nil)
	eventSvc := event.NewService(deps.EventRepo, fanoutEngine)

	healthH := handler.NewHealthHandler()
	eventH := handler.NewEventHandler(eventSvc)
	subscriptionH := handler.NewSubscriptionHandler(subscriptionSvc)
	notificationH := handler.NewNotificationHandler(notificationSvc)
	preferenceH := handler.NewPreferenceHandler(preferenceSvc)
	connStatusH := handler.NewConnectionStatusHandler(deps.Hub)
	var wsVerifier ws.TokenVerifier
	if deps.JWTProvider != nil {
		wsVerifier = deps.JWTProvider
	}
	wsH := ws.NewHandler(deps.Hub, wsVerifier, notificationSvc,
		cfg.WSBufferCap, ws.ParseBufferPolicy(cfg.WSBufferPolicy), cfg.HeartbeatInterval, cfg.AllowedOrigins)

	r.Route("/api/v1/events", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)

		// WebSocket handshake carries its own auth; errors are reported over
		// the socket instead of the HTTP status line.
		r.Get("/subscribe", wsH.ServeHTTP)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(apiRL.Limit)

			r.Post("/", eventH.Publish)
			r.Get("/", eventH.History)

			r.Post("/subscriptions", subscriptionH.Create)
			r.Get("/subscriptions", subscriptionH.List)
			r.Delete("/subscriptions/{id}", subscriptionH.Delete)

			r.Get("/notifications", notificationH.List)
			r.Patch("/notifications/{id}", notificationH.UpdateStatus)

			r.Get("/preferences", preferenceH.Get)
			r.Put("/preferences", preferenceH.Update)

			r.Get("/connection-status", connStatusH.Get)
		})
	})

	return r
}

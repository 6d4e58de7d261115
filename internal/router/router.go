package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"slackpulse-backend/internal/handlers"
	"slackpulse-backend/internal/middleware"
	"slackpulse-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	workspaceHandler *handlers.WorkspaceHandler,
	activityHandler *handlers.ActivityHandler,
	webhookHandler *handlers.WebhookHandler,
	googleHandler *handlers.GoogleOAuthHandler,
	pollerHandler *handlers.PollerHandler,
	wsHub *websocket.Hub,
	loginThrottle *middleware.Throttle,
	webhookThrottle *middleware.Throttle,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Slack calls these directly; signature verification happens in the handler.
	r.With(webhookThrottle.Middleware).Post("/slack/webhook", webhookHandler.Handle)
	r.Get("/slack/oauth/callback", workspaceHandler.SlackOAuthCallback)
	r.Get("/google/oauth/callback", googleHandler.Callback)

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(loginThrottle.Middleware)
			r.Post("/login", authHandler.Login)
		})

		// ──── Workspace Routes ────
		r.Route("/workspaces", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", workspaceHandler.List)
			r.Get("/{id}/users", workspaceHandler.Users)
		})

		// ──── Activity Routes ────
		r.Route("/users/{id}", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/activity", activityHandler.GetActivity)
			r.Get("/sessions", activityHandler.GetSessions)
			r.Get("/heatmap", activityHandler.GetHeatmap)
		})

		// ──── Poller Routes ────
		r.Route("/poller", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/run", pollerHandler.RunNow)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}

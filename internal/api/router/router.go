// Package router assembles the HTTP surface: health and metrics probes,
// the webchat endpoints, and the listing search API.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/volunteerhub/assistant/internal/http/handlers"
	httpmiddleware "github.com/volunteerhub/assistant/internal/http/middleware"
	"github.com/volunteerhub/assistant/internal/webchat"
	"github.com/volunteerhub/assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Webchat        *webchat.Handler
	Search         *handlers.SearchHandler
	MetricsHandler http.Handler

	CORSAllowedOrigins []string

	// Per-IP limit applied to the message-accepting endpoints. Zero
	// disables limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitPerSecond > 0 {
		limit = httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}

	r.Get("/healthz", handleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webchat != nil {
		r.Route("/webchat", func(r chi.Router) {
			r.Get("/ws", cfg.Webchat.HandleWebSocket)
			r.With(limit).Post("/message", cfg.Webchat.HandleMessage)
			r.Get("/history", cfg.Webchat.HandleHistory)
			r.Get("/widget.js", cfg.Webchat.HandleWidgetJS)
		})
	}

	if cfg.Search != nil {
		r.With(limit).Get("/api/opportunities/search", cfg.Search.Search)
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

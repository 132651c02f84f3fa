package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/theology-chat/internal/config"
	"github.com/capitalize-ai/theology-chat/internal/middleware"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

// APIPrefixes are the mount points of the API routes. The second keeps the
// paths of the serverless deployment working.
var APIPrefixes = []string{"/api", "/.netlify/functions/api"}

// RouterOptions configures the API router.
type RouterOptions struct {
	Chat    *ChatHandler
	Lessons *LessonsHandler
	Health  *HealthHandler
	PWA     config.PWAConfig
	Logger  *logger.Logger

	ClientURL         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the API router.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(opts.ClientURL))

	// Health endpoints
	r.Get("/health", opts.Health.Health)
	r.Get("/ready", opts.Health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/manifest.json", Manifest(opts.PWA))

	// One limiter shared by every mount point.
	var limiter func(http.Handler) http.Handler
	if opts.RateLimitRequests > 0 {
		limiter = middleware.RateLimit(opts.RateLimitRequests, opts.RateLimitWindow)
	}

	api := func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}

		r.Get("/health", opts.Health.Health)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", opts.Chat.SendMessage)
			r.Post("/stream", opts.Chat.Stream)
			r.Get("/history/{sessionId}", opts.Chat.GetHistory)
			r.Delete("/history/{sessionId}", opts.Chat.ClearHistory)
		})

		r.Route("/lessons", func(r chi.Router) {
			r.Post("/daily", opts.Lessons.Daily)
			r.Get("/topics", opts.Lessons.Topics)
			r.Get("/archive", opts.Lessons.Archive)
		})
	}
	for _, prefix := range APIPrefixes {
		r.Route(prefix, api)
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

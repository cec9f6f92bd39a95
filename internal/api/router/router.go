// Package router assembles the HTTP surface: public quiz and webhook
// routes, the metrics endpoint and the JWT-protected admin group.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/brighthome/leadquiz/internal/http/middleware"
	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/quiz"
	"github.com/brighthome/leadquiz/internal/webhook"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	QuizHandler    *quiz.Handler
	WebhookHandler *webhook.Handler
	LeadsHandler   *leads.Handler
	MetricsHandler http.Handler

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// Requests/sec and burst for the public endpoints. Zero disables
	// throttling.
	PublicRateLimit float64
	PublicRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public endpoints (quiz, webhooks, health checks)
	r.Group(func(public chi.Router) {
		if cfg.PublicRateLimit > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.PublicRateLimit, cfg.PublicRateBurst))
		}

		public.Get("/health", healthCheck)

		if cfg.QuizHandler != nil {
			public.Route("/quiz", func(r chi.Router) {
				r.Post("/start", cfg.QuizHandler.Start)
				r.Post("/{sessionID}/answer", cfg.QuizHandler.Answer)
				r.Get("/{sessionID}", cfg.QuizHandler.GetSession)
			})
		}
		if cfg.WebhookHandler != nil {
			public.Post("/webhooks/leads", cfg.WebhookHandler.Receive)
			public.Get("/webhooks/leads", cfg.WebhookHandler.Liveness)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin routes (protected by HMAC JWT)
	if cfg.AdminJWTSecret != "" && cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

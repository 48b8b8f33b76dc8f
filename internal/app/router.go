// Package app wires configuration, middleware, and handlers into the HTTP
// server and owns the readiness checks for its backing services.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ai-interview-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public demo endpoint; the service-level window limiter applies on top
	// of this coarse per-IP cap.
	r.Group(func(pr chi.Router) {
		pr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		pr.Post("/v1/demo/feedback", srv.DemoFeedbackHandler())
	})

	// Authenticated session API
	r.Group(func(ar chi.Router) {
		ar.Use(httpserver.RequireAuth(cfg.JWTSecret))
		ar.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		ar.Post("/v1/sessions", srv.StartSessionHandler())
		ar.Get("/v1/sessions", srv.ListSessionsHandler())
		ar.Get("/v1/sessions/{id}", srv.GetSessionHandler())
		ar.Post("/v1/sessions/{id}/questions", srv.GenerateQuestionsHandler())
		ar.Put("/v1/sessions/{id}/answers", srv.SaveAnswerHandler())
		ar.Post("/v1/sessions/{id}/finish", srv.FinishSessionHandler())
		ar.Post("/v1/sessions/{id}/end", srv.EndSessionHandler())
		ar.Post("/v1/sessions/{id}/analyze", srv.AnalyzeSessionHandler())
	})

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	return httpserver.SecurityHeaders(r)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mimo-os/mimo/reasoning-core/internal/api/handlers"
	"github.com/mimo-os/mimo/reasoning-core/internal/api/middleware"
	"github.com/mimo-os/mimo/reasoning-core/internal/config"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/healthz", healthHandler)
	r.Get("/version", versionHandler(cfg))

	r.Route("/v1", func(r chi.Router) {
		// Reasoning sessions
		r.Route("/reason", func(r chi.Router) {
			r.Post("/guided", h.Guided)
			r.Post("/step", h.Step)
			r.Post("/verify", h.Verify)
			r.Post("/reflect", h.Reflect)
			r.Post("/branch", h.Branch)
			r.Post("/backtrack", h.Backtrack)
			r.Post("/conclude", h.Conclude)
			r.Get("/sessions/{sessionId}", h.GetSession)
		})

		// Epistemic chain
		r.Route("/epistemic", func(r chi.Router) {
			r.Post("/query", h.Query)
			r.Post("/assess", h.Assess)
			r.Get("/stats", h.TrackerStats)
			r.Get("/gaps", h.KnowledgeGaps)
		})

		// Metacognition
		r.Route("/metacog", func(r chi.Router) {
			r.Get("/explain/{sessionId}", h.ExplainSession)
			r.Get("/load", h.CognitiveLoad)
		})

		// Predictive calibration
		r.Route("/predict", func(r chi.Router) {
			r.Post("/", h.Predict)
			r.Post("/{predictionId}/calibrate", h.Calibrate)
			r.Get("/calibration", h.CalibrationReport)
		})

		// Capability boundaries
		r.Route("/boundary", func(r chi.Router) {
			r.Get("/", h.BoundaryList)
			r.Post("/check", h.BoundaryCheck)
			r.Post("/record", h.BoundaryRecord)
		})

		// Self-healing
		r.Route("/heal", func(r chi.Router) {
			r.Get("/diagnose", h.Diagnose)
			r.Get("/actions", h.HealActions)
			r.Post("/auto", h.AutoHeal)
			r.Post("/{actionId}", h.Heal)
		})

		// Outcome detection
		r.Route("/outcome", func(r chi.Router) {
			r.Post("/terminal", h.DetectTerminal)
			r.Post("/compile", h.DetectCompile)
			r.Post("/feedback", h.DetectFeedback)
			r.Post("/aggregate", h.AggregateOutcomes)
		})

		// Learning loop
		r.Route("/learning", func(r chi.Router) {
			r.Get("/objectives", h.LearningObjectives)
			r.Get("/progress", h.LearningProgress)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "mimo-reasoning-core",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "mimo-reasoning-core",
		})
	}
}

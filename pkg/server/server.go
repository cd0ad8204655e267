// Package server provides the public entry point for initializing the
// reasoning core.
//
// This package exists in pkg/ (not internal/) so an embedding agent
// runtime can compose the core with its own evidence sources and hook
// sinks instead of running the standalone binary.
//
// Usage (standalone):
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
//
// Usage (embedded):
//
//	srv, err := server.NewWithConfig(ctx, cfg, memorySource, codeSource)
//	runtime.Mount("/reasoning", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/internal/api"
	"github.com/mimo-os/mimo/reasoning-core/internal/api/handlers"
	"github.com/mimo-os/mimo/reasoning-core/internal/boundary"
	"github.com/mimo-os/mimo/reasoning-core/internal/config"
	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/internal/evidence"
	"github.com/mimo-os/mimo/reasoning-core/internal/healing"
	"github.com/mimo-os/mimo/reasoning-core/internal/hooks"
	"github.com/mimo-os/mimo/reasoning-core/internal/janitor"
	"github.com/mimo-os/mimo/reasoning-core/internal/learning"
	"github.com/mimo-os/mimo/reasoning-core/internal/metacog"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"
	"github.com/mimo-os/mimo/reasoning-core/internal/telemetry"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Server holds the initialized reasoning core.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Hooks is the telemetry event pool. Exposed so an embedding runtime
	// can emit its own events through the same pipeline.
	Hooks *hooks.Pool

	// Config is the server configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to drain hooks
	// and flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes the core with configuration from the environment and no
// external evidence sources. Until sources are supplied, every assessment
// honestly reports unknown.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the core with an explicit configuration and
// the evidence sources the embedding runtime provides.
func NewWithConfig(ctx context.Context, cfg *config.Config, sources ...evidence.Source) (*Server, error) {
	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	// Epistemic chain
	gatherer := evidence.NewGatherer(sources, cfg.Evidence.Timeout)
	assessor := epistemic.NewAssessor(gatherer)
	tracker := epistemic.NewTracker()
	brain := epistemic.NewBrain(assessor, tracker)

	// Reasoning sessions and their decision trace
	sessions := reasoning.NewStore()
	monitor := metacog.NewMonitor()
	monitor.SetActiveSessionsFn(sessions.ActiveCount)
	reasoner := reasoning.NewReasoner(sessions, monitor)

	// Prediction and boundaries
	model := prediction.NewModel()
	boundaries := boundary.New()

	// Self-healing over the in-memory stores
	healer, err := healing.New(
		func() models.HealthSnapshot { return monitor.Snapshot(tracker.Size()) },
		healing.DefaultCatalog(healing.Deps{
			Sessions: sessions,
			Tracker:  tracker,
			Monitor:  monitor,
			Model:    model,
			Boundary: boundaries,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("init healer: %w", err)
	}

	// Learning loop researches gaps through the same assessor
	objectives := learning.NewObjectives(tracker, model)
	executor := learning.NewExecutor(objectives, func(ctx context.Context, topic string) (models.Uncertainty, error) {
		return assessor.Assess(ctx, topic, epistemic.AssessOpts{
			IncludeCode:  true,
			IncludeGraph: true,
			MemoryLimit:  cfg.Evidence.MemoryLimit,
		}), nil
	})

	// Background plumbing
	pool := hooks.NewPool(cfg.Hooks.Workers, cfg.Hooks.QueueSize, logSink{})
	pool.Start(ctx)

	sweeper := janitor.New(janitor.Config{
		Interval:      cfg.Retention.JanitorInterval,
		SessionTTL:    cfg.Retention.SessionTTL,
		TraceCap:      cfg.Retention.TraceCap,
		PredictionTTL: cfg.Retention.PredictionTTL,
		BoundaryTTL:   cfg.Retention.BoundaryTTL,
	}, sessions, monitor, model, boundaries, healer, executor)
	go sweeper.Start(ctx)

	log.Info().Int("evidence_sources", len(sources)).Msg("✅ Reasoning core initialized")

	h := handlers.New(reasoner, brain, assessor, tracker, monitor, model,
		boundaries, healer, objectives, pool)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler: router,
		Hooks:   pool,
		Config:  cfg,
		Port:    cfg.Port,
		ShutdownFunc: func(ctx context.Context) error {
			pool.Stop()
			return shutdownTelemetry(ctx)
		},
	}, nil
}

// logSink writes every hook event to the structured log. Embedding
// runtimes normally add their own sinks alongside it.
type logSink struct{}

func (logSink) Consume(e hooks.Event) {
	log.Debug().Str("kind", string(e.Kind)).Fields(e.Fields).Msg("hook event")
}

// Package janitor runs the core's periodic background work on a fixed
// interval, independent of request traffic: evicting idle reasoning
// sessions, trimming decision traces, dropping stale predictions and
// boundaries, the auto-heal sweep, and the learning executor pass. It
// runs as a single background goroutine and respects context cancellation
// for graceful shutdown.
package janitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/internal/boundary"
	"github.com/mimo-os/mimo/reasoning-core/internal/healing"
	"github.com/mimo-os/mimo/reasoning-core/internal/learning"
	"github.com/mimo-os/mimo/reasoning-core/internal/metacog"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"
)

// CycleStats tracks what happened in a single sweep.
type CycleStats struct {
	SessionsEvicted    int
	TracesTrimmed      int
	PredictionsDropped int
	BoundariesForgot   int
	HealActions        int
	Researched         int
}

// Config tunes the janitor's retention windows.
type Config struct {
	Interval      time.Duration
	SessionTTL    time.Duration
	TraceCap      int
	PredictionTTL time.Duration
	BoundaryTTL   time.Duration
}

// Janitor sweeps the core's stores on a fixed interval.
type Janitor struct {
	cfg      Config
	sessions *reasoning.Store
	monitor  *metacog.Monitor
	model    *prediction.Model
	boundary *boundary.Boundary
	healer   *healing.Healer
	executor *learning.Executor
}

func New(cfg Config, sessions *reasoning.Store, monitor *metacog.Monitor,
	model *prediction.Model, bnd *boundary.Boundary, healer *healing.Healer,
	executor *learning.Executor) *Janitor {

	if cfg.Interval < time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.TraceCap <= 0 {
		cfg.TraceCap = 1000
	}
	if cfg.PredictionTTL <= 0 {
		cfg.PredictionTTL = time.Hour
	}
	if cfg.BoundaryTTL <= 0 {
		cfg.BoundaryTTL = 30 * 24 * time.Hour
	}
	return &Janitor{
		cfg:      cfg,
		sessions: sessions,
		monitor:  monitor,
		model:    model,
		boundary: bnd,
		healer:   healer,
		executor: executor,
	}
}

// Start runs the janitor in the calling goroutine until ctx is canceled.
func (j *Janitor) Start(ctx context.Context) {
	log.Info().Dur("interval", j.cfg.Interval).Msg("Janitor started")

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	j.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Janitor stopped")
			return
		case <-ticker.C:
			j.RunCycle(ctx)
		}
	}
}

// RunCycle performs one sweep. Exposed so tests and operators can trigger
// it directly.
func (j *Janitor) RunCycle(ctx context.Context) CycleStats {
	start := time.Now()
	var stats CycleStats

	stats.SessionsEvicted = j.sessions.EvictIdle(j.cfg.SessionTTL)
	stats.TracesTrimmed = j.monitor.TrimOldest(j.cfg.TraceCap)
	stats.PredictionsDropped = j.model.DropStalePending(j.cfg.PredictionTTL)
	stats.BoundariesForgot = j.boundary.Forget(j.cfg.BoundaryTTL)

	if j.healer != nil {
		report := j.healer.AutoHeal()
		stats.HealActions = len(report.Executed)
	}
	if j.executor != nil && ctx.Err() == nil {
		exec := j.executor.RunOnce(ctx)
		stats.Researched = exec.Researched
	}

	if stats != (CycleStats{}) {
		log.Info().
			Int("sessions_evicted", stats.SessionsEvicted).
			Int("traces_trimmed", stats.TracesTrimmed).
			Int("predictions_dropped", stats.PredictionsDropped).
			Int("boundaries_forgot", stats.BoundariesForgot).
			Int("heal_actions", stats.HealActions).
			Int("researched", stats.Researched).
			Dur("elapsed", time.Since(start)).
			Msg("Janitor cycle complete")
	}
	return stats
}

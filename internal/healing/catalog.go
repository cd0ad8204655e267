package healing

import (
	"fmt"
	"time"

	"github.com/mimo-os/mimo/reasoning-core/internal/boundary"
	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/internal/metacog"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Deps are the subsystems the default catalog acts on.
type Deps struct {
	Sessions *reasoning.Store
	Tracker  *epistemic.Tracker
	Monitor  *metacog.Monitor
	Model    *prediction.Model
	Boundary *boundary.Boundary
}

// DefaultCatalog is the standard remediation set. Conditions read only
// the health snapshot; every Run is an idempotent cleanup of exactly one
// subsystem's store.
func DefaultCatalog(d Deps) []Action {
	return []Action{
		{
			ID:          "evict_idle_sessions",
			Name:        "Evict idle reasoning sessions",
			Description: "Session store holds an unusually large number of active sessions",
			Risk:        models.RiskLow,
			Condition:   "active_sessions > 50",
			Cooldown:    time.Minute,
			Run: func() (string, error) {
				n := d.Sessions.EvictIdle(30 * time.Minute)
				return fmt.Sprintf("evicted %d idle session(s)", n), nil
			},
		},
		{
			ID:          "trim_decision_traces",
			Name:        "Trim decision traces",
			Description: "Decision trace has grown beyond its retention cap",
			Risk:        models.RiskLow,
			Condition:   "trace_size > 10000",
			Cooldown:    time.Minute,
			Run: func() (string, error) {
				n := d.Monitor.TrimOldest(500)
				return fmt.Sprintf("trimmed %d session trace(s)", n), nil
			},
		},
		{
			ID:          "drop_stale_predictions",
			Name:        "Drop stale pending predictions",
			Description: "Predictions issued but never calibrated are accumulating",
			Risk:        models.RiskLow,
			Condition:   "true",
			Cooldown:    10 * time.Minute,
			Run: func() (string, error) {
				n := d.Model.DropStalePending(time.Hour)
				return fmt.Sprintf("dropped %d stale prediction(s)", n), nil
			},
		},
		{
			ID:          "clear_uncertainty_tracker",
			Name:        "Clear uncertainty tracker",
			Description: "Tracker has accumulated a very large topic set and discards all history when cleared",
			Risk:        models.RiskMedium,
			Condition:   "tracker_size > 5000",
			Cooldown:    time.Hour,
			Run: func() (string, error) {
				d.Tracker.Clear()
				return "tracker cleared", nil
			},
		},
		{
			ID:          "forget_capability_boundaries",
			Name:        "Forget stale capability boundaries",
			Description: "Learned failure boundaries may be outdated and over-restrictive",
			Risk:        models.RiskMedium,
			Condition:   `load == "high" || load == "critical"`,
			Cooldown:    time.Hour,
			Run: func() (string, error) {
				n := d.Boundary.Forget(14 * 24 * time.Hour)
				return fmt.Sprintf("forgot %d stale boundary record(s)", n), nil
			},
		},
		{
			ID:          "purge_all_state",
			Name:        "Purge all in-memory state",
			Description: "Error rate indicates the core's accumulated state itself may be corrupt",
			Risk:        models.RiskHigh,
			Condition:   "error_rate > 0.5",
			Cooldown:    time.Hour,
			Run: func() (string, error) {
				d.Tracker.Clear()
				d.Monitor.Clear()
				evicted := d.Sessions.EvictIdle(0)
				return fmt.Sprintf("purged tracker, traces, and %d session(s)", evicted), nil
			},
		},
	}
}

package models

import "time"

// ── Safe Healing ─────────────────────────────────────────────

// HealthSnapshot is the read-only view healing conditions are evaluated
// against. Field names double as expr identifiers.
type HealthSnapshot struct {
	Load           LoadLevel `json:"load"            expr:"load"`
	ActiveSessions int       `json:"active_sessions" expr:"active_sessions"`
	TrackerSize    int       `json:"tracker_size"    expr:"tracker_size"`
	TraceSize      int       `json:"trace_size"      expr:"trace_size"`
	ErrorRate      float64   `json:"error_rate"      expr:"error_rate"`
	Goroutines     int       `json:"goroutines"      expr:"goroutines"`
}

// ActionInfo is the inspectable description of a catalog entry. The
// runnable itself never leaves the healer.
type ActionInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Risk        Risk          `json:"risk"`
	Condition   string        `json:"condition"`
	Cooldown    time.Duration `json:"cooldown"`
}

// Diagnosis is the healer's read-only assessment of system health.
type Diagnosis struct {
	HealthScore     float64  `json:"health_score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// HealResult reports a single executed action.
type HealResult struct {
	ActionID string        `json:"action_id"`
	Applied  bool          `json:"applied"`
	Detail   string        `json:"detail,omitempty"`
	Took     time.Duration `json:"took_ms"`
}

// AutoHealReport lists what the sweep did and, crucially, what it refused
// to do. Medium and high risk actions are never executed automatically.
type AutoHealReport struct {
	Executed          []HealResult `json:"executed"`
	SkippedMediumRisk []string     `json:"skipped_medium_risk"`
	SkippedHighRisk   []string     `json:"skipped_high_risk"`
	SkippedCooldown   []string     `json:"skipped_cooldown"`
	Errors            []string     `json:"errors"`
}

// ── Learning ─────────────────────────────────────────────────

// ObjectiveSource says where a learning objective came from.
type ObjectiveSource string

const (
	SourceKnowledgeGap ObjectiveSource = "knowledge_gap"
	SourceCalibration  ObjectiveSource = "calibration"
)

// ObjectiveStatus tracks an objective through its life.
type ObjectiveStatus string

const (
	ObjectivePending    ObjectiveStatus = "pending"
	ObjectiveInProgress ObjectiveStatus = "in_progress"
	ObjectiveSatisfied  ObjectiveStatus = "satisfied"
)

// LearningObjective is one self-assigned study goal.
type LearningObjective struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Source     ObjectiveSource `json:"source"`
	Status     ObjectiveStatus `json:"status"`
	Priority   float64         `json:"priority"`
	Attempts   int             `json:"attempts"`
	Confidence float64         `json:"confidence"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProgressSummary is the sliding-window view of learning velocity.
type ProgressSummary struct {
	Total      int     `json:"total"`
	Satisfied  int     `json:"satisfied"`
	InProgress int     `json:"in_progress"`
	Pending    int     `json:"pending"`
	Velocity   float64 `json:"velocity"` // objectives satisfied per day
	Trend      Trend   `json:"trend"`
}

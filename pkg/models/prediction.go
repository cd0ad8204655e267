package models

import "time"

// ── Risk ─────────────────────────────────────────────────────

// Risk grades hallucination risk and healing-action blast radius.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ── Predictive Modeling ──────────────────────────────────────

// Cold-start defaults returned before any calibration data exists for a
// {tool, operation} pair.
const (
	DefaultPredictedDuration = 1000 * time.Millisecond
	DefaultPredictedSuccess  = 0.80
	DefaultPredictedSteps    = 3
	ColdStartConfidence      = 0.3
)

// Prediction is a forecast of how an operation will go. ID is the handle
// for the one-shot Calibrate that follows execution.
type Prediction struct {
	ID                string        `json:"prediction_id"`
	Tool              string        `json:"tool"`
	Operation         string        `json:"operation"`
	ExpectedDuration  time.Duration `json:"expected_duration_ms"`
	SuccessLikelihood float64       `json:"success_likelihood"`
	ExpectedSteps     int           `json:"expected_steps"`
	Confidence        float64       `json:"confidence"`
	SampleCount       int           `json:"sample_count"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Observation is the actual outcome fed back into Calibrate.
type Observation struct {
	Duration time.Duration `json:"duration_ms"`
	Success  bool          `json:"success"`
	Steps    int           `json:"steps"`
}

// CalibrationResult reports how close one prediction came to reality.
type CalibrationResult struct {
	PredictionID     string  `json:"prediction_id"`
	DurationAccuracy float64 `json:"duration_accuracy"`
	SuccessAccuracy  float64 `json:"success_accuracy"`
	OverallAccuracy  float64 `json:"overall_accuracy"`
}

// Trend is the direction of the rolling calibration score.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendStable           Trend = "stable"
	TrendDeclining        Trend = "declining"
	TrendInsufficientData Trend = "insufficient_data"
)

// CalibrationReport is the model-wide self-assessment: the blended score
// plus the per-component duration and success views behind it.
type CalibrationReport struct {
	Score               float64 `json:"score"`
	DurationCalibration float64 `json:"duration_calibration"`
	SuccessCalibration  float64 `json:"success_calibration"`
	Trend               Trend   `json:"trend"`
	Calibrations        int     `json:"calibrations"`
}

// ── Capability Boundary ──────────────────────────────────────

// BoundaryVerdict answers "can I handle this?".
type BoundaryVerdict string

const (
	VerdictOK        BoundaryVerdict = "ok"
	VerdictUncertain BoundaryVerdict = "uncertain"
	VerdictNo        BoundaryVerdict = "no"
)

// BoundaryRecord is one learned limitation, keyed by fingerprint. Hits
// count repeated identical failures; confidence decays as LastSeen ages.
type BoundaryRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Tool        string    `json:"tool"`
	Operation   string    `json:"operation"`
	Reason      string    `json:"reason"`
	Hits        int       `json:"hits"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// BoundaryCheck is the verdict plus the evidence behind it.
type BoundaryCheck struct {
	Verdict    BoundaryVerdict  `json:"verdict"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason,omitempty"`
	Matches    []BoundaryRecord `json:"matches,omitempty"`
}

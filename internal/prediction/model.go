// Package prediction implements predictive self-modeling: forecasting how
// an operation will go from rolling per-{tool,operation} statistics, then
// calibrating each forecast against the actual outcome to maintain a
// global accuracy score.
package prediction

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// minCalibrationSamples below which the report says insufficient_data
// rather than a misleadingly precise trend.
const minCalibrationSamples = 5

// keyStats is the rolling state for one {tool, operation} pair.
// Duration uses an exponential moving average, success a running rate.
type keyStats struct {
	avgDurationMs int64
	successCount  int
	sampleCount   int
	avgSteps      float64
}

// Model is the predictive self-model. It owns its own lock; predictions
// are consumed exactly once by Calibrate.
type Model struct {
	mu          sync.Mutex
	stats       map[string]*keyStats
	pending     map[string]models.Prediction // prediction id -> issued prediction
	accuracy    []float64                    // per-calibration overall accuracy, append-only
	durationAcc []float64                    // per-calibration duration accuracy
	successAcc  []float64                    // per-calibration success accuracy
}

func NewModel() *Model {
	return &Model{
		stats:   make(map[string]*keyStats),
		pending: make(map[string]models.Prediction),
	}
}

// ── Predict ─────────────────────────────────────────────────

// Predict forecasts the given operation. A never-seen key returns the
// fixed cold-start defaults; history tightens the forecast and raises its
// confidence with sample count.
func (m *Model) Predict(tool, operation string) models.Prediction {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := models.Prediction{
		ID:        uuid.NewString(),
		Tool:      tool,
		Operation: operation,
		CreatedAt: time.Now().UTC(),
	}

	stats := m.stats[statKey(tool, operation)]
	if stats == nil || stats.sampleCount == 0 {
		p.ExpectedDuration = models.DefaultPredictedDuration
		p.SuccessLikelihood = models.DefaultPredictedSuccess
		p.ExpectedSteps = models.DefaultPredictedSteps
		p.Confidence = models.ColdStartConfidence
	} else {
		p.ExpectedDuration = time.Duration(stats.avgDurationMs) * time.Millisecond
		p.SuccessLikelihood = float64(stats.successCount) / float64(stats.sampleCount)
		p.ExpectedSteps = int(math.Round(stats.avgSteps))
		if p.ExpectedSteps < 1 {
			p.ExpectedSteps = 1
		}
		// confidence climbs with history, saturating at 0.95
		p.Confidence = models.Clamp01(models.ColdStartConfidence + 0.065*float64(stats.sampleCount))
		if p.Confidence > 0.95 {
			p.Confidence = 0.95
		}
		p.SampleCount = stats.sampleCount
	}

	m.pending[p.ID] = p
	return p
}

// ── Calibrate ───────────────────────────────────────────────

// Calibrate folds the actual outcome of a previously issued prediction
// into the key's rolling statistics and the global accuracy score. Each
// prediction id is consumable exactly once.
func (m *Model) Calibrate(predictionID string, obs models.Observation) (models.CalibrationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[predictionID]
	if !ok {
		return models.CalibrationResult{}, &models.ErrNotFound{Entity: "prediction", Key: predictionID}
	}
	delete(m.pending, predictionID)

	key := statKey(p.Tool, p.Operation)
	stats := m.stats[key]
	if stats == nil {
		stats = &keyStats{}
		m.stats[key] = stats
	}

	actualMs := obs.Duration.Milliseconds()
	if stats.sampleCount == 0 {
		stats.avgDurationMs = actualMs
		stats.avgSteps = float64(obs.Steps)
	} else {
		stats.avgDurationMs = (stats.avgDurationMs*7 + actualMs*3) / 10
		stats.avgSteps = (stats.avgSteps*7 + float64(obs.Steps)*3) / 10
	}
	if obs.Success {
		stats.successCount++
	}
	stats.sampleCount++

	result := models.CalibrationResult{
		PredictionID:     predictionID,
		DurationAccuracy: durationAccuracy(p.ExpectedDuration.Milliseconds(), actualMs),
		SuccessAccuracy:  successAccuracy(p.SuccessLikelihood, obs.Success),
	}
	result.OverallAccuracy = (result.DurationAccuracy + result.SuccessAccuracy) / 2
	m.accuracy = append(m.accuracy, result.OverallAccuracy)
	m.durationAcc = append(m.durationAcc, result.DurationAccuracy)
	m.successAcc = append(m.successAcc, result.SuccessAccuracy)

	log.Debug().
		Str("tool", p.Tool).
		Str("operation", p.Operation).
		Float64("accuracy", result.OverallAccuracy).
		Msg("Prediction calibrated")
	return result, nil
}

// ── Calibration report ──────────────────────────────────────

// CalibrationScore summarizes how well the model predicts itself. Below
// the minimum sample count the trend is insufficient_data.
func (m *Model) CalibrationScore() models.CalibrationReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := models.CalibrationReport{Calibrations: len(m.accuracy)}
	if len(m.accuracy) == 0 {
		report.Trend = models.TrendInsufficientData
		return report
	}

	report.Score = mean(m.accuracy)
	report.DurationCalibration = mean(m.durationAcc)
	report.SuccessCalibration = mean(m.successAcc)

	if len(m.accuracy) < minCalibrationSamples {
		report.Trend = models.TrendInsufficientData
		return report
	}

	half := len(m.accuracy) / 2
	older := mean(m.accuracy[:half])
	newer := mean(m.accuracy[half:])
	switch {
	case newer > older+0.05:
		report.Trend = models.TrendImproving
	case newer < older-0.05:
		report.Trend = models.TrendDeclining
	default:
		report.Trend = models.TrendStable
	}
	return report
}

// PendingCount reports uncalibrated predictions, for diagnostics.
func (m *Model) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// DropStalePending discards pending predictions older than ttl. Called by
// the janitor so abandoned predictions do not accumulate forever.
func (m *Model) DropStalePending(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	dropped := 0
	for id, p := range m.pending {
		if p.CreatedAt.Before(cutoff) {
			delete(m.pending, id)
			dropped++
		}
	}
	return dropped
}

func statKey(tool, operation string) string { return tool + "/" + operation }

// durationAccuracy maps the relative error between predicted and actual
// duration into [0,1]; exact match is 1.
func durationAccuracy(predictedMs, actualMs int64) float64 {
	if predictedMs <= 0 && actualMs <= 0 {
		return 1
	}
	p, a := float64(predictedMs), float64(actualMs)
	longer := math.Max(p, a)
	if longer == 0 {
		return 1
	}
	return models.Clamp01(1 - math.Abs(p-a)/longer)
}

// successAccuracy scores the predicted probability against the boolean
// outcome (Brier-style, flipped so 1 is best).
func successAccuracy(predicted float64, success bool) float64 {
	actual := 0.0
	if success {
		actual = 1.0
	}
	diff := predicted - actual
	return models.Clamp01(1 - diff*diff)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

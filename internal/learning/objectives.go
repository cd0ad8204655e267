// Package learning turns accumulated knowledge gaps and calibration
// trends into prioritized learning objectives, periodically runs low-cost
// research against them, and summarizes progress velocity.
package learning

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// satisfiedConfidence is the assessment score at which an objective is
// considered learned.
const satisfiedConfidence = 0.7

// Objectives derives and stores learning objectives.
type Objectives struct {
	mu      sync.Mutex
	items   map[string]*models.LearningObjective
	tracker *epistemic.Tracker
	model   *prediction.Model
	now     func() time.Time
}

func NewObjectives(tracker *epistemic.Tracker, model *prediction.Model) *Objectives {
	return &Objectives{
		items:   make(map[string]*models.LearningObjective),
		tracker: tracker,
		model:   model,
		now:     time.Now,
	}
}

// Refresh derives objectives from the tracker's knowledge gaps and, when
// prediction calibration is declining, adds a calibration objective.
// Existing objectives for the same topic are kept, not duplicated.
func (o *Objectives) Refresh() []models.LearningObjective {
	targets := o.tracker.SuggestLearningTargets(epistemic.TargetOpts{Limit: 10})
	report := o.model.CalibrationScore()

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now().UTC()
	for _, target := range targets {
		if o.findByTopic(target.Topic) != nil {
			continue
		}
		obj := &models.LearningObjective{
			ID:        uuid.NewString(),
			Topic:     target.Topic,
			Source:    models.SourceKnowledgeGap,
			Status:    models.ObjectivePending,
			Priority:  1.0 / float64(target.Priority),
			CreatedAt: now,
			UpdatedAt: now,
		}
		o.items[obj.ID] = obj
	}

	if report.Trend == models.TrendDeclining && o.findByTopic("prediction calibration") == nil {
		obj := &models.LearningObjective{
			ID:        uuid.NewString(),
			Topic:     "prediction calibration",
			Source:    models.SourceCalibration,
			Status:    models.ObjectivePending,
			Priority:  1.0,
			CreatedAt: now,
			UpdatedAt: now,
		}
		o.items[obj.ID] = obj
		log.Info().Float64("score", report.Score).Msg("Calibration declining, added learning objective")
	}

	return o.listLocked()
}

// List returns all objectives, highest priority first.
func (o *Objectives) List() []models.LearningObjective {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listLocked()
}

// Pending returns up to limit unsatisfied objectives, highest priority
// first.
func (o *Objectives) Pending(limit int) []models.LearningObjective {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pending []models.LearningObjective
	for _, obj := range o.listLocked() {
		if obj.Status == models.ObjectiveSatisfied {
			continue
		}
		pending = append(pending, obj)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending
}

// RecordAttempt folds one research result into an objective: a confident
// assessment satisfies it, anything else counts an attempt and keeps it
// in progress.
func (o *Objectives) RecordAttempt(id string, confidence float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	obj, ok := o.items[id]
	if !ok {
		return &models.ErrNotFound{Entity: "objective", Key: id}
	}

	obj.Attempts++
	obj.Confidence = confidence
	obj.UpdatedAt = o.now().UTC()
	if confidence >= satisfiedConfidence {
		obj.Status = models.ObjectiveSatisfied
	} else {
		obj.Status = models.ObjectiveInProgress
	}
	return nil
}

// Progress summarizes learning velocity over the sliding window.
func (o *Objectives) Progress(window time.Duration) models.ProgressSummary {
	o.mu.Lock()
	defer o.mu.Unlock()

	summary := models.ProgressSummary{}
	cutoff := o.now().UTC().Add(-window)
	mid := o.now().UTC().Add(-window / 2)
	olderSatisfied, newerSatisfied := 0, 0

	for _, obj := range o.items {
		summary.Total++
		switch obj.Status {
		case models.ObjectiveSatisfied:
			summary.Satisfied++
			if obj.UpdatedAt.After(cutoff) {
				if obj.UpdatedAt.After(mid) {
					newerSatisfied++
				} else {
					olderSatisfied++
				}
			}
		case models.ObjectiveInProgress:
			summary.InProgress++
		default:
			summary.Pending++
		}
	}

	days := window.Hours() / 24
	if days > 0 {
		summary.Velocity = float64(olderSatisfied+newerSatisfied) / days
	}

	switch {
	case summary.Total == 0 || olderSatisfied+newerSatisfied == 0:
		summary.Trend = models.TrendInsufficientData
	case newerSatisfied > olderSatisfied:
		summary.Trend = models.TrendImproving
	case newerSatisfied < olderSatisfied:
		summary.Trend = models.TrendDeclining
	default:
		summary.Trend = models.TrendStable
	}
	return summary
}

func (o *Objectives) findByTopic(topic string) *models.LearningObjective {
	for _, obj := range o.items {
		if obj.Topic == topic {
			return obj
		}
	}
	return nil
}

func (o *Objectives) listLocked() []models.LearningObjective {
	out := make([]models.LearningObjective, 0, len(o.items))
	for _, obj := range o.items {
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

package learning_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/internal/learning"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

func newObjectives(t *testing.T) (*learning.Objectives, *epistemic.Tracker) {
	t.Helper()
	tracker := epistemic.NewTracker()
	return learning.NewObjectives(tracker, prediction.NewModel()), tracker
}

func seedGap(tracker *epistemic.Tracker, topic string, hits int) {
	low := models.Uncertainty{Confidence: models.ConfidenceLow, Score: 0.3}
	for i := 0; i < hits; i++ {
		tracker.Record(topic, low, nil)
	}
}

func TestRefresh_DerivesObjectivesFromGaps(t *testing.T) {
	o, tracker := newObjectives(t)
	seedGap(tracker, "raft consensus", 4)
	seedGap(tracker, "bloom filters", 2)

	objectives := o.Refresh()
	if len(objectives) != 2 {
		t.Fatalf("Refresh() produced %d objectives, want 2", len(objectives))
	}
	if objectives[0].Topic != "raft consensus" {
		t.Errorf("top objective = %q, want the most frequent gap first", objectives[0].Topic)
	}

	// refreshing again must not duplicate
	if again := o.Refresh(); len(again) != 2 {
		t.Errorf("second Refresh() produced %d objectives, want still 2", len(again))
	}
}

func TestRecordAttempt_SatisfiesAtThreshold(t *testing.T) {
	o, tracker := newObjectives(t)
	seedGap(tracker, "raft consensus", 3)
	objectives := o.Refresh()

	if err := o.RecordAttempt(objectives[0].ID, 0.8); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	got := o.List()[0]
	if got.Status != models.ObjectiveSatisfied {
		t.Errorf("Status = %q after confident research, want satisfied", got.Status)
	}

	if err := o.RecordAttempt("ghost", 0.8); err == nil {
		t.Error("RecordAttempt(unknown) error = nil, want not found")
	}
}

func TestRecordAttempt_LowConfidenceStaysInProgress(t *testing.T) {
	o, tracker := newObjectives(t)
	seedGap(tracker, "raft consensus", 3)
	objectives := o.Refresh()

	o.RecordAttempt(objectives[0].ID, 0.4)
	got := o.List()[0]
	if got.Status != models.ObjectiveInProgress {
		t.Errorf("Status = %q, want in_progress", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", got.Attempts)
	}
}

func TestExecutor_RetriesThenSucceeds(t *testing.T) {
	o, tracker := newObjectives(t)
	seedGap(tracker, "raft consensus", 3)

	calls := 0
	research := func(ctx context.Context, topic string) (models.Uncertainty, error) {
		calls++
		if calls < 3 {
			return models.Uncertainty{}, errors.New("collaborator timeout")
		}
		return models.Uncertainty{Topic: topic, Score: 0.85, Confidence: models.ConfidenceHigh}, nil
	}

	stats := learning.NewExecutor(o, research).RunOnce(context.Background())
	if stats.Researched != 1 {
		t.Errorf("Researched = %d, want 1 (after retries)", stats.Researched)
	}
	if stats.Satisfied != 1 {
		t.Errorf("Satisfied = %d, want 1", stats.Satisfied)
	}
	if calls < 3 {
		t.Errorf("research called %d times, want retries before success", calls)
	}
}

func TestExecutor_ExhaustedRetriesCountedFailed(t *testing.T) {
	o, tracker := newObjectives(t)
	seedGap(tracker, "raft consensus", 3)

	research := func(ctx context.Context, topic string) (models.Uncertainty, error) {
		return models.Uncertainty{}, errors.New("hard down")
	}

	stats := learning.NewExecutor(o, research).RunOnce(context.Background())
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.Satisfied != 0 {
		t.Errorf("Satisfied = %d, want 0", stats.Satisfied)
	}
}

func TestProgress_Summary(t *testing.T) {
	o, tracker := newObjectives(t)
	seedGap(tracker, "raft consensus", 3)
	seedGap(tracker, "bloom filters", 3)
	objectives := o.Refresh()

	o.RecordAttempt(objectives[0].ID, 0.9)

	summary := o.Progress(7 * 24 * time.Hour)
	if summary.Total != 2 {
		t.Errorf("Total = %d, want 2", summary.Total)
	}
	if summary.Satisfied != 1 {
		t.Errorf("Satisfied = %d, want 1", summary.Satisfied)
	}
	if summary.Velocity <= 0 {
		t.Errorf("Velocity = %v, want > 0 with a recent satisfaction", summary.Velocity)
	}
}

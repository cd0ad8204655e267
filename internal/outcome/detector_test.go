package outcome_test

import (
	"testing"

	"github.com/mimo-os/mimo/reasoning-core/internal/outcome"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ─── Terminal ────────────────────────────────────────────────

func TestDetectTerminal_ExitZero(t *testing.T) {
	d := outcome.DetectTerminal(0, "all done")
	if d.Outcome != models.OutcomeSuccess {
		t.Errorf("DetectTerminal(0).Outcome = %q, want %q", d.Outcome, models.OutcomeSuccess)
	}
	if d.Details["exit_code"] != 0 {
		t.Errorf("Details[exit_code] = %v, want 0", d.Details["exit_code"])
	}
}

func TestDetectTerminal_TestSummaryOverridesExitCode(t *testing.T) {
	d := outcome.DetectTerminal(1, "10 tests, 3 failures")
	if d.Outcome != models.OutcomeFailure {
		t.Errorf("Outcome = %q, want %q", d.Outcome, models.OutcomeFailure)
	}
	if d.Confidence < 0.7 {
		t.Errorf("Confidence = %v, want >= 0.7", d.Confidence)
	}
	results, ok := d.Details["test_results"].(map[string]interface{})
	if !ok {
		t.Fatalf("Details[test_results] missing, got %v", d.Details)
	}
	if results["failures"] != 3 {
		t.Errorf("test_results.failures = %v, want 3", results["failures"])
	}
}

func TestDetectTerminal_PassingSuiteOverridesNonzeroExit(t *testing.T) {
	d := outcome.DetectTerminal(0, "12 tests, 0 failures")
	if d.Outcome != models.OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", d.Outcome, models.OutcomeSuccess)
	}
	if d.Confidence < 0.9 {
		t.Errorf("Confidence = %v, want >= 0.9", d.Confidence)
	}
}

func TestDetectTerminal_ExitZeroWithErrorMarker(t *testing.T) {
	d := outcome.DetectTerminal(0, "warning ok but: error: something exploded")
	if d.Outcome != models.OutcomePartial {
		t.Errorf("Outcome = %q, want %q", d.Outcome, models.OutcomePartial)
	}
}

// ─── Compile ─────────────────────────────────────────────────

func TestDetectCompile(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   models.OutcomeKind
	}{
		{"error marker", "main.go:10: syntax error near token", models.OutcomeFailure},
		{"warnings only", "main.go:3: warning: unused import", models.OutcomePartial},
		{"explicit success", "Compiled successfully in 1.2s", models.OutcomeSuccess},
		{"no markers", "some unrelated text", models.OutcomeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := outcome.DetectCompile(tt.output)
			if d.Outcome != tt.want {
				t.Errorf("DetectCompile(%q).Outcome = %q, want %q", tt.output, d.Outcome, tt.want)
			}
		})
	}
}

// ─── User Feedback ───────────────────────────────────────────

func TestDetectUserFeedback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.OutcomeKind
	}{
		{"positive", "perfect, thanks!", models.OutcomeSuccess},
		{"negative", "this is still broken and doesn't work", models.OutcomeFailure},
		{"neutral", "what time is it", models.OutcomeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := outcome.DetectUserFeedback(tt.text)
			if d.Outcome != tt.want {
				t.Errorf("DetectUserFeedback(%q).Outcome = %q, want %q", tt.text, d.Outcome, tt.want)
			}
		})
	}
}

func TestDetectUserFeedback_NoCuesLowConfidence(t *testing.T) {
	d := outcome.DetectUserFeedback("hmm let me check the calendar")
	if d.Confidence > 0.5 {
		t.Errorf("Confidence = %v, want <= 0.5 with no cues", d.Confidence)
	}
}

// ─── File Operations ─────────────────────────────────────────

func TestDetectFileOperation(t *testing.T) {
	d := outcome.DetectFileOperation("write", map[string]interface{}{"bytes": 512})
	if d.Outcome != models.OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", d.Outcome, models.OutcomeSuccess)
	}

	d = outcome.DetectFileOperation("write", map[string]interface{}{"error": "permission denied"})
	if d.Outcome != models.OutcomeFailure {
		t.Errorf("Outcome with error key = %q, want %q", d.Outcome, models.OutcomeFailure)
	}
	if d.Details["error"] != "permission denied" {
		t.Errorf("Details[error] = %v, want %q", d.Details["error"], "permission denied")
	}
}

// ─── Aggregation ─────────────────────────────────────────────

func TestAggregate_Empty(t *testing.T) {
	d := outcome.Aggregate(nil)
	if d.Outcome != models.OutcomeUnknown {
		t.Errorf("Aggregate(nil).Outcome = %q, want %q", d.Outcome, models.OutcomeUnknown)
	}
	if d.Confidence != 0.0 {
		t.Errorf("Aggregate(nil).Confidence = %v, want 0.0", d.Confidence)
	}
}

func TestAggregate_FailureDominatesTies(t *testing.T) {
	d := outcome.Aggregate([]models.Detection{
		{Outcome: models.OutcomeSuccess, Confidence: 0.8},
		{Outcome: models.OutcomeFailure, Confidence: 0.8},
	})
	if d.Outcome != models.OutcomeFailure {
		t.Errorf("Outcome = %q, want %q on tie", d.Outcome, models.OutcomeFailure)
	}
}

func TestAggregate_StrongFailurePullsToPartial(t *testing.T) {
	d := outcome.Aggregate([]models.Detection{
		{Outcome: models.OutcomeSuccess, Confidence: 0.9},
		{Outcome: models.OutcomeSuccess, Confidence: 0.9},
		{Outcome: models.OutcomeFailure, Confidence: 0.8},
	})
	if d.Outcome == models.OutcomeSuccess {
		t.Errorf("Outcome = %q, a high-confidence failure must not leave the aggregate at success", d.Outcome)
	}
}

func TestAggregate_AllSuccess(t *testing.T) {
	d := outcome.Aggregate([]models.Detection{
		{Outcome: models.OutcomeSuccess, Confidence: 0.8},
		{Outcome: models.OutcomeSuccess, Confidence: 0.7},
	})
	if d.Outcome != models.OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", d.Outcome, models.OutcomeSuccess)
	}
}

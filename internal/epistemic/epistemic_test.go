package epistemic_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/internal/evidence"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

func newTestAssessor(t *testing.T) *epistemic.Assessor {
	t.Helper()
	memory := evidence.NewStaticSource(models.EvidenceMemory, []evidence.StaticEntry{
		{ID: "m1", Name: "elixir supervision trees", Keywords: []string{"elixir", "supervision"}},
		{ID: "m2", Name: "elixir genserver basics", Keywords: []string{"elixir", "genserver"}},
		{ID: "m3", Name: "otp release handling", Keywords: []string{"elixir", "release"}},
	})
	code := evidence.NewStaticSource(models.EvidenceCode, []evidence.StaticEntry{
		{ID: "c1", Name: "supervisor.ex", Keywords: []string{"supervision"}},
	})
	return epistemic.NewAssessor(evidence.NewGatherer([]evidence.Source{memory, code}, time.Second))
}

// ─── Assessor ────────────────────────────────────────────────

func TestAssess_NoEvidenceIsUnknown(t *testing.T) {
	a := newTestAssessor(t)
	u := a.Assess(context.Background(), "quantum basket weaving", epistemic.AssessOpts{})
	if u.Confidence != models.ConfidenceUnknown {
		t.Errorf("Confidence = %q, want %q", u.Confidence, models.ConfidenceUnknown)
	}
	if u.EvidenceCount != 0 {
		t.Errorf("EvidenceCount = %d, want 0", u.EvidenceCount)
	}
}

func TestAssess_EvidenceRaisesConfidence(t *testing.T) {
	a := newTestAssessor(t)
	u := a.Assess(context.Background(), "elixir supervision genserver release", epistemic.AssessOpts{IncludeCode: true})
	if u.Confidence == models.ConfidenceUnknown {
		t.Errorf("Confidence = %q with %d evidence items, want better than unknown", u.Confidence, u.EvidenceCount)
	}
	if u.EvidenceCount == 0 {
		t.Error("EvidenceCount = 0, want matched evidence")
	}
}

func TestAssess_StalenessPenaltyLowersScore(t *testing.T) {
	a := newTestAssessor(t)
	fresh := a.Assess(context.Background(), "elixir supervision genserver", epistemic.AssessOpts{})
	stale := a.Assess(context.Background(), "elixir supervision genserver", epistemic.AssessOpts{Staleness: 1.0})
	if stale.Score >= fresh.Score {
		t.Errorf("stale score %v >= fresh score %v, want penalty applied", stale.Score, fresh.Score)
	}
}

func TestAssessAll_MergesTopics(t *testing.T) {
	a := newTestAssessor(t)
	u := a.AssessAll(context.Background(),
		[]string{"elixir supervision", "elixir genserver"},
		epistemic.AssessOpts{IncludeCode: true})

	if !strings.Contains(u.Topic, " + ") {
		t.Errorf("merged Topic = %q, want concatenated topics", u.Topic)
	}
	// Both topics match the three memory entries via "elixir"; only the
	// first also matches c1. The union holds each item once.
	if u.EvidenceCount != 4 {
		t.Errorf("EvidenceCount = %d, want 4 (union of per-topic evidence)", u.EvidenceCount)
	}
}

// ─── Confidence thresholds ───────────────────────────────────

func TestToConfidenceLevel_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.ConfidenceLevel
	}{
		{0.19, models.ConfidenceUnknown},
		{0.20, models.ConfidenceLow},
		{0.39, models.ConfidenceLow},
		{0.40, models.ConfidenceMedium},
		{0.69, models.ConfidenceMedium},
		{0.70, models.ConfidenceHigh},
	}
	for _, tt := range tests {
		if got := models.ToConfidenceLevel(tt.score); got != tt.want {
			t.Errorf("ToConfidenceLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

// ─── Gap Detection ───────────────────────────────────────────

func TestAnalyzeUncertainty_NoKnowledge(t *testing.T) {
	u := models.Uncertainty{Confidence: models.ConfidenceUnknown, EvidenceCount: 0}
	a := epistemic.AnalyzeUncertainty(u)
	if a.Type != models.GapNoKnowledge {
		t.Errorf("Type = %q, want %q", a.Type, models.GapNoKnowledge)
	}
	if a.Severity != models.SeverityCritical {
		t.Errorf("Severity = %q, want %q", a.Severity, models.SeverityCritical)
	}
	if !epistemic.RequiresUserInput(a) {
		t.Error("RequiresUserInput() = false, want ask_user in actions")
	}
}

func TestAnalyzeUncertainty_DecisionOrder(t *testing.T) {
	tests := []struct {
		name string
		u    models.Uncertainty
		want models.GapType
	}{
		{"low confidence", models.Uncertainty{Confidence: models.ConfidenceLow, Score: 0.25, EvidenceCount: 4}, models.GapWeakKnowledge},
		{"sparse evidence", models.Uncertainty{Confidence: models.ConfidenceMedium, Score: 0.5, EvidenceCount: 2}, models.GapSparseEvidence},
		{"stale", models.Uncertainty{Confidence: models.ConfidenceHigh, Score: 0.8, EvidenceCount: 5, Staleness: 0.7}, models.GapStaleKnowledge},
		{"healthy", models.Uncertainty{Confidence: models.ConfidenceHigh, Score: 0.8, EvidenceCount: 5}, models.GapNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := epistemic.AnalyzeUncertainty(tt.u); got.Type != tt.want {
				t.Errorf("AnalyzeUncertainty().Type = %q, want %q", got.Type, tt.want)
			}
		})
	}
}

func TestGenerateResearchPlan_NoneGapIsEmpty(t *testing.T) {
	a := epistemic.AnalyzeUncertainty(models.Uncertainty{Confidence: models.ConfidenceHigh, Score: 0.9, EvidenceCount: 5})
	if plan := epistemic.GenerateResearchPlan(a); len(plan) != 0 {
		t.Errorf("GenerateResearchPlan() = %v, want empty for none gap", plan)
	}
}

func TestGenerateResearchPlan_Prioritized(t *testing.T) {
	a := epistemic.AnalyzeUncertainty(models.Uncertainty{Confidence: models.ConfidenceLow, Score: 0.3, EvidenceCount: 4})
	plan := epistemic.GenerateResearchPlan(a)
	if len(plan) == 0 {
		t.Fatal("GenerateResearchPlan() empty for weak_knowledge gap")
	}
	for i, step := range plan {
		if step.Priority != i+1 {
			t.Errorf("plan[%d].Priority = %d, want %d", i, step.Priority, i+1)
		}
	}
}

func TestDetectGapPatterns(t *testing.T) {
	p := epistemic.DetectGapPatterns("how do I use the latest phoenix framework?")
	if !p.AsksHowTo {
		t.Error("AsksHowTo = false, want true")
	}
	if !p.RequiresRecency {
		t.Error("RequiresRecency = false, want true")
	}
	if !p.MentionsLibrary {
		t.Error("MentionsLibrary = false, want true")
	}
}

// ─── Calibrated Response ─────────────────────────────────────

func TestFormatResponse_UnknownNeverClaimsKnowledge(t *testing.T) {
	u := models.Uncertainty{Topic: "zig comptime", Confidence: models.ConfidenceUnknown}
	resp := epistemic.FormatResponse("Zig comptime is great", u)
	if strings.Contains(resp, "Zig comptime is great") {
		t.Errorf("FormatResponse() = %q, unknown tier must not include the draft", resp)
	}
	if !strings.Contains(resp, "don't know") {
		t.Errorf("FormatResponse() = %q, want an explicit refusal", resp)
	}
}

func TestFormatResponse_HighPassesThrough(t *testing.T) {
	u := models.Uncertainty{Confidence: models.ConfidenceHigh}
	if got := epistemic.FormatResponse("The answer is 12.", u); got != "The answer is 12." {
		t.Errorf("FormatResponse() = %q, want unmodified draft", got)
	}
}

func TestCaveatMessage(t *testing.T) {
	if got := epistemic.CaveatMessage(models.Uncertainty{Confidence: models.ConfidenceHigh}); got != "" {
		t.Errorf("CaveatMessage(high) = %q, want empty", got)
	}

	got := epistemic.CaveatMessage(models.Uncertainty{
		Confidence:    models.ConfidenceMedium,
		EvidenceCount: 5,
		Staleness:     0.8,
	})
	if !strings.Contains(got, "outdated") {
		t.Errorf("CaveatMessage(stale) = %q, want mention of outdated knowledge", got)
	}
}

// ─── Tracker ─────────────────────────────────────────────────

func TestTracker_StatsAndGaps(t *testing.T) {
	tr := epistemic.NewTracker()
	low := models.Uncertainty{Confidence: models.ConfidenceLow, Score: 0.3}
	high := models.Uncertainty{Confidence: models.ConfidenceHigh, Score: 0.9}

	for i := 0; i < 3; i++ {
		tr.Record("rust lifetimes", low, nil)
	}
	tr.Record("tip math", high, nil)

	stats := tr.Stats()
	if stats.TotalQueries != 4 {
		t.Errorf("TotalQueries = %d, want 4", stats.TotalQueries)
	}
	if stats.UniqueTopics != 2 {
		t.Errorf("UniqueTopics = %d, want 2", stats.UniqueTopics)
	}
	if stats.ConfidenceDistribution[models.ConfidenceLow] != 3 {
		t.Errorf("distribution[low] = %d, want 3", stats.ConfidenceDistribution[models.ConfidenceLow])
	}

	gaps := tr.KnowledgeGaps(epistemic.GapOpts{Threshold: 0.5})
	if len(gaps) != 1 || gaps[0].Topic != "rust lifetimes" {
		t.Fatalf("KnowledgeGaps() = %v, want only rust lifetimes", gaps)
	}
	if gaps[0].LowConfidenceRate != 1.0 {
		t.Errorf("LowConfidenceRate = %v, want 1.0", gaps[0].LowConfidenceRate)
	}
}

func TestTracker_SuggestLearningTargets(t *testing.T) {
	tr := epistemic.NewTracker()
	low := models.Uncertainty{Confidence: models.ConfidenceLow, Score: 0.3}
	for i := 0; i < 5; i++ {
		tr.Record("kubernetes networking", low, nil)
	}
	tr.Record("dns records", low, nil)

	targets := tr.SuggestLearningTargets(epistemic.TargetOpts{Limit: 1})
	if len(targets) != 1 {
		t.Fatalf("SuggestLearningTargets() returned %d targets, want 1", len(targets))
	}
	if targets[0].Topic != "kubernetes networking" {
		t.Errorf("top target = %q, want the most frequent gap", targets[0].Topic)
	}
	if targets[0].Priority != 1 {
		t.Errorf("Priority = %d, want 1", targets[0].Priority)
	}
}

func TestTracker_Clear(t *testing.T) {
	tr := epistemic.NewTracker()
	tr.Record("x", models.Uncertainty{Confidence: models.ConfidenceLow}, nil)
	tr.Clear()
	if stats := tr.Stats(); stats.TotalQueries != 0 || stats.UniqueTopics != 0 {
		t.Errorf("Stats() after Clear() = %+v, want zeroed", stats)
	}
}

// ─── Brain ───────────────────────────────────────────────────

func TestBrainQuery_ShortCircuitsOnNoKnowledge(t *testing.T) {
	b := epistemic.NewBrain(newTestAssessor(t), epistemic.NewTracker())

	res := b.Query(context.Background(), "underwater basket weaving", epistemic.QueryOpts{Track: true})
	if res.GapAnalysis.Type != models.GapNoKnowledge {
		t.Fatalf("GapAnalysis.Type = %q, want no_knowledge", res.GapAnalysis.Type)
	}
	want := []string{"assess", "gap_detection"}
	if len(res.ActionsTaken) != len(want) {
		t.Fatalf("ActionsTaken = %v, want %v (short-circuit before calibrate)", res.ActionsTaken, want)
	}
	for i := range want {
		if res.ActionsTaken[i] != want[i] {
			t.Errorf("ActionsTaken[%d] = %q, want %q", i, res.ActionsTaken[i], want[i])
		}
	}
	if !strings.Contains(res.Response, "don't know") {
		t.Errorf("Response = %q, want an explicit refusal", res.Response)
	}
}

func TestBrainQuery_FullChainRecordsStages(t *testing.T) {
	tr := epistemic.NewTracker()
	b := epistemic.NewBrain(newTestAssessor(t), tr)

	res := b.Query(context.Background(), "elixir supervision genserver release", epistemic.QueryOpts{
		AssessOpts: epistemic.AssessOpts{IncludeCode: true},
		Draft:      "Supervision trees restart crashed processes.",
		Track:      true,
	})

	want := []string{"assess", "gap_detection", "calibrate", "record"}
	if len(res.ActionsTaken) != len(want) {
		t.Fatalf("ActionsTaken = %v, want %v", res.ActionsTaken, want)
	}
	if tr.Stats().TotalQueries != 1 {
		t.Errorf("tracker TotalQueries = %d, want 1", tr.Stats().TotalQueries)
	}
}

func TestBrainQuery_TrackingDisabledSkipsRecord(t *testing.T) {
	tr := epistemic.NewTracker()
	b := epistemic.NewBrain(newTestAssessor(t), tr)

	res := b.Query(context.Background(), "elixir supervision", epistemic.QueryOpts{Track: false})
	for _, stage := range res.ActionsTaken {
		if stage == "record" {
			t.Error("ActionsTaken includes record with tracking disabled")
		}
	}
	if tr.Stats().TotalQueries != 0 {
		t.Errorf("tracker TotalQueries = %d, want 0", tr.Stats().TotalQueries)
	}
}

package models_test

import (
	"strings"
	"testing"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

func TestMerge_UnionsSourcesAndConcatenatesTopics(t *testing.T) {
	a := models.Uncertainty{
		Topic: "redis pipelines",
		Score: 0.75,
		Sources: []models.EvidenceSource{
			{Kind: models.EvidenceMemory, ID: "m1", Relevance: 0.9},
			{Kind: models.EvidenceCode, ID: "c1", Relevance: 0.7},
		},
		Staleness: 0.2,
	}
	b := models.Uncertainty{
		Topic: "redis clustering",
		Score: 0.25,
		Sources: []models.EvidenceSource{
			{Kind: models.EvidenceMemory, ID: "m1", Relevance: 0.9}, // duplicate of a's
			{Kind: models.EvidenceGraph, ID: "g1", Relevance: 0.5},
		},
		Staleness:     0.6,
		GapIndicators: []string{"source_unavailable:library"},
	}

	merged := models.Merge(a, b)

	if !strings.Contains(merged.Topic, "redis pipelines") || !strings.Contains(merged.Topic, "redis clustering") {
		t.Errorf("Topic = %q, want both input topics", merged.Topic)
	}
	if merged.EvidenceCount != 3 {
		t.Errorf("EvidenceCount = %d, want 3 (m1 deduplicated)", merged.EvidenceCount)
	}
	if merged.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5 (mean of inputs)", merged.Score)
	}
	if merged.Staleness != 0.6 {
		t.Errorf("Staleness = %v, want 0.6 (worst case)", merged.Staleness)
	}
	if len(merged.GapIndicators) != 1 {
		t.Errorf("GapIndicators = %v, want the one carried indicator", merged.GapIndicators)
	}
	if merged.Confidence != models.ToConfidenceLevel(merged.Score) {
		t.Errorf("Confidence = %q, want tier of merged score", merged.Confidence)
	}
}

func TestMerge_DegenerateCases(t *testing.T) {
	if got := models.Merge(); got.Confidence != models.ConfidenceUnknown {
		t.Errorf("Merge() confidence = %q, want unknown", got.Confidence)
	}

	single := models.Uncertainty{Topic: "one", Score: 0.5, Confidence: models.ConfidenceMedium}
	if got := models.Merge(single); got.Topic != "one" || got.Score != 0.5 {
		t.Errorf("Merge(single) = %+v, want the input unchanged", got)
	}
}

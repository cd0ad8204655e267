// Package epistemic implements the uncertainty chain: assessing how much
// the system actually knows about a topic, classifying knowledge gaps,
// calibrating response language to confidence, and tracking recurring
// gaps over time. The Brain composes the chain into a single query
// operation with toggleable stages.
package epistemic

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/internal/evidence"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// AssessOpts toggles evidence sources for one assessment.
type AssessOpts struct {
	IncludeCode  bool
	IncludeGraph bool
	MemoryLimit  int
	Staleness    float64 // caller-known staleness of the topic, 0 if unknown
}

// Assessor turns gathered evidence into an Uncertainty value.
type Assessor struct {
	gatherer *evidence.Gatherer
}

func NewAssessor(g *evidence.Gatherer) *Assessor {
	return &Assessor{gatherer: g}
}

// Assess gathers evidence for a topic and scores it. Unavailable sources
// reduce the evidence pool and are noted as gap indicators; they never
// fail the assessment.
func (a *Assessor) Assess(ctx context.Context, topic string, opts AssessOpts) models.Uncertainty {
	res := a.gatherer.Gather(ctx, topic, evidence.GatherOpts{
		IncludeCode:  opts.IncludeCode,
		IncludeGraph: opts.IncludeGraph,
		MemoryLimit:  opts.MemoryLimit,
	})

	var indicators []string
	for _, kind := range res.Unavailable {
		indicators = append(indicators, "source_unavailable:"+string(kind))
	}

	raw := scoreEvidence(res.Sources)
	u := models.FromAssessment(models.FormatTopic(topic), raw, res.Sources, models.AssessmentOpts{
		Staleness:     opts.Staleness,
		GapIndicators: indicators,
	})

	log.Debug().
		Str("topic", u.Topic).
		Str("confidence", string(u.Confidence)).
		Float64("score", u.Score).
		Int("evidence", u.EvidenceCount).
		Msg("Topic assessed")
	return u
}

// AssessAll assesses each topic independently and merges the results into
// one combined Uncertainty: sources unioned, topics concatenated,
// staleness worst-case. Used when one question spans several topics.
func (a *Assessor) AssessAll(ctx context.Context, topics []string, opts AssessOpts) models.Uncertainty {
	us := make([]models.Uncertainty, 0, len(topics))
	for _, topic := range topics {
		us = append(us, a.Assess(ctx, topic, opts))
	}
	return models.Merge(us...)
}

// QuickAssess returns only the confidence tier, for cheap call sites.
func (a *Assessor) QuickAssess(ctx context.Context, topic string) models.ConfidenceLevel {
	return a.Assess(ctx, topic, AssessOpts{}).Confidence
}

// scoreEvidence maps a set of evidence items to a raw score in [0,1]:
// coverage (how many items, saturating at 5) weighted with mean relevance.
func scoreEvidence(sources []models.EvidenceSource) float64 {
	if len(sources) == 0 {
		return 0
	}

	coverage := float64(len(sources)) / 5.0
	if coverage > 1 {
		coverage = 1
	}

	var relSum float64
	for _, s := range sources {
		relSum += models.Clamp01(s.Relevance)
	}
	meanRelevance := relSum / float64(len(sources))

	return models.Clamp01(0.4*coverage + 0.6*meanRelevance)
}

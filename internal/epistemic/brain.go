package epistemic

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ── Epistemic Brain ─────────────────────────────────────────

// QueryOpts toggles the stages of a composed epistemic query.
type QueryOpts struct {
	AssessOpts
	Draft string // draft answer to calibrate; topic echoed back if empty
	Track bool
}

// Brain composes the epistemic chain (assess, gap-detect, calibrate,
// record) into one operation. Stage names actually executed are reported
// back so callers can verify which stages ran under a given toggle set.
type Brain struct {
	assessor *Assessor
	tracker  *Tracker
}

func NewBrain(assessor *Assessor, tracker *Tracker) *Brain {
	return &Brain{assessor: assessor, tracker: tracker}
}

// Query runs the chain. A no_knowledge gap short-circuits to an explicit
// refusal before any calibration happens; everything else gets a hedged
// response proportional to confidence.
func (b *Brain) Query(ctx context.Context, topic string, opts QueryOpts) models.QueryResult {
	var taken []string

	u := b.assessor.Assess(ctx, topic, opts.AssessOpts)
	taken = append(taken, "assess")

	analysis := AnalyzeUncertainty(u)
	taken = append(taken, "gap_detection")

	if analysis.Type == models.GapNoKnowledge {
		log.Info().
			Str("topic", u.Topic).
			Msg("🔕 No knowledge for topic, refusing rather than guessing")
		return models.QueryResult{
			Response:     FormatResponse("", u),
			Uncertainty:  u,
			GapAnalysis:  analysis,
			ActionsTaken: taken,
		}
	}

	draft := opts.Draft
	if draft == "" {
		draft = "Here is what I found about " + u.Topic + "."
	}
	response := FormatResponse(draft, u)
	if caveat := CaveatMessage(u); caveat != "" {
		response += "\n\n" + caveat
	}
	taken = append(taken, "calibrate")

	if opts.Track && b.tracker != nil {
		b.tracker.Record(topic, u, nil)
		taken = append(taken, "record")
	}

	return models.QueryResult{
		Response:     response,
		Uncertainty:  u,
		GapAnalysis:  analysis,
		ActionsTaken: taken,
	}
}

// CanAnswer reports whether the topic assesses at or above the minimum
// confidence tier.
func (b *Brain) CanAnswer(ctx context.Context, topic string, min models.ConfidenceLevel) bool {
	u := b.assessor.Assess(ctx, topic, AssessOpts{IncludeCode: true, IncludeGraph: true})
	return u.Confidence.Rank() >= min.Rank()
}

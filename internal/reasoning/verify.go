package reasoning

import (
	"strconv"
	"strings"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ── Chain verification ──────────────────────────────────────

var overconfidenceMarkers = []string{
	"obviously", "clearly", "definitely", "certainly", "everyone knows",
	"without a doubt", "trivially",
}

var conclusionMarkers = []string{
	"therefore", "so the answer", "the answer", "conclusion", "result is",
	"in summary", "thus", "=",
}

// VerifyChain audits an explicit list of thoughts for logical gaps,
// repetition, and hallucination signals.
func VerifyChain(thoughts []string) models.VerificationResult {
	result := models.VerificationResult{Valid: true, Issues: []string{}}

	if len(thoughts) == 0 {
		result.Valid = false
		result.Issues = append(result.Issues, "empty reasoning chain")
		result.HallucinationRisk = models.RiskHigh
		result.Completeness = models.CompletenessIncomplete
		result.Suggestions = append(result.Suggestions, "record at least one reasoning step before verifying")
		return result
	}

	seen := make(map[string]int)
	overconfident := 0
	unsupported := 0
	for i, thought := range thoughts {
		norm := strings.ToLower(strings.TrimSpace(thought))
		if prev, dup := seen[norm]; dup {
			result.Valid = false
			result.Issues = append(result.Issues,
				"step "+strconv.Itoa(i+1)+" repeats step "+strconv.Itoa(prev+1)+" verbatim")
		}
		seen[norm] = i

		for _, m := range overconfidenceMarkers {
			if strings.Contains(norm, m) {
				overconfident++
				break
			}
		}
		if evaluateStep(thought) == models.StepBad {
			unsupported++
		}
	}

	if unsupported > 0 {
		result.Issues = append(result.Issues, strconv.Itoa(unsupported)+" step(s) hedge without supporting reasoning")
		result.Suggestions = append(result.Suggestions, "replace hedged steps with evidence or an explicit assumption")
	}
	if unsupported > len(thoughts)/2 {
		result.Valid = false
	}

	switch {
	case overconfident >= 2 || (overconfident >= 1 && unsupported > 0):
		result.HallucinationRisk = models.RiskHigh
	case overconfident == 1 || unsupported > 0:
		result.HallucinationRisk = models.RiskMedium
	default:
		result.HallucinationRisk = models.RiskLow
	}

	switch {
	case hasConclusion(thoughts) && len(thoughts) >= 2:
		result.Completeness = models.CompletenessComplete
	case len(thoughts) >= 2:
		result.Completeness = models.CompletenessPossiblyIncomplete
		result.Suggestions = append(result.Suggestions, "state an explicit conclusion as the final step")
	default:
		result.Completeness = models.CompletenessIncomplete
		result.Suggestions = append(result.Suggestions, "a single step rarely covers a whole problem; decompose further")
	}

	return result
}

// Verify audits a stored session's accumulated steps.
func (r *Reasoner) Verify(sessionID string) (models.VerificationResult, error) {
	session, err := r.store.Get(sessionID)
	if err != nil {
		return models.VerificationResult{}, err
	}

	thoughts := make([]string, len(session.Steps))
	for i, step := range session.Steps {
		thoughts[i] = step.Thought
	}
	return VerifyChain(thoughts), nil
}

func hasConclusion(thoughts []string) bool {
	last := strings.ToLower(thoughts[len(thoughts)-1])
	for _, m := range conclusionMarkers {
		if strings.Contains(last, m) {
			return true
		}
	}
	return false
}

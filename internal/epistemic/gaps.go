package epistemic

import (
	"regexp"
	"strings"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ── Gap Detection ───────────────────────────────────────────

// AnalyzeUncertainty classifies an Uncertainty against the gap taxonomy.
// The checks run in a fixed decision order; the first matching rule wins.
func AnalyzeUncertainty(u models.Uncertainty) models.GapAnalysis {
	switch {
	case u.Confidence == models.ConfidenceUnknown && u.EvidenceCount == 0:
		return models.GapAnalysis{
			Type:       models.GapNoKnowledge,
			Severity:   models.SeverityCritical,
			Suggestion: "No knowledge found for this topic. Ask the user for context or search externally before answering.",
			Actions:    []models.GapAction{models.ActionAskUser, models.ActionSearchExternal},
			Details:    map[string]interface{}{"score": u.Score},
		}

	case u.Confidence == models.ConfidenceLow:
		severity := models.SeverityModerate
		if u.Score < 0.3 {
			severity = models.SeverityCritical
		}
		return models.GapAnalysis{
			Type:       models.GapWeakKnowledge,
			Severity:   severity,
			Suggestion: "Knowledge on this topic is weak. Gather more evidence or present the answer with an explicit caveat.",
			Actions:    []models.GapAction{models.ActionSearchExternal, models.ActionSearchCodebase, models.ActionPresentWithCaveat},
			Details:    map[string]interface{}{"score": u.Score},
		}

	case u.EvidenceCount < 3:
		return models.GapAnalysis{
			Type:       models.GapSparseEvidence,
			Severity:   models.SeverityMinor,
			Suggestion: "Confidence is acceptable but rests on few sources. Consider widening the search.",
			Actions:    []models.GapAction{models.ActionSearchExternal, models.ActionPresentWithCaveat},
			Details:    map[string]interface{}{"evidence_count": u.EvidenceCount},
		}

	case u.Staleness > 0.5:
		return models.GapAnalysis{
			Type:       models.GapStaleKnowledge,
			Severity:   models.SeverityModerate,
			Suggestion: "Knowledge on this topic has not been verified recently. Re-check before presenting as current.",
			Actions:    []models.GapAction{models.ActionSearchExternal, models.ActionPresentWithCaveat},
			Details:    map[string]interface{}{"staleness": u.Staleness},
		}

	default:
		return models.GapAnalysis{
			Type:       models.GapNone,
			Severity:   models.SeverityNone,
			Suggestion: "Knowledge is sufficient.",
			Actions:    []models.GapAction{models.ActionProceedNormally},
		}
	}
}

// RequiresUserInput reports whether the analysis asks for user context.
func RequiresUserInput(a models.GapAnalysis) bool {
	return hasAction(a, models.ActionAskUser)
}

// Researchable reports whether the gap can be narrowed without the user.
func Researchable(a models.GapAnalysis) bool {
	return hasAction(a, models.ActionSearchExternal) ||
		hasAction(a, models.ActionSearchCodebase) ||
		hasAction(a, models.ActionResearchLibrary)
}

// PrimaryAction returns the highest-priority recommended action.
func PrimaryAction(a models.GapAnalysis) models.GapAction {
	if len(a.Actions) == 0 {
		return models.ActionProceedNormally
	}
	return a.Actions[0]
}

func hasAction(a models.GapAnalysis, action models.GapAction) bool {
	for _, act := range a.Actions {
		if act == action {
			return true
		}
	}
	return false
}

// ── Lexical pre-flight triage ───────────────────────────────

var (
	libraryPattern = regexp.MustCompile(`(?i)\b(library|package|gem|crate|npm|pip|hex|framework|sdk)\b|[a-z0-9_\-]+/[a-z0-9_\-]+`)
	codePattern    = regexp.MustCompile(`\w+\(\)|\w+\.\w+\(|[a-z]+_[a-z]+|\b[a-z]+[A-Z]\w*\b|\.\w{1,4}\b`)
	howToPattern   = regexp.MustCompile(`(?i)\bhow (do|can|to|should|would)\b|\bwhat('s| is) the (best|right) way\b`)
	recencyPattern = regexp.MustCompile(`(?i)\b(latest|newest|current|recent|this year|20\d\d)\b`)
)

// DetectGapPatterns lexically flags library references, code references,
// how-to phrasing, and recency requirements in a raw query, before any
// assessment runs.
func DetectGapPatterns(text string) models.GapPatterns {
	var p models.GapPatterns

	if m := libraryPattern.FindString(text); m != "" {
		p.MentionsLibrary = true
		p.MatchedFragments = append(p.MatchedFragments, strings.TrimSpace(m))
	}
	if m := codePattern.FindString(text); m != "" {
		p.MentionsCode = true
		p.MatchedFragments = append(p.MatchedFragments, strings.TrimSpace(m))
	}
	if m := howToPattern.FindString(text); m != "" {
		p.AsksHowTo = true
		p.MatchedFragments = append(p.MatchedFragments, strings.TrimSpace(m))
	}
	if m := recencyPattern.FindString(text); m != "" {
		p.RequiresRecency = true
		p.MatchedFragments = append(p.MatchedFragments, strings.TrimSpace(m))
	}
	return p
}

// ── Research plan ───────────────────────────────────────────

var researchDescriptions = map[models.GapAction]string{
	models.ActionAskUser:         "Ask the user for the missing context",
	models.ActionSearchExternal:  "Search external documentation and references",
	models.ActionSearchCodebase:  "Search the codebase for related symbols and usage",
	models.ActionResearchLibrary: "Fetch and study the relevant library documentation",
}

// GenerateResearchPlan turns a gap analysis into prioritized research
// steps. Presentation-only actions and a gap type of none always produce
// an empty plan.
func GenerateResearchPlan(a models.GapAnalysis) []models.ResearchStep {
	if a.Type == models.GapNone {
		return nil
	}

	var plan []models.ResearchStep
	priority := 1
	for _, action := range a.Actions {
		desc, ok := researchDescriptions[action]
		if !ok {
			continue // present_with_caveat and proceed_normally are not research
		}
		plan = append(plan, models.ResearchStep{
			Action:      action,
			Priority:    priority,
			Description: desc,
		})
		priority++
	}
	return plan
}

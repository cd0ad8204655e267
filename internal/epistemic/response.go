package epistemic

import (
	"fmt"
	"strings"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ── Calibrated Response ─────────────────────────────────────
//
// The language templates here are deliberately plain; what matters is the
// rule that selects among them. Low and unknown confidence must always
// hedge or refuse, never assert.

// FormatResponse prefixes a draft answer with hedging language selected by
// confidence tier. Unknown confidence replaces the draft entirely with an
// explicit "I don't know" that claims no partial knowledge.
func FormatResponse(draft string, u models.Uncertainty) string {
	switch u.Confidence {
	case models.ConfidenceHigh:
		return draft
	case models.ConfidenceMedium:
		return "Based on what I know, " + lowerFirst(draft)
	case models.ConfidenceLow:
		return fmt.Sprintf("I'm not certain about this (%s confidence): %s", models.Percent(u.Score), draft)
	default:
		return fmt.Sprintf("I don't know enough about %s to answer reliably. I'd rather say so than guess.", u.Topic)
	}
}

// CaveatMessage composes a warning for a non-high-confidence answer. It
// returns the empty string for high confidence. Warnings stack in priority
// order: low evidence first, then staleness, then gap indicators.
func CaveatMessage(u models.Uncertainty) string {
	if u.Confidence == models.ConfidenceHigh {
		return ""
	}

	var warnings []string
	if u.EvidenceCount < 3 {
		warnings = append(warnings, fmt.Sprintf("this is based on only %d source(s)", u.EvidenceCount))
	}
	if u.Staleness > 0.5 {
		warnings = append(warnings, "my knowledge here may be outdated")
	}
	if len(u.GapIndicators) > 0 {
		warnings = append(warnings, "known gaps: "+strings.Join(u.GapIndicators, ", "))
	}
	if len(warnings) == 0 {
		warnings = append(warnings, fmt.Sprintf("confidence is %s", u.Confidence))
	}

	return "Note: " + strings.Join(warnings, "; ") + "."
}

// ConfidenceIndicator renders a compact confidence marker for inline use.
func ConfidenceIndicator(level models.ConfidenceLevel, score float64) string {
	return fmt.Sprintf("[confidence: %s (%s)]", level, models.Percent(score))
}

// FormatAlternatives renders candidate answers as a numbered list.
func FormatAlternatives(alternatives []string) string {
	if len(alternatives) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Possible answers:\n")
	for i, alt := range alternatives {
		fmt.Fprintf(&b, "%d. %s\n", i+1, alt)
	}
	return strings.TrimRight(b.String(), "\n")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Package models defines the shared data model of the Mimo reasoning core:
// uncertainty values, reasoning sessions, decision traces, predictions,
// capability boundaries, and healing actions. Every tagged union is a closed
// string-typed enum; consumers switch exhaustively so adding a variant is a
// compile-visible change.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// ── Confidence ───────────────────────────────────────────────

// ConfidenceLevel is the discrete belief tier derived from a numeric score.
type ConfidenceLevel string

const (
	ConfidenceUnknown ConfidenceLevel = "unknown"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceHigh    ConfidenceLevel = "high"
)

// ToConfidenceLevel maps a score in [0,1] to its tier. The thresholds are
// exact at the boundaries: 0.20 is low, 0.40 is medium, 0.70 is high.
func ToConfidenceLevel(score float64) ConfidenceLevel {
	switch {
	case score < 0.2:
		return ConfidenceUnknown
	case score < 0.4:
		return ConfidenceLow
	case score < 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Rank orders tiers for comparisons (unknown=0 … high=3).
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 0
	}
}

// ── Evidence ─────────────────────────────────────────────────

// EvidenceKind identifies which collaborator produced a piece of evidence.
type EvidenceKind string

const (
	EvidenceMemory  EvidenceKind = "memory"
	EvidenceCode    EvidenceKind = "code"
	EvidenceGraph   EvidenceKind = "graph"
	EvidenceLibrary EvidenceKind = "library"
)

// EvidenceSource is one supporting item returned by an evidence collaborator.
type EvidenceSource struct {
	Kind      EvidenceKind `json:"kind"`
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Relevance float64      `json:"relevance"`
}

// ── Uncertainty ──────────────────────────────────────────────

// stalenessPenalty is the fraction of the raw score forfeited at full
// staleness: score' = score * (1 - staleness*0.3).
const stalenessPenalty = 0.3

// Uncertainty is the core's explicit, inspectable belief-state about a topic.
// Values are immutable after construction; Merge produces a new value.
type Uncertainty struct {
	Topic         string           `json:"topic"`
	Confidence    ConfidenceLevel  `json:"confidence"`
	Score         float64          `json:"score"`
	EvidenceCount int              `json:"evidence_count"`
	Sources       []EvidenceSource `json:"sources,omitempty"`
	Staleness     float64          `json:"staleness"`
	GapIndicators []string         `json:"gap_indicators,omitempty"`
	LastVerified  *time.Time       `json:"last_verified,omitempty"`
}

// AssessmentOpts carries the optional inputs to FromAssessment.
type AssessmentOpts struct {
	Staleness     float64
	GapIndicators []string
	LastVerified  *time.Time
}

// FromAssessment builds an Uncertainty from a raw evidence score. The
// staleness penalty is applied before the tier is derived, so stale evidence
// can drop a topic a full tier.
func FromAssessment(topic string, rawScore float64, sources []EvidenceSource, opts AssessmentOpts) Uncertainty {
	staleness := Clamp01(opts.Staleness)
	score := Clamp01(rawScore) * (1 - staleness*stalenessPenalty)

	return Uncertainty{
		Topic:         topic,
		Confidence:    ToConfidenceLevel(score),
		Score:         score,
		EvidenceCount: len(sources),
		Sources:       sources,
		Staleness:     staleness,
		GapIndicators: opts.GapIndicators,
		LastVerified:  opts.LastVerified,
	}
}

// Merge combines uncertainties gathered for one query from multiple
// collaborators: sources are unioned, topics concatenated, scores averaged,
// staleness takes the worst case.
func Merge(us ...Uncertainty) Uncertainty {
	if len(us) == 0 {
		return Uncertainty{Confidence: ConfidenceUnknown}
	}
	if len(us) == 1 {
		return us[0]
	}

	var (
		topics     []string
		sources    []EvidenceSource
		indicators []string
		scoreSum   float64
		staleness  float64
		seen       = make(map[string]bool)
	)
	var lastVerified *time.Time

	for _, u := range us {
		topics = append(topics, u.Topic)
		scoreSum += u.Score
		if u.Staleness > staleness {
			staleness = u.Staleness
		}
		for _, s := range u.Sources {
			key := string(s.Kind) + ":" + s.ID
			if !seen[key] {
				seen[key] = true
				sources = append(sources, s)
			}
		}
		indicators = append(indicators, u.GapIndicators...)
		if u.LastVerified != nil && (lastVerified == nil || u.LastVerified.After(*lastVerified)) {
			lastVerified = u.LastVerified
		}
	}

	score := scoreSum / float64(len(us))
	return Uncertainty{
		Topic:         strings.Join(topics, " + "),
		Confidence:    ToConfidenceLevel(score),
		Score:         score,
		EvidenceCount: len(sources),
		Sources:       sources,
		Staleness:     staleness,
		GapIndicators: indicators,
		LastVerified:  lastVerified,
	}
}

// Clamp01 bounds v to [0,1] and squashes NaN to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ── Knowledge Gaps ───────────────────────────────────────────

// GapType classifies a detected knowledge deficiency.
type GapType string

const (
	GapNoKnowledge    GapType = "no_knowledge"
	GapWeakKnowledge  GapType = "weak_knowledge"
	GapSparseEvidence GapType = "sparse_evidence"
	GapStaleKnowledge GapType = "stale_knowledge"
	GapNone           GapType = "none"
)

// Severity grades how badly a gap undermines an answer.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityModerate Severity = "moderate"
	SeverityMinor    Severity = "minor"
	SeverityNone     Severity = "none"
)

// GapAction is the closed vocabulary of remediations a gap analysis may
// recommend.
type GapAction string

const (
	ActionAskUser           GapAction = "ask_user"
	ActionSearchExternal    GapAction = "search_external"
	ActionSearchCodebase    GapAction = "search_codebase"
	ActionPresentWithCaveat GapAction = "present_with_caveat"
	ActionProceedNormally   GapAction = "proceed_normally"
	ActionResearchLibrary   GapAction = "research_library"
)

// GapAnalysis is the result of classifying an Uncertainty against the gap
// taxonomy.
type GapAnalysis struct {
	Type       GapType                `json:"gap_type"`
	Severity   Severity               `json:"severity"`
	Suggestion string                 `json:"suggestion"`
	Actions    []GapAction            `json:"actions"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ResearchStep is one prioritized item of a research plan derived from a gap.
type ResearchStep struct {
	Action      GapAction `json:"action"`
	Priority    int       `json:"priority"`
	Description string    `json:"description"`
}

// GapPatterns is the lexical pre-flight triage of a raw query, available
// before any assessment runs.
type GapPatterns struct {
	MentionsLibrary  bool     `json:"mentions_library"`
	MentionsCode     bool     `json:"mentions_code"`
	AsksHowTo        bool     `json:"asks_how_to"`
	RequiresRecency  bool     `json:"requires_recency"`
	MatchedFragments []string `json:"matched_fragments,omitempty"`
}

// ── Outcome Detection ────────────────────────────────────────

// OutcomeKind is the normalized classification of an observed raw signal.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
	OutcomePartial OutcomeKind = "partial"
	OutcomeUnknown OutcomeKind = "unknown"
)

// SignalType records which detector produced a Detection.
type SignalType string

const (
	SignalTerminal      SignalType = "terminal"
	SignalCompile       SignalType = "compile"
	SignalUserFeedback  SignalType = "user_feedback"
	SignalFileOperation SignalType = "file_operation"
	SignalAggregate     SignalType = "aggregate"
)

// Detection is the normalized tuple every outcome detector returns.
type Detection struct {
	Outcome    OutcomeKind            `json:"outcome"`
	Confidence float64                `json:"confidence"`
	Signal     SignalType             `json:"signal_type"`
	Signals    []string               `json:"signals,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ── Epistemic Query ──────────────────────────────────────────

// QueryResult is the composite answer of the epistemic orchestrator.
type QueryResult struct {
	Response     string      `json:"response"`
	Uncertainty  Uncertainty `json:"uncertainty"`
	GapAnalysis  GapAnalysis `json:"gap_analysis"`
	ActionsTaken []string    `json:"actions_taken"`
}

// TrackerStats is the aggregate view of the uncertainty tracker.
type TrackerStats struct {
	TotalQueries           int                     `json:"total_queries"`
	ConfidenceDistribution map[ConfidenceLevel]int `json:"confidence_distribution"`
	GapCount               int                     `json:"gap_count"`
	UniqueTopics           int                     `json:"unique_topics"`
}

// KnowledgeGap is one recurring low-confidence topic surfaced by the tracker.
type KnowledgeGap struct {
	Topic             string    `json:"topic"`
	Occurrences       int       `json:"occurrences"`
	LowConfidenceRate float64   `json:"low_confidence_rate"`
	LastSeen          time.Time `json:"last_seen"`
}

// LearningTarget ranks a knowledge gap for deliberate study.
type LearningTarget struct {
	Topic            string      `json:"topic"`
	Priority         int         `json:"priority"`
	Reason           string      `json:"reason"`
	SuggestedActions []GapAction `json:"suggested_actions"`
}

// ── Validation helpers ───────────────────────────────────────

// ValidStrategy reports whether s names a known reasoning strategy.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyChainOfThought, StrategyTreeOfThoughts, StrategyReAct, StrategyReflexion:
		return true
	}
	return false
}

// ValidRisk reports whether r is a known risk grade.
func ValidRisk(r Risk) bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// String helpers used in log fields.
func (g GapType) String() string      { return string(g) }
func (o OutcomeKind) String() string  { return string(o) }
func (c ConfidenceLevel) String() string { return string(c) }

// FormatTopic normalizes a raw query into a topic key: lowercase, collapsed
// whitespace, capped length.
func FormatTopic(query string) string {
	topic := strings.ToLower(strings.TrimSpace(query))
	topic = strings.Join(strings.Fields(topic), " ")
	if len(topic) > 120 {
		cut := 120
		for cut > 0 && !utf8.RuneStart(topic[cut]) {
			cut--
		}
		topic = topic[:cut]
	}
	return topic
}

// Percent renders a score as a human-readable percentage ("72%").
func Percent(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(Clamp01(score)*100)))
}

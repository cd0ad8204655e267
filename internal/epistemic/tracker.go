package epistemic

import (
	"sort"
	"sync"
	"time"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ── Uncertainty Tracker ─────────────────────────────────────

// topicRecord accumulates per-topic confidence history.
type topicRecord struct {
	total       int
	lowOrWorse  int
	gapHits     int
	lastSeen    time.Time
	lastTier    models.ConfidenceLevel
	lastActions []models.GapAction
}

// Tracker is a long-lived aggregator of assessment results. It owns its
// own mutex and shares no tables with any other subsystem.
type Tracker struct {
	mu           sync.Mutex
	topics       map[string]*topicRecord
	totalQueries int
	distribution map[models.ConfidenceLevel]int
	now          func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		topics:       make(map[string]*topicRecord),
		distribution: make(map[models.ConfidenceLevel]int),
		now:          time.Now,
	}
}

// Record appends one assessment. outcome is optional; a known failure
// counts the topic as a gap hit even at decent confidence.
func (t *Tracker) Record(query string, u models.Uncertainty, outcome *models.OutcomeKind) {
	topic := models.FormatTopic(query)
	if topic == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.topics[topic]
	if rec == nil {
		rec = &topicRecord{}
		t.topics[topic] = rec
	}

	rec.total++
	rec.lastSeen = t.now()
	rec.lastTier = u.Confidence
	if u.Confidence == models.ConfidenceLow || u.Confidence == models.ConfidenceUnknown {
		rec.lowOrWorse++
		rec.gapHits++
		rec.lastActions = AnalyzeUncertainty(u).Actions
	} else if outcome != nil && *outcome == models.OutcomeFailure {
		rec.gapHits++
	}

	t.totalQueries++
	t.distribution[u.Confidence]++
}

// Stats returns the aggregate view.
func (t *Tracker) Stats() models.TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	dist := make(map[models.ConfidenceLevel]int, len(t.distribution))
	for k, v := range t.distribution {
		dist[k] = v
	}

	gaps := 0
	for _, rec := range t.topics {
		if rec.gapHits > 0 {
			gaps++
		}
	}

	return models.TrackerStats{
		TotalQueries:           t.totalQueries,
		ConfidenceDistribution: dist,
		GapCount:               gaps,
		UniqueTopics:           len(t.topics),
	}
}

// GapOpts filters the knowledge-gap query.
type GapOpts struct {
	Threshold      float64 // low-confidence rate above which a topic is a gap
	MinOccurrences int
}

// KnowledgeGaps returns topics whose low-confidence rate exceeds the
// threshold, ranked by occurrence count.
func (t *Tracker) KnowledgeGaps(opts GapOpts) []models.KnowledgeGap {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.5
	}
	if opts.MinOccurrences <= 0 {
		opts.MinOccurrences = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var gaps []models.KnowledgeGap
	for topic, rec := range t.topics {
		if rec.total < opts.MinOccurrences {
			continue
		}
		rate := float64(rec.lowOrWorse) / float64(rec.total)
		if rate <= opts.Threshold {
			continue
		}
		gaps = append(gaps, models.KnowledgeGap{
			Topic:             topic,
			Occurrences:       rec.total,
			LowConfidenceRate: rate,
			LastSeen:          rec.lastSeen,
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Occurrences != gaps[j].Occurrences {
			return gaps[i].Occurrences > gaps[j].Occurrences
		}
		return gaps[i].Topic < gaps[j].Topic
	})
	return gaps
}

// TargetOpts bounds learning-target suggestions.
type TargetOpts struct {
	Limit int
	GapOpts
}

// SuggestLearningTargets ranks knowledge gaps into prioritized study
// targets with suggested remediation actions.
func (t *Tracker) SuggestLearningTargets(opts TargetOpts) []models.LearningTarget {
	gaps := t.KnowledgeGaps(opts.GapOpts)
	if opts.Limit <= 0 {
		opts.Limit = 5
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var targets []models.LearningTarget
	for i, gap := range gaps {
		if i >= opts.Limit {
			break
		}
		actions := []models.GapAction{models.ActionSearchExternal}
		if rec := t.topics[gap.Topic]; rec != nil && len(rec.lastActions) > 0 {
			actions = rec.lastActions
		}
		targets = append(targets, models.LearningTarget{
			Topic:            gap.Topic,
			Priority:         i + 1,
			Reason:           "low confidence in " + models.Percent(gap.LowConfidenceRate) + " of queries on this topic",
			SuggestedActions: actions,
		})
	}
	return targets
}

// Size reports the tracked topic count, for health diagnostics.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.topics)
}

// Clear resets all counters. Used by tests and by periodic decay.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topics = make(map[string]*topicRecord)
	t.distribution = make(map[models.ConfidenceLevel]int)
	t.totalQueries = 0
}

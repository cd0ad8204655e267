// Package metacog implements the metacognitive monitor: an append-only
// trace of the reasoner's own decisions, kept in a store separate from the
// sessions so a failure mid-reasoning never loses the trace already
// written. The monitor also derives a process-wide cognitive load signal
// consumed by the safe healer.
package metacog

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Monitor owns the decision trace. All record methods are fire-and-forget
// from the caller's point of view: they take the monitor's own lock, never
// the reasoner's, and never return an error.
type Monitor struct {
	mu          sync.Mutex
	entries     map[string][]models.DecisionTraceEntry // keyed by session id
	total       int
	badOutcomes int // step evaluations judged bad, feeds error rate
	activeFn    func() int
	now         func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{
		entries: make(map[string][]models.DecisionTraceEntry),
		now:     time.Now,
	}
}

// SetActiveSessionsFn wires in the session store's active count for
// cognitive load reporting.
func (m *Monitor) SetActiveSessionsFn(fn func() int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeFn = fn
}

// ── Recording ───────────────────────────────────────────────

func (m *Monitor) RecordStrategyDecision(sessionID, reason string, detail map[string]interface{}) {
	m.record(sessionID, models.DecisionStrategySelection, reason, detail)
}

func (m *Monitor) RecordStepEvaluation(sessionID, reason string, detail map[string]interface{}) {
	m.record(sessionID, models.DecisionStepEvaluation, reason, detail)
	if q, ok := detail["quality"].(string); ok && q == string(models.StepBad) {
		m.mu.Lock()
		m.badOutcomes++
		m.mu.Unlock()
	}
}

func (m *Monitor) RecordBranchChoice(sessionID, reason string, detail map[string]interface{}) {
	m.record(sessionID, models.DecisionBranchChoice, reason, detail)
}

func (m *Monitor) RecordBacktrack(sessionID, reason string, detail map[string]interface{}) {
	m.record(sessionID, models.DecisionBacktrack, reason, detail)
}

func (m *Monitor) record(sessionID string, kind models.DecisionKind, reason string, detail map[string]interface{}) {
	entry := models.DecisionTraceEntry{
		SessionID: sessionID,
		Kind:      kind,
		Reason:    reason,
		Detail:    detail,
		At:        m.now(),
	}

	m.mu.Lock()
	m.entries[sessionID] = append(m.entries[sessionID], entry)
	m.total++
	m.mu.Unlock()
}

// ── Explanation ─────────────────────────────────────────────

// ExplainSession replays the trace of one session into a human-readable
// explanation. Unknown sessions are a not_found error.
func (m *Monitor) ExplainSession(sessionID string) (models.SessionExplanation, error) {
	m.mu.Lock()
	entries, ok := m.entries[sessionID]
	entries = append([]models.DecisionTraceEntry(nil), entries...)
	m.mu.Unlock()

	if !ok {
		return models.SessionExplanation{}, &models.ErrNotFound{Entity: "decision trace", Key: sessionID}
	}

	expl := models.SessionExplanation{SessionID: sessionID, TotalDecisions: len(entries)}
	for _, e := range entries {
		switch e.Kind {
		case models.DecisionStrategySelection:
			if s, ok := e.Detail["strategy"].(string); ok {
				expl.Strategy = s
			}
		case models.DecisionStepEvaluation:
			expl.StepEvaluations = append(expl.StepEvaluations, e)
		case models.DecisionBranchChoice:
			expl.BranchChoices = append(expl.BranchChoices, e)
		case models.DecisionBacktrack:
			expl.Backtracks = append(expl.Backtracks, e)
		}
	}

	expl.Summary = fmt.Sprintf("strategy %s, %d step evaluation(s), %d branch choice(s), %d backtrack(s)",
		expl.Strategy, len(expl.StepEvaluations), len(expl.BranchChoices), len(expl.Backtracks))
	return expl, nil
}

// ── Cognitive Load ──────────────────────────────────────────

// CognitiveLoad derives a process-wide health signal from trace volume
// and the recent bad-step ratio.
func (m *Monitor) CognitiveLoad() models.CognitiveLoad {
	m.mu.Lock()
	total := m.total
	bad := m.badOutcomes
	activeFn := m.activeFn
	m.mu.Unlock()

	active := 0
	if activeFn != nil {
		active = activeFn()
	}

	errorRate := 0.0
	if total > 0 {
		errorRate = float64(bad) / float64(total)
	}
	if errorRate > 1 {
		errorRate = 1
	}

	var level models.LoadLevel
	switch {
	case active > 100 || errorRate > 0.5:
		level = models.LoadCritical
	case active > 50 || errorRate > 0.3:
		level = models.LoadHigh
	case active > 10 || errorRate > 0.1:
		level = models.LoadNormal
	default:
		level = models.LoadLow
	}

	return models.CognitiveLoad{
		Level:          level,
		ActiveSessions: active,
		ErrorRate:      errorRate,
		TotalDecisions: total,
	}
}

// Snapshot assembles the read-only health view the healer evaluates
// conditions against.
func (m *Monitor) Snapshot(trackerSize int) models.HealthSnapshot {
	load := m.CognitiveLoad()
	m.mu.Lock()
	traceSize := m.total
	m.mu.Unlock()

	return models.HealthSnapshot{
		Load:           load.Level,
		ActiveSessions: load.ActiveSessions,
		TrackerSize:    trackerSize,
		TraceSize:      traceSize,
		ErrorRate:      load.ErrorRate,
		Goroutines:     runtime.NumGoroutine(),
	}
}

// Size reports the session count in the trace.
func (m *Monitor) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// TrimOldest drops whole-session traces beyond cap, oldest first, and
// returns how many were dropped. Called by the janitor.
func (m *Monitor) TrimOldest(capSessions int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if capSessions <= 0 || len(m.entries) <= capSessions {
		return 0
	}

	type aged struct {
		id string
		at time.Time
	}
	var sessions []aged
	for id, entries := range m.entries {
		last := time.Time{}
		if len(entries) > 0 {
			last = entries[len(entries)-1].At
		}
		sessions = append(sessions, aged{id: id, at: last})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].at.Before(sessions[j].at) })

	dropped := 0
	for _, s := range sessions {
		if len(m.entries) <= capSessions {
			break
		}
		entries := m.entries[s.id]
		m.total -= len(entries)
		m.badOutcomes -= countBadSteps(entries)
		delete(m.entries, s.id)
		dropped++
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("Trimmed decision traces")
	}
	return dropped
}

// countBadSteps counts the bad step evaluations in a session's trace, so
// trimming keeps the bad-step counter in step with the total.
func countBadSteps(entries []models.DecisionTraceEntry) int {
	n := 0
	for _, e := range entries {
		if e.Kind != models.DecisionStepEvaluation {
			continue
		}
		if q, ok := e.Detail["quality"].(string); ok && q == string(models.StepBad) {
			n++
		}
	}
	return n
}

// Clear wipes the whole trace. Exposed for the healer's cache-clearing
// action and for tests.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]models.DecisionTraceEntry)
	m.total = 0
	m.badOutcomes = 0
}

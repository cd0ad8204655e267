package reasoning

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// DecisionRecorder receives fire-and-forget records of why the reasoner
// did what it did. The reasoner never depends on these writes succeeding.
type DecisionRecorder interface {
	RecordStrategyDecision(sessionID, reason string, detail map[string]interface{})
	RecordStepEvaluation(sessionID, reason string, detail map[string]interface{})
	RecordBranchChoice(sessionID, reason string, detail map[string]interface{})
	RecordBacktrack(sessionID, reason string, detail map[string]interface{})
}

// Reasoner drives reasoning sessions through their strategy state machine.
type Reasoner struct {
	store   *Store
	monitor DecisionRecorder

	mu             sync.Mutex
	failedProblems map[string]int // problem fingerprint -> failure count
}

func NewReasoner(store *Store, monitor DecisionRecorder) *Reasoner {
	return &Reasoner{
		store:          store,
		monitor:        monitor,
		failedProblems: make(map[string]int),
	}
}

// ── Guided ──────────────────────────────────────────────────

// GuidedOpts carries the optional explicit strategy override.
type GuidedOpts struct {
	Strategy models.Strategy
}

// Guided opens a reasoning session: analyzes the problem, selects a
// strategy (unless one is given explicitly), and returns initial guidance
// plus a decomposition.
func (r *Reasoner) Guided(problem string, opts GuidedOpts) (models.GuidedResult, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return models.GuidedResult{}, &models.ErrValidation{Field: "problem", Reason: "must not be empty"}
	}

	analysis := analyzeProblem(problem)

	strategy := opts.Strategy
	reason := "explicitly requested by caller"
	if strategy == "" {
		strategy, reason = r.selectStrategy(problem, analysis)
	} else if !models.ValidStrategy(strategy) {
		return models.GuidedResult{}, &models.ErrValidation{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}

	now := time.Now().UTC()
	session := &models.ReasoningSession{
		ID:         uuid.NewString(),
		Strategy:   strategy,
		Status:     models.SessionActive,
		Problem:    problem,
		Confidence: 0.5,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if strategy == models.StrategyTreeOfThoughts {
		root := models.Branch{ID: uuid.NewString(), Depth: 0, Thought: "root", CreatedAt: now}
		session.Branches = []models.Branch{root}
		session.CurrentBranch = root.ID
	}

	if err := r.store.Create(session); err != nil {
		return models.GuidedResult{}, err
	}

	if r.monitor != nil {
		r.monitor.RecordStrategyDecision(session.ID, reason, map[string]interface{}{
			"strategy":   string(strategy),
			"complexity": analysis.Complexity,
		})
	}

	log.Info().
		Str("session_id", session.ID).
		Str("strategy", string(strategy)).
		Str("complexity", analysis.Complexity).
		Msg("🧭 Reasoning session opened")

	return models.GuidedResult{
		SessionID:       session.ID,
		Strategy:        strategy,
		StrategyReason:  reason,
		ProblemAnalysis: analysis,
		Confidence:      session.Confidence,
		Guidance:        guidanceFor(strategy),
		Decomposition:   Decompose(problem, strategy),
	}, nil
}

// ── Step ────────────────────────────────────────────────────

// Step appends one atomic thought to a session, evaluates its quality, and
// recomputes confidence and progress.
func (r *Reasoner) Step(sessionID, thought string) (models.StepResult, error) {
	thought = strings.TrimSpace(thought)
	if thought == "" {
		return models.StepResult{}, &models.ErrValidation{Field: "thought", Reason: "must not be empty"}
	}

	var result models.StepResult
	err := r.store.Update(sessionID, func(s *models.ReasoningSession) error {
		if s.Status != models.SessionActive {
			return &models.ErrIllegalState{Entity: "session " + sessionID, Reason: "session already completed"}
		}

		quality := evaluateStep(thought)
		step := models.Step{
			Number:    len(s.Steps) + 1,
			Thought:   thought,
			Quality:   quality,
			BranchID:  s.CurrentBranch,
			CreatedAt: time.Now().UTC(),
		}
		s.Steps = append(s.Steps, step)
		s.Confidence = recomputeConfidence(s.Steps)
		s.Progress = recomputeProgress(s.Steps)

		result = models.StepResult{
			SessionID:  sessionID,
			StepNumber: step.Number,
			Quality:    quality,
			Confidence: s.Confidence,
			Progress:   s.Progress,
		}
		return nil
	})
	if err != nil {
		return models.StepResult{}, err
	}

	if r.monitor != nil {
		r.monitor.RecordStepEvaluation(sessionID, "step judged "+string(result.Quality), map[string]interface{}{
			"step_number": result.StepNumber,
			"quality":     string(result.Quality),
		})
	}
	return result, nil
}

// ── Branch / Backtrack (ToT) ────────────────────────────────

// Branch opens a new Tree-of-Thoughts exploration path and makes it
// current. Sessions on any other strategy reject the call.
func (r *Reasoner) Branch(sessionID, thought string) (models.Branch, error) {
	var created models.Branch
	err := r.store.Update(sessionID, func(s *models.ReasoningSession) error {
		if s.Status != models.SessionActive {
			return &models.ErrIllegalState{Entity: "session " + sessionID, Reason: "session already completed"}
		}
		if s.Strategy != models.StrategyTreeOfThoughts {
			return &models.ErrIllegalState{
				Entity: "session " + sessionID,
				Reason: fmt.Sprintf("branching requires the Tree-of-Thoughts strategy, session uses %q", s.Strategy),
			}
		}

		parentDepth := 0
		for _, b := range s.Branches {
			if b.ID == s.CurrentBranch {
				parentDepth = b.Depth
				break
			}
		}
		created = models.Branch{
			ID:        uuid.NewString(),
			ParentID:  s.CurrentBranch,
			Depth:     parentDepth + 1,
			Thought:   thought,
			CreatedAt: time.Now().UTC(),
		}
		s.Branches = append(s.Branches, created)
		s.CurrentBranch = created.ID
		return nil
	})
	if err != nil {
		return models.Branch{}, err
	}

	if r.monitor != nil {
		r.monitor.RecordBranchChoice(sessionID, "opened new branch", map[string]interface{}{
			"branch_id": created.ID,
			"depth":     created.Depth,
		})
	}
	return created, nil
}

// BacktrackOpts optionally targets a specific branch.
type BacktrackOpts struct {
	BranchID string
}

// Backtrack marks the current branch explored and resumes on the target
// branch, or the newest unexplored one when no target is given. When
// nothing is left to explore it reports no_more_branches instead of
// erroring.
func (r *Reasoner) Backtrack(sessionID string, opts BacktrackOpts) (models.BacktrackResult, error) {
	var result models.BacktrackResult
	err := r.store.Update(sessionID, func(s *models.ReasoningSession) error {
		if s.Status != models.SessionActive {
			return &models.ErrIllegalState{Entity: "session " + sessionID, Reason: "session already completed"}
		}
		if s.Strategy != models.StrategyTreeOfThoughts {
			return &models.ErrIllegalState{
				Entity: "session " + sessionID,
				Reason: fmt.Sprintf("backtracking requires the Tree-of-Thoughts strategy, session uses %q", s.Strategy),
			}
		}

		for i := range s.Branches {
			if s.Branches[i].ID == s.CurrentBranch {
				s.Branches[i].Explored = true
			}
		}

		target := -1
		if opts.BranchID != "" {
			for i := range s.Branches {
				if s.Branches[i].ID == opts.BranchID {
					target = i
					break
				}
			}
			if target == -1 {
				return &models.ErrNotFound{Entity: "branch", Key: opts.BranchID}
			}
		} else {
			// newest unexplored branch
			for i := len(s.Branches) - 1; i >= 0; i-- {
				if !s.Branches[i].Explored {
					target = i
					break
				}
			}
		}

		if target == -1 {
			result = models.BacktrackResult{SessionID: sessionID, NoMoreBranches: true}
			return nil
		}

		s.CurrentBranch = s.Branches[target].ID
		result = models.BacktrackResult{
			SessionID: sessionID,
			BranchID:  s.Branches[target].ID,
			Depth:     s.Branches[target].Depth,
		}
		return nil
	})
	if err != nil {
		return models.BacktrackResult{}, err
	}

	if r.monitor != nil {
		reason := "resumed on branch " + result.BranchID
		if result.NoMoreBranches {
			reason = "no unexplored branches remain"
		}
		r.monitor.RecordBacktrack(sessionID, reason, map[string]interface{}{
			"no_more_branches": result.NoMoreBranches,
		})
	}
	return result, nil
}

// ── Reflect ─────────────────────────────────────────────────

// Reflect records a session outcome Reflexion-style: lessons from what
// held up, and on failure a critique of what went wrong. Failures also
// bias future strategy selection for similar problems toward reflexion.
func (r *Reasoner) Reflect(sessionID string, success bool) (models.Reflection, error) {
	session, err := r.store.Get(sessionID)
	if err != nil {
		return models.Reflection{}, err
	}

	reflection := models.Reflection{SessionID: sessionID, Success: success}
	for _, step := range session.Steps {
		if step.Quality == models.StepGood {
			reflection.LessonsLearned = append(reflection.LessonsLearned,
				fmt.Sprintf("step %d held up: %s", step.Number, truncate(step.Thought, 80)))
		}
	}
	if len(reflection.LessonsLearned) == 0 {
		reflection.LessonsLearned = []string{"no step in this chain was clearly sound; decompose further next time"}
	}

	if !success {
		critique := &models.Critique{}
		for _, step := range session.Steps {
			if step.Quality == models.StepBad || step.Quality == models.StepMaybe {
				critique.WhatWentWrong = append(critique.WhatWentWrong,
					fmt.Sprintf("step %d was %s: %s", step.Number, step.Quality, truncate(step.Thought, 80)))
			}
		}
		if len(critique.WhatWentWrong) == 0 {
			critique.WhatWentWrong = []string{"no individual step was flagged; the approach itself likely missed the goal"}
		}
		reflection.Critique = critique

		r.mu.Lock()
		r.failedProblems[problemFingerprint(session.Problem)]++
		r.mu.Unlock()
	}

	log.Info().
		Str("session_id", sessionID).
		Bool("success", success).
		Int("lessons", len(reflection.LessonsLearned)).
		Msg("Session reflection recorded")
	return reflection, nil
}

// ── Conclude ────────────────────────────────────────────────

// Conclude synthesizes a final answer from all recorded steps and moves
// the session to completed. It requires at least one step and rejects a
// second invocation.
func (r *Reasoner) Conclude(sessionID string) (models.ConcludeResult, error) {
	var result models.ConcludeResult
	err := r.store.Update(sessionID, func(s *models.ReasoningSession) error {
		if s.Status == models.SessionCompleted {
			return &models.ErrIllegalState{Entity: "session " + sessionID, Reason: "session already completed"}
		}
		if len(s.Steps) == 0 {
			return &models.ErrIllegalState{Entity: "session " + sessionID, Reason: "cannot conclude with zero recorded steps"}
		}

		answer := s.Steps[len(s.Steps)-1].Thought
		for i := len(s.Steps) - 1; i >= 0; i-- {
			if s.Steps[i].Quality == models.StepGood {
				answer = s.Steps[i].Thought
				break
			}
		}

		conclusion := models.Conclusion{
			Answer:     answer,
			Confidence: models.ToConfidenceLevel(s.Confidence),
			Summary: fmt.Sprintf("Concluded after %d step(s) using the %s strategy.",
				len(s.Steps), s.Strategy),
			ConcludedAt: time.Now().UTC(),
		}
		s.Conclusion = &conclusion
		s.Status = models.SessionCompleted

		result = models.ConcludeResult{
			SessionID:  sessionID,
			Conclusion: conclusion,
			TotalSteps: len(s.Steps),
		}
		return nil
	})
	if err != nil {
		return models.ConcludeResult{}, err
	}

	log.Info().
		Str("session_id", sessionID).
		Int("steps", result.TotalSteps).
		Str("confidence", string(result.Conclusion.Confidence)).
		Msg("✅ Reasoning session concluded")
	return result, nil
}

// Get exposes a copy of a session for callers outside this package.
func (r *Reasoner) Get(sessionID string) (models.ReasoningSession, error) {
	return r.store.Get(sessionID)
}

// ── Problem analysis & strategy selection ───────────────────

var toolWords = []string{
	"run", "execute", "fetch", "call", "query", "search", "install",
	"download", "compile", "deploy", "command", "api", "file",
}

var approachWords = []string{
	"or ", "alternatively", "either", "options", "approaches", "could also",
	"multiple ways", "trade-off", "tradeoff", "compare",
}

var retryWords = []string{
	"retry", "try again", "again", "failed before", "keep trying",
	"iterate", "didn't work", "previous attempt",
}

func analyzeProblem(problem string) models.ProblemAnalysis {
	lower := strings.ToLower(problem)
	words := len(strings.Fields(problem))

	analysis := models.ProblemAnalysis{WordCount: words}
	for _, w := range toolWords {
		if strings.Contains(lower, w) {
			analysis.ImpliesTools = true
			analysis.Signals = append(analysis.Signals, "tool:"+w)
			break
		}
	}
	for _, w := range approachWords {
		if strings.Contains(lower, w) {
			analysis.MultipleApproaches = true
			analysis.Signals = append(analysis.Signals, "approaches:"+strings.TrimSpace(w))
			break
		}
	}
	for _, w := range retryWords {
		if strings.Contains(lower, w) {
			analysis.RetryIntent = true
			analysis.Signals = append(analysis.Signals, "retry:"+w)
			break
		}
	}

	switch {
	case words > 60 || (words > 30 && analysis.MultipleApproaches):
		analysis.Complexity = "complex"
	case words > 15 || analysis.MultipleApproaches || analysis.ImpliesTools:
		analysis.Complexity = "moderate"
	default:
		analysis.Complexity = "simple"
	}
	return analysis
}

func (r *Reasoner) selectStrategy(problem string, analysis models.ProblemAnalysis) (models.Strategy, string) {
	r.mu.Lock()
	failures := r.failedProblems[problemFingerprint(problem)]
	r.mu.Unlock()

	switch {
	case failures > 0:
		return models.StrategyReflexion, "a similar problem failed before; retrying with self-critique"
	case analysis.RetryIntent:
		return models.StrategyReflexion, "problem implies iterative retry with feedback"
	case analysis.ImpliesTools:
		return models.StrategyReAct, "problem implies tool invocation; interleaving reasoning with actions"
	case analysis.Complexity == "complex" || analysis.MultipleApproaches:
		return models.StrategyTreeOfThoughts, "high complexity or multiple plausible approaches; exploring branches"
	default:
		return models.StrategyChainOfThought, "simple linear problem; a direct thought chain suffices"
	}
}

func guidanceFor(strategy models.Strategy) string {
	switch strategy {
	case models.StrategyTreeOfThoughts:
		return "Explore each candidate approach on its own branch; backtrack when one stalls."
	case models.StrategyReAct:
		return "Alternate a reasoning step with a tool action and fold each observation into the next step."
	case models.StrategyReflexion:
		return "Attempt a solution, then critique what went wrong before retrying."
	default:
		return "Work through the problem one explicit step at a time; conclude when the chain is complete."
	}
}

// Decompose breaks a problem into sub-problems, independent of any
// session. Tree-of-Thoughts additionally gets candidate approaches.
func Decompose(problem string, strategy models.Strategy) models.Decomposition {
	var d models.Decomposition

	parts := splitClauses(problem)
	if len(parts) > 1 {
		d.SubProblems = parts
	} else {
		d.SubProblems = []string{
			"Restate what is being asked: " + truncate(problem, 100),
			"Work through the core of the problem",
			"Validate the result against the original question",
		}
	}

	if strategy == models.StrategyTreeOfThoughts {
		d.Approaches = []string{
			"Solve directly from first principles",
			"Decompose into independent sub-problems and combine",
			"Work backwards from the desired result",
		}
	}
	return d
}

func splitClauses(problem string) []string {
	raw := strings.FieldsFunc(problem, func(r rune) bool {
		return r == '.' || r == ';' || r == '?' || r == '\n'
	})
	var parts []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if len(p) > 3 {
			parts = append(parts, p)
		}
	}
	return parts
}

// ── Step evaluation ─────────────────────────────────────────

var reasoningMarkers = []string{
	"because", "therefore", "so ", "then", "which means", "=", "thus",
	"implies", "follows",
}

var weakMarkers = []string{
	"maybe", "not sure", "guess", "probably", "might be", "somehow",
	"i think", "unsure",
}

func evaluateStep(thought string) models.StepQuality {
	lower := strings.ToLower(thought)

	weak := false
	for _, m := range weakMarkers {
		if strings.Contains(lower, m) {
			weak = true
			break
		}
	}
	reasoned := false
	for _, m := range reasoningMarkers {
		if strings.Contains(lower, m) {
			reasoned = true
			break
		}
	}

	switch {
	case weak:
		return models.StepBad
	case reasoned && len(strings.Fields(thought)) >= 4:
		return models.StepGood
	default:
		return models.StepMaybe
	}
}

func recomputeConfidence(steps []models.Step) float64 {
	conf := 0.5
	for _, s := range steps {
		switch s.Quality {
		case models.StepGood:
			conf += 0.08
		case models.StepBad:
			conf -= 0.12
		}
	}
	return models.Clamp01(conf)
}

func recomputeProgress(steps []models.Step) float64 {
	// heuristic horizon of five steps
	return models.Clamp01(float64(len(steps)) / 5.0)
}

func problemFingerprint(problem string) string {
	fields := strings.Fields(strings.ToLower(problem))
	if len(fields) > 5 {
		fields = fields[:5]
	}
	return strings.Join(fields, " ")
}

// truncate shortens s to at most n bytes, cutting on a rune boundary so
// multibyte text never ends mid-rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

package models

import "time"

// ── Reasoning Strategies ─────────────────────────────────────

// Strategy controls how a reasoning session unfolds.
type Strategy string

const (
	// StrategyChainOfThought is a linear thought chain, the default for
	// simple, single-track problems.
	StrategyChainOfThought Strategy = "cot"
	// StrategyTreeOfThoughts explores branches with backtracking when a
	// problem admits multiple plausible approaches.
	StrategyTreeOfThoughts Strategy = "tot"
	// StrategyReAct interleaves reasoning with tool invocation.
	StrategyReAct Strategy = "react"
	// StrategyReflexion retries with self-critique after each failed attempt.
	StrategyReflexion Strategy = "reflexion"
)

// SessionStatus is the lifecycle state of a reasoning session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// StepQuality is the deterministic evaluation of a recorded thought.
type StepQuality string

const (
	StepGood  StepQuality = "good"
	StepMaybe StepQuality = "maybe"
	StepBad   StepQuality = "bad"
)

// Step is a single atomic thought appended to a session. Numbers are 1-based
// and strictly increasing per session, never reused.
type Step struct {
	Number    int         `json:"number"`
	Thought   string      `json:"thought"`
	Quality   StepQuality `json:"quality"`
	BranchID  string      `json:"branch_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Branch is a Tree-of-Thoughts exploration path.
type Branch struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Depth     int       `json:"depth"`
	Explored  bool      `json:"explored"`
	Thought   string    `json:"thought,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Conclusion is the synthesized final answer of a completed session.
type Conclusion struct {
	Answer      string          `json:"answer"`
	Confidence  ConfidenceLevel `json:"confidence"`
	Summary     string          `json:"summary"`
	ConcludedAt time.Time       `json:"concluded_at"`
}

// ReasoningSession is owned exclusively by the session store; callers only
// ever address it by ID.
type ReasoningSession struct {
	ID            string        `json:"session_id"`
	Strategy      Strategy      `json:"strategy"`
	Status        SessionStatus `json:"status"`
	Problem       string        `json:"problem"`
	Steps         []Step        `json:"steps"`
	Branches      []Branch      `json:"branches,omitempty"` // tot only
	CurrentBranch string        `json:"current_branch,omitempty"`
	Confidence    float64       `json:"confidence"`
	Progress      float64       `json:"progress"`
	Conclusion    *Conclusion   `json:"conclusion,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TotalSteps returns the count of recorded steps.
func (s *ReasoningSession) TotalSteps() int { return len(s.Steps) }

// TotalBranches returns the count of branches (tot only; zero otherwise).
func (s *ReasoningSession) TotalBranches() int { return len(s.Branches) }

// ── Operation results ────────────────────────────────────────

// ProblemAnalysis captures the complexity heuristics behind a strategy choice.
type ProblemAnalysis struct {
	Complexity         string   `json:"complexity"` // simple | moderate | complex
	WordCount          int      `json:"word_count"`
	ImpliesTools       bool     `json:"implies_tools"`
	MultipleApproaches bool     `json:"multiple_approaches"`
	RetryIntent        bool     `json:"retry_intent"`
	Signals            []string `json:"signals,omitempty"`
}

// GuidedResult is returned when a guided reasoning session is opened.
type GuidedResult struct {
	SessionID       string          `json:"session_id"`
	Strategy        Strategy        `json:"strategy"`
	StrategyReason  string          `json:"strategy_reason"`
	ProblemAnalysis ProblemAnalysis `json:"problem_analysis"`
	Confidence      float64         `json:"confidence"`
	Guidance        string          `json:"guidance"`
	Decomposition   Decomposition   `json:"decomposition"`
}

// Decomposition is the standalone breakdown of a problem; for tot it also
// carries candidate approaches.
type Decomposition struct {
	SubProblems []string `json:"sub_problems"`
	Approaches  []string `json:"approaches,omitempty"`
}

// StepResult reports the session state after a thought is appended.
type StepResult struct {
	SessionID  string      `json:"session_id"`
	StepNumber int         `json:"step_number"`
	Quality    StepQuality `json:"quality"`
	Confidence float64     `json:"confidence"`
	Progress   float64     `json:"progress"`
}

// Completeness grades a verified reasoning chain.
type Completeness string

const (
	CompletenessComplete           Completeness = "complete"
	CompletenessPossiblyIncomplete Completeness = "possibly_incomplete"
	CompletenessIncomplete         Completeness = "incomplete"
)

// VerificationResult is the logical audit of a reasoning chain.
type VerificationResult struct {
	Valid             bool         `json:"valid"`
	Issues            []string     `json:"issues"`
	HallucinationRisk Risk         `json:"hallucination_risk"`
	Completeness      Completeness `json:"completeness"`
	Suggestions       []string     `json:"suggestions,omitempty"`
}

// Critique accompanies a failed reflection.
type Critique struct {
	WhatWentWrong []string `json:"what_went_wrong"`
}

// Reflection is the Reflexion-style retrospective on a session outcome.
type Reflection struct {
	SessionID      string    `json:"session_id"`
	Success        bool      `json:"success"`
	LessonsLearned []string  `json:"lessons_learned"`
	Critique       *Critique `json:"critique,omitempty"`
}

// BacktrackResult reports where a Tree-of-Thoughts session resumed.
type BacktrackResult struct {
	SessionID      string `json:"session_id"`
	BranchID       string `json:"branch_id,omitempty"`
	Depth          int    `json:"depth"`
	NoMoreBranches bool   `json:"no_more_branches"`
}

// ConcludeResult is the payload of a successful conclusion.
type ConcludeResult struct {
	SessionID  string     `json:"session_id"`
	Conclusion Conclusion `json:"conclusion"`
	TotalSteps int        `json:"total_steps"`
}

// ── Decision Trace ───────────────────────────────────────────

// DecisionKind tags an entry in the metacognitive trace.
type DecisionKind string

const (
	DecisionStrategySelection DecisionKind = "strategy_selection"
	DecisionStepEvaluation    DecisionKind = "step_evaluation"
	DecisionBranchChoice      DecisionKind = "branch_choice"
	DecisionBacktrack         DecisionKind = "backtrack"
)

// DecisionTraceEntry is one append-only record of why the reasoner did what
// it did. The trace is independent of the session store and survives
// reasoning failures.
type DecisionTraceEntry struct {
	SessionID string                 `json:"session_id"`
	Kind      DecisionKind           `json:"kind"`
	Reason    string                 `json:"reason"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
	At        time.Time              `json:"at"`
}

// SessionExplanation is the human-readable replay of a session's trace.
type SessionExplanation struct {
	SessionID       string               `json:"session_id"`
	Strategy        string               `json:"strategy"`
	StepEvaluations []DecisionTraceEntry `json:"step_evaluations"`
	BranchChoices   []DecisionTraceEntry `json:"branch_choices"`
	Backtracks      []DecisionTraceEntry `json:"backtracks"`
	Summary         string               `json:"summary"`
	TotalDecisions  int                  `json:"total_decisions"`
}

// LoadLevel grades process-wide cognitive load.
type LoadLevel string

const (
	LoadLow      LoadLevel = "low"
	LoadNormal   LoadLevel = "normal"
	LoadHigh     LoadLevel = "high"
	LoadCritical LoadLevel = "critical"
)

// CognitiveLoad is the monitor's health signal, consumed by the safe healer.
type CognitiveLoad struct {
	Level          LoadLevel `json:"level"`
	ActiveSessions int       `json:"active_sessions"`
	ErrorRate      float64   `json:"error_rate"`
	TotalDecisions int       `json:"total_decisions"`
}

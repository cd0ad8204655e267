package reasoning_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

func newTestReasoner(t *testing.T) *reasoning.Reasoner {
	t.Helper()
	return reasoning.NewReasoner(reasoning.NewStore(), nil)
}

// ─── Guided & strategy selection ─────────────────────────────

func TestGuided_EmptyProblemFails(t *testing.T) {
	r := newTestReasoner(t)
	if _, err := r.Guided("   ", reasoning.GuidedOpts{}); err == nil {
		t.Fatal("Guided(empty) error = nil, want validation error")
	}
}

func TestGuided_StrategySelection(t *testing.T) {
	tests := []struct {
		name    string
		problem string
		want    models.Strategy
	}{
		{"simple linear", "Calculate 15% tip on $80", models.StrategyChainOfThought},
		{"tool implied", "Fetch the user list from the api and count the admins", models.StrategyReAct},
		{"multiple approaches", "We could either cache the results upfront or compute them lazily; compare the approaches and decide which fits a read-heavy workload", models.StrategyTreeOfThoughts},
		{"retry intent", "The fix didn't work, try again with a different assumption", models.StrategyReflexion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReasoner(t)
			res, err := r.Guided(tt.problem, reasoning.GuidedOpts{})
			if err != nil {
				t.Fatalf("Guided() error = %v", err)
			}
			if res.Strategy != tt.want {
				t.Errorf("Guided(%q).Strategy = %q, want %q (reason: %s)", tt.problem, res.Strategy, tt.want, res.StrategyReason)
			}
			if res.StrategyReason == "" {
				t.Error("StrategyReason empty, want explanation")
			}
		})
	}
}

func TestGuided_ExplicitStrategyWins(t *testing.T) {
	r := newTestReasoner(t)
	res, err := r.Guided("Fetch the api data", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})
	if err != nil {
		t.Fatalf("Guided() error = %v", err)
	}
	if res.Strategy != models.StrategyChainOfThought {
		t.Errorf("Strategy = %q, want explicit cot", res.Strategy)
	}
}

func TestGuided_UnknownStrategyRejected(t *testing.T) {
	r := newTestReasoner(t)
	if _, err := r.Guided("anything", reasoning.GuidedOpts{Strategy: "galaxy-brain"}); err == nil {
		t.Fatal("Guided(unknown strategy) error = nil, want validation error")
	}
}

func TestDecompose_ToTIncludesApproaches(t *testing.T) {
	d := reasoning.Decompose("Design a cache. Decide eviction. Measure hit rate.", models.StrategyTreeOfThoughts)
	if len(d.SubProblems) < 2 {
		t.Errorf("SubProblems = %v, want the sentences split out", d.SubProblems)
	}
	if len(d.Approaches) == 0 {
		t.Error("Approaches empty for tot decomposition")
	}

	d = reasoning.Decompose("Just one thing", models.StrategyChainOfThought)
	if len(d.Approaches) != 0 {
		t.Errorf("Approaches = %v for cot, want none", d.Approaches)
	}
}

// ─── Step ────────────────────────────────────────────────────

func TestStep_NumbersStrictlyIncrease(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("Calculate 15% tip on $80", reasoning.GuidedOpts{})

	for i := 1; i <= 4; i++ {
		sr, err := r.Step(res.SessionID, "step thought number "+strings.Repeat("x", i))
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if sr.StepNumber != i {
			t.Errorf("StepNumber = %d, want %d", sr.StepNumber, i)
		}
	}
}

func TestStep_ConcurrentSessionsIndependent(t *testing.T) {
	r := newTestReasoner(t)
	a, _ := r.Guided("problem one", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})
	b, _ := r.Guided("problem two", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})

	var wg sync.WaitGroup
	for _, id := range []string{a.SessionID, b.SessionID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, err := r.Step(id, "interleaved thought"); err != nil {
					t.Errorf("Step(%s) error = %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{a.SessionID, b.SessionID} {
		sess, err := r.Get(id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if sess.TotalSteps() != 20 {
			t.Errorf("session %s has %d steps, want 20", id, sess.TotalSteps())
		}
		for i, step := range sess.Steps {
			if step.Number != i+1 {
				t.Errorf("step[%d].Number = %d, want %d", i, step.Number, i+1)
			}
		}
	}
}

func TestStep_UnknownSessionNotFound(t *testing.T) {
	r := newTestReasoner(t)
	_, err := r.Step("nope", "thought")
	var nf *models.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("Step(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStep_QualityEvaluation(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("Calculate the total", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})

	good, _ := r.Step(res.SessionID, "Ten percent of 80 is 8, therefore five percent is 4")
	if good.Quality != models.StepGood {
		t.Errorf("Quality = %q, want good for supported reasoning", good.Quality)
	}

	bad, _ := r.Step(res.SessionID, "maybe it is something around 12, not sure")
	if bad.Quality != models.StepBad {
		t.Errorf("Quality = %q, want bad for hedged guess", bad.Quality)
	}
}

// ─── Branch / Backtrack ──────────────────────────────────────

func TestBranch_RequiresToT(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("simple problem", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})

	_, err := r.Branch(res.SessionID, "alternative idea")
	if err == nil {
		t.Fatal("Branch() on cot session error = nil, want illegal state")
	}
	if !strings.Contains(err.Error(), "Tree-of-Thoughts") {
		t.Errorf("error = %q, want it to name Tree-of-Thoughts", err.Error())
	}
}

func TestBranch_IncrementsBranchCount(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("explore options", reasoning.GuidedOpts{Strategy: models.StrategyTreeOfThoughts})

	before, _ := r.Get(res.SessionID)
	if _, err := r.Branch(res.SessionID, "try the greedy approach"); err != nil {
		t.Fatalf("Branch() error = %v", err)
	}
	after, _ := r.Get(res.SessionID)
	if after.TotalBranches() != before.TotalBranches()+1 {
		t.Errorf("TotalBranches() = %d, want %d", after.TotalBranches(), before.TotalBranches()+1)
	}
	if after.CurrentBranch == before.CurrentBranch {
		t.Error("CurrentBranch unchanged after Branch()")
	}
}

func TestBacktrack_PicksNewestUnexplored(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("explore options", reasoning.GuidedOpts{Strategy: models.StrategyTreeOfThoughts})

	b1, _ := r.Branch(res.SessionID, "approach one")
	b2, _ := r.Branch(res.SessionID, "approach two")

	// current is b2; backtracking marks it explored and resumes on b1
	bt, err := r.Backtrack(res.SessionID, reasoning.BacktrackOpts{})
	if err != nil {
		t.Fatalf("Backtrack() error = %v", err)
	}
	if bt.NoMoreBranches {
		t.Fatal("NoMoreBranches = true with an unexplored branch left")
	}
	if bt.BranchID != b1.ID {
		t.Errorf("Backtrack resumed on %q, want newest unexplored %q", bt.BranchID, b1.ID)
	}
	_ = b2
}

func TestBacktrack_ReportsExhaustion(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("explore options", reasoning.GuidedOpts{Strategy: models.StrategyTreeOfThoughts})

	// exhaust: root is current; repeated backtracks mark everything explored
	for i := 0; i < 3; i++ {
		bt, err := r.Backtrack(res.SessionID, reasoning.BacktrackOpts{})
		if err != nil {
			t.Fatalf("Backtrack() error = %v", err)
		}
		if bt.NoMoreBranches {
			return
		}
	}
	t.Fatal("Backtrack() never reported no_more_branches after exhausting branches")
}

// ─── Verify ──────────────────────────────────────────────────

func TestVerifyChain_Empty(t *testing.T) {
	res := reasoning.VerifyChain(nil)
	if res.Valid {
		t.Error("Valid = true for empty chain")
	}
	if res.Completeness != models.CompletenessIncomplete {
		t.Errorf("Completeness = %q, want incomplete", res.Completeness)
	}
}

func TestVerifyChain_CleanChain(t *testing.T) {
	res := reasoning.VerifyChain([]string{
		"The bill is $80 and the tip rate is 15 percent",
		"15 percent of 80 equals 0.15 * 80, which means 12",
		"Therefore the tip is $12",
	})
	if !res.Valid {
		t.Errorf("Valid = false, issues = %v", res.Issues)
	}
	if res.HallucinationRisk != models.RiskLow {
		t.Errorf("HallucinationRisk = %q, want low", res.HallucinationRisk)
	}
	if res.Completeness != models.CompletenessComplete {
		t.Errorf("Completeness = %q, want complete", res.Completeness)
	}
}

func TestVerifyChain_FlagsRepetitionAndOverconfidence(t *testing.T) {
	res := reasoning.VerifyChain([]string{
		"Obviously the answer is 7",
		"Obviously the answer is 7",
	})
	if res.Valid {
		t.Error("Valid = true for a chain that repeats itself")
	}
	if res.HallucinationRisk == models.RiskLow {
		t.Errorf("HallucinationRisk = %q, want elevated", res.HallucinationRisk)
	}
}

// ─── Reflect ─────────────────────────────────────────────────

func TestReflect_FailureProducesCritique(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("figure out the flaky test", reasoning.GuidedOpts{Strategy: models.StrategyReflexion})
	r.Step(res.SessionID, "maybe the test is timing dependent, not sure")

	refl, err := r.Reflect(res.SessionID, false)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if refl.Success {
		t.Error("Success = true, want false")
	}
	if refl.Critique == nil || len(refl.Critique.WhatWentWrong) == 0 {
		t.Fatal("Critique empty on failed reflection")
	}
}

func TestReflect_LessonsStayValidUTF8(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("summarize the incident report", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})

	// A good step longer than the lesson excerpt, made of multibyte runes
	// right where the excerpt ends.
	thought := "therefore the summary holds because " + strings.Repeat("ま", 30)
	if _, err := r.Step(res.SessionID, thought); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	refl, err := r.Reflect(res.SessionID, true)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if len(refl.LessonsLearned) == 0 {
		t.Fatal("LessonsLearned empty, want the good step excerpted")
	}
	for _, lesson := range refl.LessonsLearned {
		if !utf8.ValidString(lesson) {
			t.Errorf("lesson %q is not valid UTF-8", lesson)
		}
	}
	if !strings.Contains(refl.LessonsLearned[0], "…") {
		t.Errorf("lesson %q not truncated, want an ellipsis", refl.LessonsLearned[0])
	}
}

func TestReflect_FailureBiasesFutureSelection(t *testing.T) {
	r := newTestReasoner(t)
	problem := "stabilize the flaky integration suite runs"
	res, _ := r.Guided(problem, reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})
	r.Step(res.SessionID, "a first attempt")
	r.Reflect(res.SessionID, false)

	retry, err := r.Guided(problem, reasoning.GuidedOpts{})
	if err != nil {
		t.Fatalf("Guided() error = %v", err)
	}
	if retry.Strategy != models.StrategyReflexion {
		t.Errorf("Strategy after prior failure = %q, want reflexion", retry.Strategy)
	}
}

// ─── Conclude ────────────────────────────────────────────────

func TestConclude_RequiresSteps(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("empty session", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})

	if _, err := r.Conclude(res.SessionID); err == nil {
		t.Fatal("Conclude() with zero steps error = nil, want illegal state")
	}
}

func TestConclude_SecondCallRejected(t *testing.T) {
	r := newTestReasoner(t)
	res, _ := r.Guided("one step problem", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})
	r.Step(res.SessionID, "the answer is 4 because 2+2=4")

	if _, err := r.Conclude(res.SessionID); err != nil {
		t.Fatalf("first Conclude() error = %v", err)
	}
	_, err := r.Conclude(res.SessionID)
	if err == nil {
		t.Fatal("second Conclude() error = nil, want illegal state")
	}
	if !strings.Contains(err.Error(), "already completed") {
		t.Errorf("error = %q, want mention of already completed", err.Error())
	}
}

// ─── End to end ──────────────────────────────────────────────

func TestGuidedSessionEndToEnd(t *testing.T) {
	r := newTestReasoner(t)

	res, err := r.Guided("Calculate 15% tip on $80", reasoning.GuidedOpts{Strategy: models.StrategyChainOfThought})
	if err != nil {
		t.Fatalf("Guided() error = %v", err)
	}

	steps := []string{
		"The bill is $80 and the tip rate is 15 percent",
		"15% of 80 = 0.15 * 80 = 12",
		"Therefore the tip is $12",
	}
	for _, s := range steps {
		if _, err := r.Step(res.SessionID, s); err != nil {
			t.Fatalf("Step(%q) error = %v", s, err)
		}
	}

	verification, err := r.Verify(res.SessionID)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !verification.Valid {
		t.Errorf("Verify().Valid = false, issues = %v", verification.Issues)
	}

	conclusion, err := r.Conclude(res.SessionID)
	if err != nil {
		t.Fatalf("Conclude() error = %v", err)
	}
	if conclusion.TotalSteps != 3 {
		t.Errorf("TotalSteps = %d, want 3", conclusion.TotalSteps)
	}

	session, _ := r.Get(res.SessionID)
	if session.Status != models.SessionCompleted {
		t.Errorf("Status = %q, want completed", session.Status)
	}
	if session.Conclusion == nil || session.Conclusion.Answer == "" {
		t.Fatal("Conclusion missing after Conclude()")
	}
}

// Package healing implements risk-gated self-repair. The catalog is
// static and fully inspectable: every entry carries a compiled expr
// condition evaluated read-only against a health snapshot, a risk grade,
// and a cooldown. AutoHeal only ever executes low-risk actions whose
// condition holds; medium and high risk always require an explicit Heal
// call by an operator or policy.
package healing

import (
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

const defaultCooldown = 5 * time.Minute

// Action is one catalog entry. Run must be idempotent; Condition must be
// side-effect free.
type Action struct {
	ID          string
	Name        string
	Description string
	Risk        models.Risk
	Condition   string
	Cooldown    time.Duration
	Run         func() (string, error)
}

type compiledAction struct {
	Action
	program *vm.Program
	lastRun time.Time
}

// Healer owns the catalog and its cooldown clocks.
type Healer struct {
	mu         sync.Mutex
	actions    []*compiledAction
	snapshotFn func() models.HealthSnapshot
	now        func() time.Time
}

// New compiles the action catalog. An action with an invalid condition is
// rejected outright rather than silently disabled.
func New(snapshotFn func() models.HealthSnapshot, actions []Action) (*Healer, error) {
	h := &Healer{snapshotFn: snapshotFn, now: time.Now}
	for _, a := range actions {
		if !models.ValidRisk(a.Risk) {
			return nil, &models.ErrValidation{Field: "risk", Reason: fmt.Sprintf("action %s has unknown risk %q", a.ID, a.Risk)}
		}
		program, err := expr.Compile(a.Condition, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("compile condition for action %s: %w", a.ID, err)
		}
		if a.Cooldown <= 0 {
			a.Cooldown = defaultCooldown
		}
		h.actions = append(h.actions, &compiledAction{Action: a, program: program})
	}
	return h, nil
}

// Catalog lists every action with its risk, condition source, and
// cooldown. The runnable itself is not exposed.
func (h *Healer) Catalog() []models.ActionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.ActionInfo, 0, len(h.actions))
	for _, a := range h.actions {
		out = append(out, models.ActionInfo{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Risk:        a.Risk,
			Condition:   a.Condition,
			Cooldown:    a.Cooldown,
		})
	}
	return out
}

// Diagnose evaluates every condition read-only against the current health
// snapshot and scores overall health. It never runs an action.
func (h *Healer) Diagnose() models.Diagnosis {
	snap := h.snapshotFn()
	env := snapshotEnv(snap)

	h.mu.Lock()
	defer h.mu.Unlock()

	diagnosis := models.Diagnosis{HealthScore: 1.0, Issues: []string{}, Recommendations: []string{}}
	for _, a := range h.actions {
		holds, err := h.evaluate(a, env)
		if err != nil {
			diagnosis.Issues = append(diagnosis.Issues, fmt.Sprintf("condition for %s failed to evaluate: %v", a.ID, err))
			continue
		}
		if holds {
			diagnosis.Issues = append(diagnosis.Issues, a.Description)
			diagnosis.Recommendations = append(diagnosis.Recommendations, fmt.Sprintf("%s (%s risk)", a.ID, a.Risk))
			diagnosis.HealthScore -= riskWeight(a.Risk)
		}
	}
	if snap.Load == models.LoadCritical {
		diagnosis.HealthScore -= 0.2
	}
	diagnosis.HealthScore = models.Clamp01(diagnosis.HealthScore)
	return diagnosis
}

// Heal runs one action by id, regardless of risk; the risk gating of
// AutoHeal does not apply to an explicit operator call. Cooldowns do.
func (h *Healer) Heal(id string) (models.HealResult, error) {
	h.mu.Lock()
	var target *compiledAction
	for _, a := range h.actions {
		if a.ID == id {
			target = a
			break
		}
	}
	if target == nil {
		h.mu.Unlock()
		return models.HealResult{}, &models.ErrNotFound{Entity: "healing action", Key: id}
	}

	now := h.now()
	if remaining := target.Cooldown - now.Sub(target.lastRun); !target.lastRun.IsZero() && remaining > 0 {
		h.mu.Unlock()
		return models.HealResult{}, &models.ErrOnCooldown{ActionID: id, Remaining: remaining}
	}
	target.lastRun = now
	h.mu.Unlock()

	return h.run(target)
}

// AutoHeal sweeps the catalog and executes only low-risk actions whose
// condition currently holds. Everything it refuses to run is reported,
// never silently dropped.
func (h *Healer) AutoHeal() models.AutoHealReport {
	snap := h.snapshotFn()
	env := snapshotEnv(snap)

	report := models.AutoHealReport{
		Executed:          []models.HealResult{},
		SkippedMediumRisk: []string{},
		SkippedHighRisk:   []string{},
		SkippedCooldown:   []string{},
		Errors:            []string{},
	}

	h.mu.Lock()
	var runnable []*compiledAction
	now := h.now()
	for _, a := range h.actions {
		holds, err := h.evaluate(a, env)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", a.ID, err))
			continue
		}
		if !holds {
			continue
		}
		switch a.Risk {
		case models.RiskMedium:
			report.SkippedMediumRisk = append(report.SkippedMediumRisk, a.ID)
			continue
		case models.RiskHigh:
			report.SkippedHighRisk = append(report.SkippedHighRisk, a.ID)
			continue
		}
		if !a.lastRun.IsZero() && now.Sub(a.lastRun) < a.Cooldown {
			report.SkippedCooldown = append(report.SkippedCooldown, a.ID)
			continue
		}
		a.lastRun = now
		runnable = append(runnable, a)
	}
	h.mu.Unlock()

	for _, a := range runnable {
		result, err := h.run(a)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", a.ID, err))
			continue
		}
		report.Executed = append(report.Executed, result)
	}

	if len(report.Executed) > 0 || len(report.Errors) > 0 {
		log.Info().
			Int("executed", len(report.Executed)).
			Int("skipped_medium", len(report.SkippedMediumRisk)).
			Int("skipped_high", len(report.SkippedHighRisk)).
			Int("errors", len(report.Errors)).
			Msg("🩹 Auto-heal sweep finished")
	}
	return report
}

func (h *Healer) run(a *compiledAction) (models.HealResult, error) {
	start := h.now()
	detail, err := a.Run()
	if err != nil {
		log.Warn().Err(err).Str("action", a.ID).Msg("Healing action failed")
		return models.HealResult{}, fmt.Errorf("action %s: %w", a.ID, err)
	}

	result := models.HealResult{
		ActionID: a.ID,
		Applied:  true,
		Detail:   detail,
		Took:     h.now().Sub(start),
	}
	log.Info().Str("action", a.ID).Str("detail", detail).Msg("Healing action applied")
	return result, nil
}

func (h *Healer) evaluate(a *compiledAction, env map[string]interface{}) (bool, error) {
	out, err := expr.Run(a.program, env)
	if err != nil {
		return false, err
	}
	holds, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to bool")
	}
	return holds, nil
}

func snapshotEnv(snap models.HealthSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"load":            string(snap.Load),
		"active_sessions": snap.ActiveSessions,
		"tracker_size":    snap.TrackerSize,
		"trace_size":      snap.TraceSize,
		"error_rate":      snap.ErrorRate,
		"goroutines":      snap.Goroutines,
	}
}

func riskWeight(r models.Risk) float64 {
	switch r {
	case models.RiskHigh:
		return 0.3
	case models.RiskMedium:
		return 0.2
	default:
		return 0.1
	}
}

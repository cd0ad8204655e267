package learning

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// ResearchFn performs one low-cost research pass over a topic and reports
// the resulting uncertainty. It may fail transiently (evidence
// collaborators are network-backed); the executor retries with backoff.
type ResearchFn func(ctx context.Context, topic string) (models.Uncertainty, error)

// Executor drives research against pending objectives.
type Executor struct {
	objectives *Objectives
	research   ResearchFn
	maxRetries uint64
	batchSize  int
}

func NewExecutor(objectives *Objectives, research ResearchFn) *Executor {
	return &Executor{
		objectives: objectives,
		research:   research,
		maxRetries: 3,
		batchSize:  3,
	}
}

// RunOnce refreshes the objective set and researches the top pending
// objectives. It is called by the janitor on a fixed interval and is safe
// to call concurrently with objective reads.
func (e *Executor) RunOnce(ctx context.Context) ExecutionStats {
	e.objectives.Refresh()
	pending := e.objectives.Pending(e.batchSize)

	stats := ExecutionStats{Considered: len(pending)}
	for _, obj := range pending {
		if ctx.Err() != nil {
			break
		}

		u, err := e.researchWithRetry(ctx, obj.Topic)
		if err != nil {
			stats.Failed++
			log.Warn().Err(err).Str("topic", obj.Topic).Msg("Research attempt exhausted retries")
			continue
		}

		if recErr := e.objectives.RecordAttempt(obj.ID, u.Score); recErr != nil {
			stats.Failed++
			continue
		}
		stats.Researched++
		if u.Score >= satisfiedConfidence {
			stats.Satisfied++
			log.Info().
				Str("topic", obj.Topic).
				Float64("score", u.Score).
				Msg("🎓 Learning objective satisfied")
		}
	}
	return stats
}

func (e *Executor) researchWithRetry(ctx context.Context, topic string) (models.Uncertainty, error) {
	var result models.Uncertainty

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialBackOff(), e.maxRetries), ctx)

	err := backoff.Retry(func() error {
		u, err := e.research(ctx, topic)
		if err != nil {
			return err
		}
		result = u
		return nil
	}, policy)
	return result, err
}

func newExponentialBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

// ExecutionStats summarizes one executor pass.
type ExecutionStats struct {
	Considered int
	Researched int
	Satisfied  int
	Failed     int
}

package janitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mimo-os/mimo/reasoning-core/internal/boundary"
	"github.com/mimo-os/mimo/reasoning-core/internal/janitor"
	"github.com/mimo-os/mimo/reasoning-core/internal/metacog"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

func staleSession(t *testing.T, store *reasoning.Store, age time.Duration) string {
	t.Helper()
	id := uuid.NewString()
	err := store.Create(&models.ReasoningSession{
		ID:        id,
		Problem:   "stale problem",
		Strategy:  models.StrategyChainOfThought,
		Status:    models.SessionActive,
		CreatedAt: time.Now().UTC().Add(-age),
		UpdatedAt: time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return id
}

func TestRunCycleSweepsAllStores(t *testing.T) {
	store := reasoning.NewStore()
	staleSession(t, store, 2*time.Hour)
	keep := staleSession(t, store, 0)

	monitor := metacog.NewMonitor()
	monitor.RecordStrategyDecision("s1", "first", nil)
	monitor.RecordStrategyDecision("s2", "second", nil)

	model := prediction.NewModel()
	model.Predict("bash", "execute")

	bnd := boundary.New()
	bnd.Record(boundary.Context{Tool: "bash", Operation: "execute", Query: "compile the kernel"}, "timeout")
	time.Sleep(10 * time.Millisecond)

	j := janitor.New(janitor.Config{
		Interval:      time.Minute,
		SessionTTL:    time.Hour,
		TraceCap:      1,
		PredictionTTL: time.Millisecond,
		BoundaryTTL:   time.Millisecond,
	}, store, monitor, model, bnd, nil, nil)

	stats := j.RunCycle(context.Background())

	if stats.SessionsEvicted != 1 {
		t.Errorf("SessionsEvicted = %d, want 1", stats.SessionsEvicted)
	}
	if _, err := store.Get(keep); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
	if stats.TracesTrimmed != 1 {
		t.Errorf("TracesTrimmed = %d, want 1", stats.TracesTrimmed)
	}
	if stats.PredictionsDropped != 1 {
		t.Errorf("PredictionsDropped = %d, want 1", stats.PredictionsDropped)
	}
	if model.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after sweep, want 0", model.PendingCount())
	}
	if stats.BoundariesForgot != 1 {
		t.Errorf("BoundariesForgot = %d, want 1", stats.BoundariesForgot)
	}
}

func TestStartRunsImmediateCycleAndStops(t *testing.T) {
	store := reasoning.NewStore()
	staleSession(t, store, 2*time.Hour)

	j := janitor.New(janitor.Config{
		Interval:   time.Hour,
		SessionTTL: time.Hour,
	}, store, metacog.NewMonitor(), prediction.NewModel(), boundary.New(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stale session not evicted by immediate cycle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestNewClampsConfig(t *testing.T) {
	j := janitor.New(janitor.Config{}, reasoning.NewStore(), metacog.NewMonitor(),
		prediction.NewModel(), boundary.New(), nil, nil)

	// A zero config must still produce a usable janitor.
	stats := j.RunCycle(context.Background())
	if stats != (janitor.CycleStats{}) {
		t.Errorf("RunCycle() on empty stores = %+v, want zero stats", stats)
	}
}

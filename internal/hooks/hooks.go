// Package hooks dispatches fire-and-forget telemetry events (memory
// stored, tool executed, insight generated) through a bounded worker
// pool. A burst can never spawn unbounded goroutines: the queue is a
// fixed buffered channel and a full queue drops the event with a log
// line. A panic inside a sink is recovered and logged, never propagated
// to the emitting hot path.
package hooks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// EventKind tags a telemetry event.
type EventKind string

const (
	EventMemoryStored     EventKind = "memory_stored"
	EventToolExecuted     EventKind = "tool_executed"
	EventInsightGenerated EventKind = "insight_generated"
)

// Event is one telemetry record.
type Event struct {
	Kind   EventKind
	Fields map[string]interface{}
	At     time.Time
}

// Sink consumes events. Implementations may be slow or may panic; the
// pool contains both.
type Sink interface {
	Consume(Event)
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Consume(e Event) { f(e) }

// Pool is the bounded dispatcher.
type Pool struct {
	queue   chan Event
	sinks   []Sink
	workers int
	dropped atomic.Int64
	wg      sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewPool sizes the dispatcher. Zero values fall back to 4 workers and a
// queue of 256.
func NewPool(workers, queueSize int, sinks ...Sink) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		queue:   make(chan Event, queueSize),
		sinks:   sinks,
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Safe to call once; subsequent calls are
// no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
		log.Info().Int("workers", p.workers).Int("queue", cap(p.queue)).Msg("Hook pool started")
	})
}

// Emit enqueues an event without ever blocking the caller. A full queue
// drops the event and counts it.
func (p *Pool) Emit(kind EventKind, fields map[string]interface{}) {
	event := Event{Kind: kind, Fields: fields, At: time.Now().UTC()}
	select {
	case p.queue <- event:
	default:
		n := p.dropped.Add(1)
		log.Warn().Str("kind", string(kind)).Int64("total_dropped", n).Msg("Hook queue full, event dropped")
	}
}

// Dropped reports how many events were discarded on a full queue.
func (p *Pool) Dropped() int64 { return p.dropped.Load() }

// Stop drains nothing further: workers exit after the queue empties.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.queue:
			p.dispatch(event)
		case <-ctx.Done():
			return
		case <-p.done:
			// drain what is already queued, then exit
			for {
				select {
				case event := <-p.queue:
					p.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) dispatch(event Event) {
	for _, sink := range p.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("kind", string(event.Kind)).Msg("💥 Hook sink panicked")
				}
			}()
			sink.Consume(event)
		}()
	}
}

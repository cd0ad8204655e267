// Package boundary remembers what the system has failed at before. Each
// failure is fingerprinted by tool, operation, and the salient terms of
// the query; repeated identical failures strengthen the boundary while
// stale ones decay. A single observed failure never produces a hard "no",
// only "uncertain", so one bad day cannot permanently ban a capability.
package boundary

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// strongMatchHits is the repeat count at which an identical failure
// becomes a hard "no".
const strongMatchHits = 2

// decayHalfLife controls how fast boundary confidence fades with age.
const decayHalfLife = 7 * 24 * time.Hour

// Context describes an operation about to be attempted.
type Context struct {
	Tool      string
	Operation string
	Query     string
}

// Boundary is the learned set of capability limits.
type Boundary struct {
	mu      sync.Mutex
	records map[string]*models.BoundaryRecord
	now     func() time.Time
}

func New() *Boundary {
	return &Boundary{
		records: make(map[string]*models.BoundaryRecord),
		now:     time.Now,
	}
}

// Record stores one observed failure. An identical context strengthens
// the existing record instead of adding a new one.
func (b *Boundary) Record(ctx Context, reason string) models.BoundaryRecord {
	fp := Fingerprint(ctx)
	now := b.now().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.records[fp]
	if rec == nil {
		rec = &models.BoundaryRecord{
			Fingerprint: fp,
			Tool:        ctx.Tool,
			Operation:   ctx.Operation,
			Reason:      reason,
			FirstSeen:   now,
		}
		b.records[fp] = rec
	}
	rec.Hits++
	rec.LastSeen = now
	if reason != "" {
		rec.Reason = reason
	}

	log.Info().
		Str("fingerprint", fp).
		Int("hits", rec.Hits).
		Msg("Capability boundary recorded")
	return *rec
}

// CanHandle answers "can I handle this?" against the learned boundaries.
// No match is ok; a weak or partial match is uncertain; only a repeated
// identical failure, still fresh enough, is a no.
func (b *Boundary) CanHandle(ctx Context) models.BoundaryCheck {
	fp := Fingerprint(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.records[fp]; ok {
		strength := b.strength(rec)
		if rec.Hits >= strongMatchHits && strength > 0.5 {
			return models.BoundaryCheck{
				Verdict:    models.VerdictNo,
				Confidence: strength,
				Reason:     rec.Reason,
				Matches:    []models.BoundaryRecord{*rec},
			}
		}
		return models.BoundaryCheck{
			Verdict:    models.VerdictUncertain,
			Confidence: strength,
			Reason:     rec.Reason,
			Matches:    []models.BoundaryRecord{*rec},
		}
	}

	// partial match: same tool and operation, different query terms
	var partial []models.BoundaryRecord
	for _, rec := range b.records {
		if rec.Tool == ctx.Tool && rec.Operation == ctx.Operation {
			partial = append(partial, *rec)
		}
	}
	if len(partial) > 0 {
		return models.BoundaryCheck{
			Verdict:    models.VerdictUncertain,
			Confidence: 0.4,
			Reason:     "previous failures on the same tool and operation",
			Matches:    partial,
		}
	}

	return models.BoundaryCheck{Verdict: models.VerdictOK, Confidence: 0.9}
}

// strength combines hit count with staleness decay.
func (b *Boundary) strength(rec *models.BoundaryRecord) float64 {
	base := models.Clamp01(0.4 + 0.2*float64(rec.Hits))
	age := b.now().UTC().Sub(rec.LastSeen)
	if age <= 0 {
		return base
	}
	decay := float64(age) / float64(decayHalfLife)
	return models.Clamp01(base * (1 / (1 + decay)))
}

// List returns all records, most recently seen first.
func (b *Boundary) List() []models.BoundaryRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.BoundaryRecord, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

// Forget drops records unseen for longer than ttl. Called by the janitor.
func (b *Boundary) Forget(ttl time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().UTC().Add(-ttl)
	dropped := 0
	for fp, rec := range b.records {
		if rec.LastSeen.Before(cutoff) {
			delete(b.records, fp)
			dropped++
		}
	}
	return dropped
}

// ── Fingerprinting ──────────────────────────────────────────

var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"to": true, "of": true, "in": true, "on": true, "for": true,
	"with": true, "my": true, "this": true, "that": true, "is": true,
	"it": true, "please": true, "can": true, "you": true, "i": true,
}

// Fingerprint normalizes a context into a stable key: tool, operation,
// and up to four salient query terms, sorted.
func Fingerprint(ctx Context) string {
	var salient []string
	for _, w := range strings.Fields(strings.ToLower(ctx.Query)) {
		w = strings.Trim(w, ".,!?\"'()")
		if len(w) < 3 || fillerWords[w] {
			continue
		}
		salient = append(salient, w)
		if len(salient) == 4 {
			break
		}
	}
	sort.Strings(salient)

	parts := []string{strings.ToLower(ctx.Tool), strings.ToLower(ctx.Operation)}
	parts = append(parts, salient...)
	return strings.Join(parts, "|")
}

// Package evidence is the seam between the reasoning core and its external
// knowledge collaborators (memory search, code symbol index, knowledge
// graph, library docs). Each collaborator implements Source; the Gatherer
// fans a query out to every enabled source under a per-source timeout and
// treats errors or timeouts as zero evidence from that source, never as a
// failure of the whole gather.
package evidence

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// SearchOpts bounds a single source lookup.
type SearchOpts struct {
	Limit int
}

// Source is one external knowledge collaborator.
type Source interface {
	Kind() models.EvidenceKind
	Search(ctx context.Context, query string, opts SearchOpts) ([]models.EvidenceSource, error)
}

// GatherOpts selects which sources participate in a gather.
type GatherOpts struct {
	IncludeCode  bool
	IncludeGraph bool
	MemoryLimit  int
}

// GatherResult is the merged evidence plus the sources that could not be
// reached. Unavailable markers let callers degrade confidence instead of
// failing.
type GatherResult struct {
	Sources     []models.EvidenceSource
	Unavailable []models.EvidenceKind
}

// ── Gatherer ────────────────────────────────────────────────

const defaultSourceTimeout = 3 * time.Second

// Gatherer fans queries out to registered sources.
type Gatherer struct {
	sources []Source
	timeout time.Duration
}

// NewGatherer builds a Gatherer over the given sources. A zero timeout
// falls back to the default per-source budget.
func NewGatherer(sources []Source, timeout time.Duration) *Gatherer {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Gatherer{sources: sources, timeout: timeout}
}

// Gather queries every enabled source concurrently. Each source gets its
// own timeout; a slow or failing source contributes an unavailable marker
// and nothing else.
func (g *Gatherer) Gather(ctx context.Context, query string, opts GatherOpts) GatherResult {
	enabled := g.enabledSources(opts)
	if len(enabled) == 0 {
		return GatherResult{}
	}

	type sourceReply struct {
		kind    models.EvidenceKind
		results []models.EvidenceSource
		err     error
	}

	replies := make(chan sourceReply, len(enabled))
	var wg sync.WaitGroup
	for _, src := range enabled {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()

			limit := opts.MemoryLimit
			if src.Kind() != models.EvidenceMemory || limit <= 0 {
				limit = 10
			}
			results, err := src.Search(sctx, query, SearchOpts{Limit: limit})
			replies <- sourceReply{kind: src.Kind(), results: results, err: err}
		}(src)
	}
	wg.Wait()
	close(replies)

	var out GatherResult
	for reply := range replies {
		if reply.err != nil {
			log.Debug().
				Err(reply.err).
				Str("source", string(reply.kind)).
				Str("query", query).
				Msg("Evidence source unavailable")
			out.Unavailable = append(out.Unavailable, reply.kind)
			continue
		}
		out.Sources = append(out.Sources, reply.results...)
	}
	return out
}

func (g *Gatherer) enabledSources(opts GatherOpts) []Source {
	var enabled []Source
	for _, src := range g.sources {
		switch src.Kind() {
		case models.EvidenceCode:
			if !opts.IncludeCode {
				continue
			}
		case models.EvidenceGraph:
			if !opts.IncludeGraph {
				continue
			}
		}
		enabled = append(enabled, src)
	}
	return enabled
}

// ── Static Source ───────────────────────────────────────────

// StaticSource serves a fixed in-memory corpus, matched by keyword overlap.
// It backs local development and tests where no real collaborator exists.
type StaticSource struct {
	kind    models.EvidenceKind
	entries []StaticEntry
}

// StaticEntry is one corpus item.
type StaticEntry struct {
	ID       string
	Name     string
	Keywords []string
}

func NewStaticSource(kind models.EvidenceKind, entries []StaticEntry) *StaticSource {
	return &StaticSource{kind: kind, entries: entries}
}

func (s *StaticSource) Kind() models.EvidenceKind { return s.kind }

// Search scores each entry by the fraction of its keywords present in the
// query and returns those above zero, capped at opts.Limit.
func (s *StaticSource) Search(ctx context.Context, query string, opts SearchOpts) ([]models.EvidenceSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	var results []models.EvidenceSource
	for _, e := range s.entries {
		if len(e.Keywords) == 0 {
			continue
		}
		hits := 0
		for _, kw := range e.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		results = append(results, models.EvidenceSource{
			Kind:      s.kind,
			ID:        e.ID,
			Name:      e.Name,
			Relevance: float64(hits) / float64(len(e.Keywords)),
		})
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}
	return results, nil
}

// ── Func Source ─────────────────────────────────────────────

// FuncSource adapts a plain function into a Source. Useful for wiring a
// real collaborator client without a dedicated type.
type FuncSource struct {
	SourceKind models.EvidenceKind
	Fn         func(ctx context.Context, query string, opts SearchOpts) ([]models.EvidenceSource, error)
}

func (f *FuncSource) Kind() models.EvidenceKind { return f.SourceKind }

func (f *FuncSource) Search(ctx context.Context, query string, opts SearchOpts) ([]models.EvidenceSource, error) {
	return f.Fn(ctx, query, opts)
}

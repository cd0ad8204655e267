package handlers

import (
	"net/http"

	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

type assessRequest struct {
	IncludeCode  bool    `json:"include_code"`
	IncludeGraph bool    `json:"include_graph"`
	MemoryLimit  int     `json:"memory_limit,omitempty"`
	Staleness    float64 `json:"staleness,omitempty"`
}

func (req assessRequest) opts() epistemic.AssessOpts {
	return epistemic.AssessOpts{
		IncludeCode:  req.IncludeCode,
		IncludeGraph: req.IncludeGraph,
		MemoryLimit:  req.MemoryLimit,
		Staleness:    req.Staleness,
	}
}

// Query runs the full epistemic chain on a question.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		assessRequest
		Query string `json:"query"`
		Draft string `json:"draft,omitempty"`
		Track *bool  `json:"track,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, &models.ErrValidation{Field: "query", Reason: "must not be empty"})
		return
	}

	track := true
	if req.Track != nil {
		track = *req.Track
	}
	result := h.Brain.Query(r.Context(), req.Query, epistemic.QueryOpts{
		AssessOpts: req.opts(),
		Draft:      req.Draft,
		Track:      track,
	})
	respond(w, http.StatusOK, result)
}

// Assess scores confidence on a topic without the rest of the chain. A
// request naming several topics gets one merged assessment back.
func (h *Handlers) Assess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		assessRequest
		Topic  string   `json:"topic,omitempty"`
		Topics []string `json:"topics,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Topic == "" && len(req.Topics) == 0 {
		writeError(w, &models.ErrValidation{Field: "topic", Reason: "must not be empty"})
		return
	}

	if len(req.Topics) > 0 {
		respond(w, http.StatusOK, h.Assessor.AssessAll(r.Context(), req.Topics, req.opts()))
		return
	}
	respond(w, http.StatusOK, h.Assessor.Assess(r.Context(), req.Topic, req.opts()))
}

// TrackerStats reports aggregate uncertainty statistics.
func (h *Handlers) TrackerStats(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Tracker.Stats())
}

// KnowledgeGaps lists topics the core is persistently weak on.
func (h *Handlers) KnowledgeGaps(w http.ResponseWriter, r *http.Request) {
	gaps := h.Tracker.KnowledgeGaps(epistemic.GapOpts{})
	respond(w, http.StatusOK, map[string]interface{}{
		"gaps":  gaps,
		"total": len(gaps),
	})
}

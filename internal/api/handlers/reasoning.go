package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Guided opens a reasoning session.
func (h *Handlers) Guided(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Problem  string `json:"problem"`
		Strategy string `json:"strategy,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Reasoner.Guided(req.Problem, reasoning.GuidedOpts{
		Strategy: models.Strategy(req.Strategy),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, result)
}

// Step appends a thought to a session.
func (h *Handlers) Step(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Thought   string `json:"thought"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Reasoner.Step(req.SessionID, req.Thought)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

// Verify checks a reasoning chain, either a stored session's or an ad-hoc
// list of thoughts.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string   `json:"session_id,omitempty"`
		Thoughts  []string `json:"thoughts,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}

	if req.SessionID != "" {
		result, err := h.Reasoner.Verify(req.SessionID)
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusOK, result)
		return
	}
	respond(w, http.StatusOK, reasoning.VerifyChain(req.Thoughts))
}

// Reflect reviews a session after the fact.
func (h *Handlers) Reflect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Success   bool   `json:"success"`
	}
	if !decode(w, r, &req) {
		return
	}

	reflection, err := h.Reasoner.Reflect(req.SessionID, req.Success)
	if err != nil {
		writeError(w, err)
		return
	}
	h.emit("insight_generated", map[string]interface{}{
		"session_id": req.SessionID,
		"success":    req.Success,
		"lessons":    len(reflection.LessonsLearned),
	})
	respond(w, http.StatusOK, reflection)
}

// Branch forks a Tree-of-Thoughts session.
func (h *Handlers) Branch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Thought   string `json:"thought"`
	}
	if !decode(w, r, &req) {
		return
	}

	branch, err := h.Reasoner.Branch(req.SessionID, req.Thought)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, branch)
}

// Backtrack abandons the current branch and resumes on another.
func (h *Handlers) Backtrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		BranchID  string `json:"branch_id,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Reasoner.Backtrack(req.SessionID, reasoning.BacktrackOpts{BranchID: req.BranchID})
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

// Conclude finishes a session.
func (h *Handlers) Conclude(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Reasoner.Conclude(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.emit("insight_generated", map[string]interface{}{
		"session_id":  req.SessionID,
		"total_steps": result.TotalSteps,
	})
	respond(w, http.StatusOK, result)
}

// GetSession returns a session snapshot.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Reasoner.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, session)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Diagnose runs a read-only health check.
func (h *Handlers) Diagnose(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Healer.Diagnose())
}

// HealActions lists the healing catalog.
func (h *Handlers) HealActions(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"actions": h.Healer.Catalog(),
	})
}

// Heal runs one healing action by id, regardless of its risk tier.
func (h *Handlers) Heal(w http.ResponseWriter, r *http.Request) {
	result, err := h.Healer.Heal(chi.URLParam(r, "actionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

// AutoHeal runs every low-risk action whose condition currently holds.
func (h *Handlers) AutoHeal(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Healer.AutoHeal())
}

// ExplainSession returns the decision trace for a session.
func (h *Handlers) ExplainSession(w http.ResponseWriter, r *http.Request) {
	explanation, err := h.Monitor.ExplainSession(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, explanation)
}

// CognitiveLoad reports current process-wide load.
func (h *Handlers) CognitiveLoad(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Monitor.CognitiveLoad())
}

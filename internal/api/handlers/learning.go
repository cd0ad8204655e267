package handlers

import (
	"net/http"
	"time"
)

// LearningObjectives refreshes objectives from current knowledge gaps and
// calibration state, then lists them all.
func (h *Handlers) LearningObjectives(w http.ResponseWriter, r *http.Request) {
	h.Objectives.Refresh()
	objectives := h.Objectives.List()
	respond(w, http.StatusOK, map[string]interface{}{
		"objectives": objectives,
		"total":      len(objectives),
	})
}

// LearningProgress summarizes the last week of learning activity.
func (h *Handlers) LearningProgress(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Objectives.Progress(7*24*time.Hour))
}

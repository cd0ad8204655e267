package handlers

import (
	"net/http"

	"github.com/mimo-os/mimo/reasoning-core/internal/outcome"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// DetectTerminal classifies a terminal command outcome.
func (h *Handlers) DetectTerminal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExitCode int    `json:"exit_code"`
		Output   string `json:"output"`
	}
	if !decode(w, r, &req) {
		return
	}

	detection := outcome.DetectTerminal(req.ExitCode, req.Output)
	h.emit("tool_executed", map[string]interface{}{
		"signal":  string(detection.Signal),
		"outcome": string(detection.Outcome),
	})
	respond(w, http.StatusOK, detection)
}

// DetectCompile classifies compiler output.
func (h *Handlers) DetectCompile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Output string `json:"output"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, outcome.DetectCompile(req.Output))
}

// DetectFeedback classifies free-form user feedback.
func (h *Handlers) DetectFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, outcome.DetectUserFeedback(req.Text))
}

// AggregateOutcomes folds multiple detections into one verdict.
func (h *Handlers) AggregateOutcomes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Detections []models.Detection `json:"detections"`
	}
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, outcome.Aggregate(req.Detections))
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mimo-os/mimo/reasoning-core/internal/boundary"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Predict issues an outcome prediction for a tool operation.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool      string `json:"tool"`
		Operation string `json:"operation"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Tool == "" {
		writeError(w, &models.ErrValidation{Field: "tool", Reason: "must not be empty"})
		return
	}

	respond(w, http.StatusCreated, h.Model.Predict(req.Tool, req.Operation))
}

// Calibrate scores a pending prediction against the observed outcome.
func (h *Handlers) Calibrate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DurationMs int64 `json:"duration_ms"`
		Success    bool  `json:"success"`
		Steps      int   `json:"steps"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Model.Calibrate(chi.URLParam(r, "predictionId"), models.Observation{
		Duration: time.Duration(req.DurationMs) * time.Millisecond,
		Success:  req.Success,
		Steps:    req.Steps,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.emit("tool_executed", map[string]interface{}{
		"prediction_id": result.PredictionID,
		"success":       req.Success,
	})
	respond(w, http.StatusOK, result)
}

// CalibrationReport summarizes prediction accuracy over time.
func (h *Handlers) CalibrationReport(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Model.CalibrationScore())
}

// BoundaryCheck asks whether a task is within known capabilities.
func (h *Handlers) BoundaryCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool      string `json:"tool"`
		Operation string `json:"operation"`
		Query     string `json:"query"`
	}
	if !decode(w, r, &req) {
		return
	}

	check := h.Boundary.CanHandle(boundary.Context{
		Tool:      req.Tool,
		Operation: req.Operation,
		Query:     req.Query,
	})
	respond(w, http.StatusOK, check)
}

// BoundaryRecord registers a capability failure.
func (h *Handlers) BoundaryRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool      string `json:"tool"`
		Operation string `json:"operation"`
		Query     string `json:"query"`
		Reason    string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Tool == "" {
		writeError(w, &models.ErrValidation{Field: "tool", Reason: "must not be empty"})
		return
	}

	rec := h.Boundary.Record(boundary.Context{
		Tool:      req.Tool,
		Operation: req.Operation,
		Query:     req.Query,
	}, req.Reason)
	respond(w, http.StatusCreated, rec)
}

// BoundaryList returns known capability boundaries, newest first.
func (h *Handlers) BoundaryList(w http.ResponseWriter, r *http.Request) {
	records := h.Boundary.List()
	respond(w, http.StatusOK, map[string]interface{}{
		"boundaries": records,
		"total":      len(records),
	})
}

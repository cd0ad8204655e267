// Package handlers implements the HTTP handlers for the reasoning core
// API. Handlers are thin: decode, call the owning subsystem, encode. All
// domain errors map onto the shared error taxonomy in writeError.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mimo-os/mimo/reasoning-core/internal/boundary"
	"github.com/mimo-os/mimo/reasoning-core/internal/epistemic"
	"github.com/mimo-os/mimo/reasoning-core/internal/healing"
	"github.com/mimo-os/mimo/reasoning-core/internal/hooks"
	"github.com/mimo-os/mimo/reasoning-core/internal/learning"
	"github.com/mimo-os/mimo/reasoning-core/internal/metacog"
	"github.com/mimo-os/mimo/reasoning-core/internal/prediction"
	"github.com/mimo-os/mimo/reasoning-core/internal/reasoning"
	"github.com/mimo-os/mimo/reasoning-core/pkg/models"
)

// Handlers holds every subsystem the API fronts.
type Handlers struct {
	Reasoner   *reasoning.Reasoner
	Brain      *epistemic.Brain
	Assessor   *epistemic.Assessor
	Tracker    *epistemic.Tracker
	Monitor    *metacog.Monitor
	Model      *prediction.Model
	Boundary   *boundary.Boundary
	Healer     *healing.Healer
	Objectives *learning.Objectives
	Hooks      *hooks.Pool
}

func New(reasoner *reasoning.Reasoner, brain *epistemic.Brain, assessor *epistemic.Assessor,
	tracker *epistemic.Tracker, monitor *metacog.Monitor, model *prediction.Model,
	bnd *boundary.Boundary, healer *healing.Healer, objectives *learning.Objectives,
	pool *hooks.Pool) *Handlers {

	return &Handlers{
		Reasoner:   reasoner,
		Brain:      brain,
		Assessor:   assessor,
		Tracker:    tracker,
		Monitor:    monitor,
		Model:      model,
		Boundary:   bnd,
		Healer:     healer,
		Objectives: objectives,
		Hooks:      pool,
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
			"code":  "validation",
		})
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP statuses: validation 400,
// not-found 404, illegal-state 409, cooldown 429.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *models.ErrValidation
		notFound   *models.ErrNotFound
		illegal    *models.ErrIllegalState
		cooldown   *models.ErrOnCooldown
	)
	switch {
	case errors.As(err, &validation):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "code": "validation"})
	case errors.As(err, &notFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error(), "code": "not_found"})
	case errors.As(err, &illegal):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error(), "code": "illegal_state"})
	case errors.As(err, &cooldown):
		respond(w, http.StatusTooManyRequests, map[string]string{"error": err.Error(), "code": "cooldown"})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error(), "code": "internal"})
	}
}

func (h *Handlers) emit(kind hooks.EventKind, fields map[string]interface{}) {
	if h.Hooks != nil {
		h.Hooks.Emit(kind, fields)
	}
}

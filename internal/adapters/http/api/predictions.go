// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/miyabi-lab/encore/internal/domain/prediction"
)

// PredictionDependencies defines the interface for listing-score operations.
type PredictionDependencies interface {
	PredictSuccess(ctx context.Context, in prediction.Input) (prediction.Result, error)
}

// PredictionsHandler handles success prediction requests.
type PredictionsHandler struct {
	deps PredictionDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// predictionRequest mirrors the OpenAPI schema for POST /predictions/success.
type predictionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	StartAt     string `json:"start_at"`
	IsFree      bool   `json:"is_free"`
}

func (p predictionRequest) validate() error {
	if p.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	if p.StartAt != "" {
		if _, err := time.Parse(time.RFC3339, p.StartAt); err != nil {
			return errors.New("invalid start_at; must be RFC3339")
		}
	}
	return nil
}

// HandleSuccess handles POST /predictions/success requests.
func (h *PredictionsHandler) HandleSuccess(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_success"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var startAt time.Time
	if req.StartAt != "" {
		startAt, _ = time.Parse(time.RFC3339, req.StartAt)
	}
	result, err := h.deps.PredictSuccess(r.Context(), prediction.Input{
		Title:       req.Title,
		Description: req.Description,
		Capacity:    req.Capacity,
		StartAt:     startAt,
		IsFree:      req.IsFree,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

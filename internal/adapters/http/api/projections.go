// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/miyabi-lab/encore/internal/domain/types"
)

// ProjectionDependencies defines the interface for forecast operations.
type ProjectionDependencies interface {
	ProjectFinancials(ctx context.Context, q types.FinancialQuery) (types.FinancialProjection, error)
}

// ProjectionsHandler handles standalone forecast requests.
type ProjectionsHandler struct {
	deps ProjectionDependencies
}

// NewProjectionsHandler creates a new projections handler.
func NewProjectionsHandler(deps ProjectionDependencies) *ProjectionsHandler {
	return &ProjectionsHandler{deps: deps}
}

// financialRequest mirrors the OpenAPI schema for POST /projections/financial.
type financialRequest struct {
	OrganizerID        string  `json:"organizer_id"`
	Capacity           int     `json:"capacity"`
	TicketPrice        float64 `json:"ticket_price"`
	VenueCost          float64 `json:"venue_cost"`
	MarketingCost      float64 `json:"marketing_cost"`
	OtherCosts         float64 `json:"other_costs"`
	IsFree             bool    `json:"is_free"`
	ExpectedAttendance *int    `json:"expected_attendance"`
}

func (f financialRequest) validate() error {
	switch {
	case f.Capacity < 1:
		return errors.New("capacity must be at least 1")
	case f.TicketPrice < 0:
		return errors.New("ticket_price must not be negative")
	case f.ExpectedAttendance != nil && *f.ExpectedAttendance < 0:
		return errors.New("expected_attendance must not be negative")
	case f.ExpectedAttendance == nil && strings.TrimSpace(f.OrganizerID) == "":
		return errors.New("organizer_id required when expected_attendance is omitted")
	}
	return nil
}

// HandleFinancial handles POST /projections/financial requests.
func (h *ProjectionsHandler) HandleFinancial(w http.ResponseWriter, r *http.Request) {
	const op = "api.project_financial"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req financialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	forecast, err := h.deps.ProjectFinancials(r.Context(), types.FinancialQuery{
		OrganizerID:        req.OrganizerID,
		Capacity:           req.Capacity,
		TicketPrice:        req.TicketPrice,
		VenueCost:          req.VenueCost,
		MarketingCost:      req.MarketingCost,
		OtherCosts:         req.OtherCosts,
		IsFree:             req.IsFree,
		ExpectedAttendance: req.ExpectedAttendance,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

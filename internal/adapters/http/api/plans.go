// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/miyabi-lab/encore/internal/domain/types"
)

// PlanDependencies defines the interface for plan lookup operations.
type PlanDependencies interface {
	PlanInfo(ctx context.Context, rawTier string) (types.PlanInfo, error)
}

// PlansHandler handles subscription plan requests.
type PlansHandler struct {
	deps PlanDependencies
}

// NewPlansHandler creates a new plans handler.
func NewPlansHandler(deps PlanDependencies) *PlansHandler {
	return &PlansHandler{deps: deps}
}

// HandleGetPlan handles GET /plans/{tier} requests. Unknown tiers resolve to
// the free plan rather than erroring, matching creation-time behavior.
func (h *PlansHandler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_plan"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tier := strings.TrimPrefix(r.URL.Path, "/plans/")
	if tier == "" || strings.Contains(tier, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	info, err := h.deps.PlanInfo(r.Context(), tier)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

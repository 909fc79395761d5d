// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/miyabi-lab/encore/internal/adapters/repository"
	service "github.com/miyabi-lab/encore/internal/app"
	"github.com/miyabi-lab/encore/internal/domain/plan"
	"github.com/miyabi-lab/encore/internal/domain/types"
)

// EventDependencies defines the interface for event lifecycle operations.
type EventDependencies interface {
	// ClaimOnce and Release guard event completion against double submits.
	ClaimOnce(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)

	CreateEvent(ctx context.Context, draft types.EventDraft) (types.EventCreation, error)
	CompleteEvent(ctx context.Context, eventID, organizerID string, actualAttendance int) (types.EventCompletion, error)
}

// EventsHandler handles event lifecycle requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// createEventRequest mirrors the OpenAPI schema for POST /events.
type createEventRequest struct {
	OrganizerID   string  `json:"organizer_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Capacity      int     `json:"capacity"`
	TicketPrice   float64 `json:"ticket_price"`
	IsFree        bool    `json:"is_free"`
	StartAt       string  `json:"start_at"`
	EndAt         string  `json:"end_at"`
	VenueCost     float64 `json:"venue_cost"`
	MarketingCost float64 `json:"marketing_cost"`
	OtherCosts    float64 `json:"other_costs"`
}

func (e createEventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.OrganizerID) == "":
		return errors.New("missing organizer_id")
	case strings.TrimSpace(e.Title) == "":
		return errors.New("missing title")
	case e.Capacity < 1:
		return errors.New("capacity must be at least 1")
	case e.TicketPrice < 0:
		return errors.New("ticket_price must not be negative")
	case strings.TrimSpace(e.StartAt) == "":
		return errors.New("missing start_at")
	}
	if _, err := time.Parse(time.RFC3339, e.StartAt); err != nil {
		return errors.New("invalid start_at; must be RFC3339")
	}
	if e.EndAt != "" {
		if _, err := time.Parse(time.RFC3339, e.EndAt); err != nil {
			return errors.New("invalid end_at; must be RFC3339")
		}
	}
	return nil
}

func (e createEventRequest) draft() types.EventDraft {
	startAt, _ := time.Parse(time.RFC3339, e.StartAt)
	var endAt time.Time
	if e.EndAt != "" {
		endAt, _ = time.Parse(time.RFC3339, e.EndAt)
	}
	return types.EventDraft{
		OrganizerID:   e.OrganizerID,
		Title:         e.Title,
		Description:   e.Description,
		Capacity:      e.Capacity,
		TicketPrice:   e.TicketPrice,
		IsFree:        e.IsFree,
		StartAt:       startAt,
		EndAt:         endAt,
		VenueCost:     e.VenueCost,
		MarketingCost: e.MarketingCost,
		OtherCosts:    e.OtherCosts,
	}
}

// HandleCreateEvent handles POST /events requests.
func (h *EventsHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	created, err := h.deps.CreateEvent(r.Context(), req.draft())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// completeEventRequest mirrors the OpenAPI schema for POST /events/{id}/complete.
type completeEventRequest struct {
	OrganizerID      string `json:"organizer_id"`
	ActualAttendance int    `json:"actual_attendance"`
}

// HandleCompleteEvent handles POST /events/{id}/complete requests.
func (h *EventsHandler) HandleCompleteEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	eventID, action, ok := strings.Cut(rest, "/")
	if !ok || action != "complete" || eventID == "" {
		http.NotFound(w, r)
		return
	}
	var req completeEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.OrganizerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	// Idempotency claim - first submit wins, concurrent retries get 409.
	guardKey := "complete:" + eventID
	if !h.deps.ClaimOnce(r.Context(), guardKey) {
		writeError(w, http.StatusConflict, "already_completed",
			WrapKind(op, repository.ErrEventAlreadyCompleted, errors.New(eventID)))
		return
	}

	completed, err := h.deps.CompleteEvent(r.Context(), eventID, req.OrganizerID, req.ActualAttendance)
	if err != nil {
		// A permanently-completed event keeps its claim; anything else must
		// release it so the organizer can retry.
		if !errors.Is(err, repository.ErrEventAlreadyCompleted) {
			h.deps.Release(r.Context(), guardKey)
		}
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, completed)
}

// writeServiceError translates service-layer errors into HTTP responses.
// Shared by every handler that calls into Dependencies.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var denied *plan.DeniedError
	switch {
	case errors.As(err, &denied):
		writeError(w, http.StatusForbidden, string(denied.Reason), Wrap(op, err))
	case errors.Is(err, service.ErrNotOrganizer):
		writeError(w, http.StatusForbidden, "forbidden", WrapKind(op, ErrForbidden, err))
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrEventAlreadyCompleted):
		writeError(w, http.StatusConflict, "already_completed", Wrap(op, err))
	case errors.Is(err, service.ErrInvalidAttendance):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

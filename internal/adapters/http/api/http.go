// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/miyabi-lab/encore/internal/domain/once"
	"github.com/miyabi-lab/encore/internal/domain/prediction"
	"github.com/miyabi-lab/encore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	once.Guard

	// CreateEvent gates the draft against the organizer's plan, stores the
	// event, and returns projections plus the creation EXP grant.
	CreateEvent(ctx context.Context, draft types.EventDraft) (types.EventCreation, error)

	// CompleteEvent closes out an event and awards success EXP.
	CompleteEvent(ctx context.Context, eventID, organizerID string, actualAttendance int) (types.EventCompletion, error)

	// ProjectFinancials computes a standalone financial forecast.
	ProjectFinancials(ctx context.Context, q types.FinancialQuery) (types.FinancialProjection, error)

	// PredictSuccess scores a prospective listing.
	PredictSuccess(ctx context.Context, in prediction.Input) (prediction.Result, error)

	// PlanInfo describes a subscription tier's limits.
	PlanInfo(ctx context.Context, rawTier string) (types.PlanInfo, error)

	// RegisterUser upserts the user slice the engine tracks.
	RegisterUser(ctx context.Context, reg types.UserRegistration) (types.UserExp, error)

	// UserExp returns a user's EXP state and recent award history.
	UserExp(ctx context.Context, userID string) (types.UserExp, error)

	// Leaderboard returns up to limit creators ordered by total EXP.
	Leaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	projectionsHandler *ProjectionsHandler
	predictionsHandler *PredictionsHandler
	plansHandler       *PlansHandler
	usersHandler       *UsersHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		projectionsHandler: NewProjectionsHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		plansHandler:       NewPlansHandler(deps),
		usersHandler:       NewUsersHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleCreateEvent, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleCompleteEvent, "events_complete"))
	mux.HandleFunc("/projections/financial", MetricsMiddleware(s.projectionsHandler.HandleFinancial, "projections_financial"))
	mux.HandleFunc("/predictions/success", MetricsMiddleware(s.predictionsHandler.HandleSuccess, "predictions_success"))
	mux.HandleFunc("/plans/", MetricsMiddleware(s.plansHandler.HandleGetPlan, "plans"))
	mux.HandleFunc("/users", MetricsMiddleware(s.usersHandler.HandleRegisterUser, "users"))
	mux.HandleFunc("/users/", MetricsMiddleware(s.usersHandler.HandleGetExp, "users_exp"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

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

// UserDependencies defines the interface for user operations.
type UserDependencies interface {
	RegisterUser(ctx context.Context, reg types.UserRegistration) (types.UserExp, error)
	UserExp(ctx context.Context, userID string) (types.UserExp, error)
}

// UsersHandler handles user gamification requests.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// registerUserRequest mirrors the OpenAPI schema for POST /users.
type registerUserRequest struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	FanCount     int    `json:"fan_count"`
	Subscription string `json:"subscription"`
}

func (u registerUserRequest) validate() error {
	switch {
	case strings.TrimSpace(u.DisplayName) == "":
		return errors.New("missing display_name")
	case u.FanCount < 0:
		return errors.New("fan_count must not be negative")
	}
	return nil
}

// HandleRegisterUser handles POST /users requests.
func (h *UsersHandler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_user"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	user, err := h.deps.RegisterUser(r.Context(), types.UserRegistration{
		ID:           req.ID,
		DisplayName:  req.DisplayName,
		FanCount:     req.FanCount,
		Subscription: req.Subscription,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleGetExp handles GET /users/{id}/exp requests.
func (h *UsersHandler) HandleGetExp(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_user_exp"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	userID, resource, ok := strings.Cut(rest, "/")
	if !ok || resource != "exp" || userID == "" {
		http.NotFound(w, r)
		return
	}
	state, err := h.deps.UserExp(r.Context(), userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

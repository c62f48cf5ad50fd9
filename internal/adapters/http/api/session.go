package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/kpibonus/internal/domain/session"
)

// SessionDependencies defines the interface for the screen state.
type SessionDependencies interface {
	Session() session.State
	Transition(ctx context.Context, action, arg string) (session.State, error)
}

// SessionHandler handles session requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type sessionActionRequest struct {
	Value string `json:"value"`
}

// HandleGet handles GET /session.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Session())
}

// HandleAction handles POST /session/{action}. The body is optional and
// carries the value the action needs.
func (h *SessionHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_action"
	var req sessionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeServiceError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := h.deps.Transition(r.Context(), r.PathValue("action"), req.Value)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

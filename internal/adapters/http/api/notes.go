package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/kpibonus/internal/adapters/notes"
)

// NoteDependencies defines the interface for KPI notes.
type NoteDependencies interface {
	Note(ctx context.Context, key notes.Key) (string, error)
	SetNote(ctx context.Context, key notes.Key, text string) error
}

// NotesHandler handles note requests.
type NotesHandler struct {
	deps NoteDependencies
}

// NewNotesHandler creates a new notes handler.
func NewNotesHandler(deps NoteDependencies) *NotesHandler {
	return &NotesHandler{deps: deps}
}

type noteBody struct {
	Employee string `json:"employee"`
	Period   string `json:"period"`
	KPI      string `json:"kpi"`
	Note     string `json:"note"`
}

func noteKey(r *http.Request) notes.Key {
	return notes.Key{
		Employee: r.PathValue("employee"),
		Period:   r.PathValue("period"),
		KPI:      r.PathValue("kpi"),
	}
}

// HandleGet handles GET /notes/{employee}/{period}/{kpi}.
func (h *NotesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_note"
	key := noteKey(r)
	text, err := h.deps.Note(r.Context(), key)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, noteBody{Employee: key.Employee, Period: key.Period, KPI: key.KPI, Note: text})
}

// HandlePut handles PUT /notes/{employee}/{period}/{kpi}. An empty note
// deletes it.
func (h *NotesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_note"
	var req noteBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	key := noteKey(r)
	if err := h.deps.SetNote(r.Context(), key, req.Note); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, noteBody{Employee: key.Employee, Period: key.Period, KPI: key.KPI, Note: req.Note})
}

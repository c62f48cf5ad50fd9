package api

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	service "github.com/okian/kpibonus/internal/app"
	"github.com/okian/kpibonus/internal/domain/aggregate"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/projection"
)

// TeamDependencies defines the interface for team reads and KPI edits.
type TeamDependencies interface {
	Periods() []string
	Teams(ctx context.Context) ([]service.TeamInfo, error)
	Overview(ctx context.Context, period string) ([]aggregate.Summary, error)
	Summary(ctx context.Context, team, period string) (aggregate.Summary, error)
	Reports(ctx context.Context, team, period, status string) ([]projection.Row, error)
	Export(ctx context.Context, team, period, status string) (service.Export, error)
	TeamKPIs(ctx context.Context, team string) (service.KPISet, error)
	UpdateKPIs(ctx context.Context, team string, kpis []model.KPI, bonusPool float64) (service.KPISet, error)
}

// TeamsHandler handles team-scoped requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type reportsResponse struct {
	Team   string           `json:"team"`
	Period string           `json:"period"`
	Status string           `json:"status"`
	Rows   []projection.Row `json:"rows"`
}

// kpiUpdateRequest mirrors the OpenAPI schema for PUT /teams/{team}/kpis.
type kpiUpdateRequest struct {
	BonusPool *float64    `json:"bonus_pool"`
	KPIs      []model.KPI `json:"kpis"`
}

// HandlePeriods handles GET /periods.
func (h *TeamsHandler) HandlePeriods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"periods": h.deps.Periods()})
}

// HandleList handles GET /teams.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.teams"
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// HandleOverview handles GET /overview?period=.
func (h *TeamsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	const op = "api.overview"
	all, err := h.deps.Overview(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": all})
}

// HandleSummary handles GET /teams/{team}/summary?period=.
func (h *TeamsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_summary"
	sum, err := h.deps.Summary(r.Context(), r.PathValue("team"), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleReports handles GET /teams/{team}/reports?period=&status=.
func (h *TeamsHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_reports"
	q := r.URL.Query()
	team := r.PathValue("team")
	rows, err := h.deps.Reports(r.Context(), team, q.Get("period"), q.Get("status"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, reportsResponse{
		Team:   team,
		Period: q.Get("period"),
		Status: q.Get("status"),
		Rows:   rows,
	})
}

// HandleExport handles GET /teams/{team}/export?period=&status= and
// returns the report as a CSV attachment.
func (h *TeamsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_export"
	q := r.URL.Query()
	exp, err := h.deps.Export(r.Context(), r.PathValue("team"), q.Get("period"), q.Get("status"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

// HandleGetKPIs handles GET /teams/{team}/kpis.
func (h *TeamsHandler) HandleGetKPIs(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_kpis"
	set, err := h.deps.TeamKPIs(r.Context(), r.PathValue("team"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// HandlePutKPIs handles PUT /teams/{team}/kpis. The bonus pool is kept
// when the request omits it.
func (h *TeamsHandler) HandlePutKPIs(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_team_kpis"
	team := r.PathValue("team")

	var req kpiUpdateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeServiceError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	for i := range req.KPIs {
		if req.KPIs[i].Direction != "" {
			req.KPIs[i].Direction = model.ParseDirection(string(req.KPIs[i].Direction))
		}
	}

	pool := 0.0
	if req.BonusPool != nil {
		pool = *req.BonusPool
	} else {
		current, err := h.deps.TeamKPIs(r.Context(), team)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		pool = current.BonusPool
	}

	set, err := h.deps.UpdateKPIs(r.Context(), team, req.KPIs, pool)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies is everything the handlers need from the service.
type Dependencies interface {
	ImportDependencies
	TeamDependencies
	EmployeeDependencies
	NoteDependencies
	SessionDependencies
}

// Option configures the Server.
type Option func(*Server)

// WithMaxUploadBytes caps the size of POST /import bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

const defaultMaxUploadBytes = 20 << 20

// Server wires HTTP routes for the business API.
type Server struct {
	maxUploadBytes int64

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	importHandler   *ImportHandler
	teamsHandler    *TeamsHandler
	employeeHandler *EmployeeHandler
	notesHandler    *NotesHandler
	sessionHandler  *SessionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.importHandler = NewImportHandler(deps, s.maxUploadBytes)
	s.teamsHandler = NewTeamsHandler(deps)
	s.employeeHandler = NewEmployeeHandler(deps)
	s.notesHandler = NewNotesHandler(deps)
	s.sessionHandler = NewSessionHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /import", MetricsMiddleware(s.importHandler.HandleImport, "import"))

	mux.HandleFunc("GET /periods", MetricsMiddleware(s.teamsHandler.HandlePeriods, "periods"))
	mux.HandleFunc("GET /teams", MetricsMiddleware(s.teamsHandler.HandleList, "teams"))
	mux.HandleFunc("GET /overview", MetricsMiddleware(s.teamsHandler.HandleOverview, "overview"))
	mux.HandleFunc("GET /teams/{team}/summary", MetricsMiddleware(s.teamsHandler.HandleSummary, "team_summary"))
	mux.HandleFunc("GET /teams/{team}/reports", MetricsMiddleware(s.teamsHandler.HandleReports, "team_reports"))
	mux.HandleFunc("GET /teams/{team}/export", MetricsMiddleware(s.teamsHandler.HandleExport, "team_export"))
	mux.HandleFunc("GET /teams/{team}/kpis", MetricsMiddleware(s.teamsHandler.HandleGetKPIs, "team_kpis"))
	mux.HandleFunc("PUT /teams/{team}/kpis", MetricsMiddleware(s.teamsHandler.HandlePutKPIs, "team_kpis"))

	mux.HandleFunc("GET /employees/{id}", MetricsMiddleware(s.employeeHandler.HandleGet, "employee"))

	mux.HandleFunc("GET /notes/{employee}/{period}/{kpi}", MetricsMiddleware(s.notesHandler.HandleGet, "notes"))
	mux.HandleFunc("PUT /notes/{employee}/{period}/{kpi}", MetricsMiddleware(s.notesHandler.HandlePut, "notes"))

	mux.HandleFunc("GET /session", MetricsMiddleware(s.sessionHandler.HandleGet, "session"))
	mux.HandleFunc("POST /session/{action}", MetricsMiddleware(s.sessionHandler.HandleAction, "session"))
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

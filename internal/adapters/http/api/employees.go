package api

import (
	"context"
	"net/http"

	service "github.com/okian/kpibonus/internal/app"
)

// EmployeeDependencies defines the interface for the employee drill down.
type EmployeeDependencies interface {
	EmployeeDetail(ctx context.Context, id, period string) (service.EmployeeDetail, error)
}

// EmployeeHandler handles employee requests.
type EmployeeHandler struct {
	deps EmployeeDependencies
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(deps EmployeeDependencies) *EmployeeHandler {
	return &EmployeeHandler{deps: deps}
}

// HandleGet handles GET /employees/{id}?period=.
func (h *EmployeeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.employee"
	d, err := h.deps.EmployeeDetail(r.Context(), r.PathValue("id"), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

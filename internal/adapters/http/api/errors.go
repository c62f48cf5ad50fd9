package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/kpibonus/internal/app"
	"github.com/okian/kpibonus/internal/adapters/notes"
	"github.com/okian/kpibonus/internal/adapters/repository"
	"github.com/okian/kpibonus/internal/adapters/workbook"
	"github.com/okian/kpibonus/internal/domain/editor"
	"github.com/okian/kpibonus/internal/domain/normalize"
	"github.com/okian/kpibonus/internal/domain/session"
	"github.com/okian/kpibonus/pkg/metrics"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrUploadTooLarge = errors.New("upload too large")
)

// NewKind returns kind tagged with the operation name.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags err with the operation name and kind so both match errors.Is.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// errorStatus maps a service error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "upload_too_large"
	case errors.Is(err, workbook.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType, "invalid_file_type"
	case errors.Is(err, workbook.ErrUnreadableWorkbook),
		errors.Is(err, normalize.ErrEmptyDataset),
		errors.Is(err, normalize.ErrNoRecognizedSheet),
		errors.Is(err, normalize.ErrNoTeamsResolved):
		return http.StatusUnprocessableEntity, "invalid_workbook"
	case errors.Is(err, repository.ErrNoDataset):
		return http.StatusConflict, "no_dataset"
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrUnknownTeam),
		errors.Is(err, service.ErrUnknownEmployee),
		errors.Is(err, editor.ErrUnknownTeam):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrUnknownAction),
		errors.Is(err, session.ErrUnknownSelection),
		errors.Is(err, notes.ErrInvalidKey),
		errors.Is(err, editor.ErrInvalidKPI),
		errors.Is(err, editor.ErrDuplicateKPIID),
		errors.Is(err, editor.ErrInvalidBonusPool):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes err using errorStatus.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		metrics.RecordErrorByComponent("api", op)
	}
	writeError(w, status, code, err)
}

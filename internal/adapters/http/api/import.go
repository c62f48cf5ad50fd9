package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/kpibonus/internal/app"
)

// ImportDependencies defines the interface for workbook imports.
type ImportDependencies interface {
	Import(ctx context.Context, filename string, r io.Reader) (service.ImportReport, error)
}

// ImportHandler handles workbook uploads.
type ImportHandler struct {
	deps     ImportDependencies
	maxBytes int64
}

// NewImportHandler creates a new import handler.
func NewImportHandler(deps ImportDependencies, maxBytes int64) *ImportHandler {
	return &ImportHandler{deps: deps, maxBytes: maxBytes}
}

// HandleImport handles POST /import with a multipart "file" field.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, op, WrapKind(op, ErrUploadTooLarge, err))
			return
		}
		writeServiceError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	report, err := h.deps.Import(r.Context(), header.Filename, file)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

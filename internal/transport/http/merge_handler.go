package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "assaymerge/internal/errors"
	"assaymerge/internal/exporter"
	"assaymerge/internal/services"
	apiv1 "assaymerge/pkg/contracts/api/v1"
	"assaymerge/pkg/contracts/domain"
)

// MultipartOverhead leaves room for form fields and part headers on top of
// the file bytes themselves.
const MultipartOverhead = 1 << 20

// RequestBodyLimit is the largest merge request body accepted when each of
// the three uploads may hold up to perFile bytes.
func RequestBodyLimit(perFile int64) int64 {
	return int64(len(domain.AllTableKinds))*perFile + MultipartOverhead
}

// StructValidator validates decoded request bodies
type StructValidator interface {
	ValidateStruct(v interface{}) error
}

// MergeHandler serves merges of uploaded tables
type MergeHandler struct {
	service      MergeServiceInterface
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(service MergeServiceInterface, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MergeHandler {
	return &MergeHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "merge_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the merge routes
func (h *MergeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Merge)
	r.With(render.SetContentType(render.ContentTypeJSON)).Post("/preview", h.Preview)

	return r
}

// parametersFromForm reads exposure_time, compound and concentration_B..F
func parametersFromForm(r *http.Request) domain.ExperimentParameters {
	concentrations := make(map[string]string, len(domain.TestWellLetters))
	for _, letter := range domain.TestWellLetters {
		if value := r.FormValue("concentration_" + letter); value != "" {
			concentrations[letter] = value
		}
	}
	return domain.NewExperimentParameters(r.FormValue("exposure_time"), r.FormValue("compound"), concentrations)
}

// Merge handles POST /api/merge. The three tables arrive as multipart files
// named movement, turning and rotation; the response is the merged CSV.
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := h.service.MaxUploadBytes()

	r.Body = http.MaxBytesReader(w, r.Body, RequestBodyLimit(limit))
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	params := parametersFromForm(r)
	if err := h.service.ValidateParameters(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	uploads := make(map[domain.TableKind]services.Upload, len(domain.AllTableKinds))
	for _, kind := range domain.AllTableKinds {
		field := kind.String()
		file, header, err := r.FormFile(field)
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		if err := h.service.ValidateUpload(field, header); err != nil {
			if file != nil {
				file.Close()
			}
			h.errorHandler.HandleError(w, r, err)
			return
		}
		defer file.Close()
		uploads[kind] = services.Upload{Name: header.Filename, Reader: file}
	}

	grids, err := h.service.ReadUploads(ctx, uploads, r.FormValue("sheet"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.MergeGrids(ctx, params, grids)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.service.OutputFile()))
	w.Header().Set("X-Merge-Run-ID", result.Report.RunID)
	w.Header().Set("X-Merge-Rows", strconv.Itoa(len(result.Table.Rows)))
	w.Header().Set("X-Merge-Warnings", strconv.Itoa(len(result.Report.Warnings)))
	w.WriteHeader(http.StatusOK)

	// Headers are gone by now, so a failed write can only be logged
	if err := exporter.WriteTable(w, result.Table); err != nil {
		h.logger.ErrorContext(ctx, "failed to stream merged table",
			slog.String("error", err.Error()),
			slog.String("run_id", result.Report.RunID))
		return
	}

	h.logger.InfoContext(ctx, "merged table served",
		slog.String("run_id", result.Report.RunID),
		slog.Int("rows", len(result.Table.Rows)),
		slog.Int("warnings", len(result.Report.Warnings)))
}

// Preview handles POST /api/merge/preview. Grids are posted as JSON and the
// merged table is returned as formatted strings.
func (h *MergeHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req apiv1.MergePreviewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.MergeGrids(r.Context(), req.Parameters.ToDomain(), req.Grids())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows := result.Table.Rows
	truncated := false
	if req.RowLimit > 0 && len(rows) > req.RowLimit {
		rows = rows[:req.RowLimit]
		truncated = true
	}

	formatted := make([][]string, len(rows))
	for i, row := range rows {
		formatted[i] = exporter.FormatRow(row)
	}

	render.JSON(w, r, apiv1.MergePreviewResponse{
		Summary:   result.Table.Summary(),
		Report:    result.Report,
		Header:    result.Table.Header,
		Rows:      formatted,
		Truncated: truncated,
	})
}

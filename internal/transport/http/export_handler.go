package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pcpsucata/internal/config"
	apierrors "pcpsucata/internal/errors"
	"pcpsucata/internal/exporter"
	"pcpsucata/internal/infrastructure"
	custommw "pcpsucata/internal/middleware"
)

// ExportTitle heads every exported report.
const ExportTitle = config.PageDaily

// ExportHandler serves reports as downloadable files
type ExportHandler struct {
	service      ReportServiceInterface
	validator    *custommw.QueryParamValidator
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler. metrics may be nil.
func NewExportHandler(service ReportServiceInterface, validator *custommw.QueryParamValidator, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		validator:    validator,
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{format}", h.Export)
	return r
}

// Export handles GET /api/reports/export/{format}. It accepts the same query
// parameters as /api/reports/buckets.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "format")

	format, err := exporter.ParseFormat(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormat(raw))
		return
	}

	var params bucketParams
	if err := h.validator.Bind(r, &params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q := params.query()
	report, err := h.service.Query(ctx, q)
	if err != nil {
		infrastructure.RecordExport(ctx, h.metrics, string(format), err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	doc := exporter.NewDocument(report, ExportTitle, exporter.DescribePeriod(q))

	// Render into memory so a failed export still gets a problem response.
	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, doc); err != nil {
		infrastructure.RecordExport(ctx, h.metrics, string(format), err)
		h.errorHandler.HandleError(w, r, fmt.Errorf("render %s export: %w", format, err))
		return
	}
	infrastructure.RecordExport(ctx, h.metrics, string(format), nil)

	h.logger.InfoContext(ctx, "report exported",
		slog.String("format", string(format)),
		slog.String("period", doc.Period),
		slog.Int("buckets", len(doc.Buckets)),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename(format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

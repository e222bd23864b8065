package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "pcpsucata/internal/errors"
	custommw "pcpsucata/internal/middleware"
	"pcpsucata/internal/scrap"
	"pcpsucata/internal/services"
)

// bucketParams are the query parameters of /api/reports/buckets and the
// export endpoint.
type bucketParams struct {
	Group  string `form:"group" validate:"omitempty,oneof=day plate_code date"`
	Metric string `form:"metric" validate:"omitempty,oneof=auto loss scrap"`
	Month  int    `form:"month" validate:"omitempty,min=1,max=12"`
	Year   int    `form:"year" validate:"omitempty,min=1900,max=9999"`
	Start  string `form:"start" validate:"omitempty,isodate"`
	End    string `form:"end" validate:"omitempty,isodate"`
	Date   string `form:"date" validate:"omitempty,isodate"`
	Plate  string `form:"plate" validate:"omitempty,max=64"`
}

func (p bucketParams) query() services.Query {
	return services.Query{
		GroupBy: scrap.GroupKey(p.Group),
		Metric:  services.Metric(p.Metric),
		Month:   p.Month,
		Year:    p.Year,
		Start:   custommw.ParseISODate(p.Start),
		End:     custommw.ParseISODate(p.End),
		Date:    custommw.ParseISODate(p.Date),
		Plate:   p.Plate,
	}
}

type dailyParams struct {
	Month int    `form:"month" validate:"omitempty,min=1,max=12"`
	Year  int    `form:"year" validate:"omitempty,min=1900,max=9999"`
	Date  string `form:"date" validate:"omitempty,isodate"`
}

func (p dailyParams) query() services.DailyQuery {
	return services.DailyQuery{Month: p.Month, Year: p.Year, Date: custommw.ParseISODate(p.Date)}
}

type monthlyParams struct {
	Year int `form:"year" validate:"omitempty,min=1900,max=9999"`
}

// ReportHandler serves the JSON report API
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *custommw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, validator *custommw.QueryParamValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/buckets", h.GetBuckets)
	r.Get("/daily", h.GetDaily)
	r.Get("/monthly", h.GetMonthly)
	r.Get("/plates", h.GetPlates)
	return r
}

// GetBuckets handles GET /api/reports/buckets
func (h *ReportHandler) GetBuckets(w http.ResponseWriter, r *http.Request) {
	var params bucketParams
	if err := h.validator.Bind(r, &params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Query(r.Context(), params.query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "buckets report served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("group_by", string(report.GroupBy)),
		slog.Int("buckets", len(report.Buckets)),
		slog.Bool("empty", report.Empty))
	render.JSON(w, r, report)
}

// GetDaily handles GET /api/reports/daily
func (h *ReportHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	var params dailyParams
	if err := h.validator.Bind(r, &params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Daily(r.Context(), params.query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetMonthly handles GET /api/reports/monthly
func (h *ReportHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	var params monthlyParams
	if err := h.validator.Bind(r, &params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Monthly(r.Context(), params.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetPlates handles GET /api/reports/plates
func (h *ReportHandler) GetPlates(w http.ResponseWriter, r *http.Request) {
	plates, err := h.service.Plates(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"plates": plates,
		"count":  len(plates),
	})
}

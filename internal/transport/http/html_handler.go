package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pcpsucata/internal/config"
	apierrors "pcpsucata/internal/errors"
	"pcpsucata/internal/exporter"
	custommw "pcpsucata/internal/middleware"
	"pcpsucata/internal/scrap"
	"pcpsucata/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// EmptyMessage is shown instead of a chart when the filters match no rows.
const EmptyMessage = exporter.EmptyMessage

const (
	pageDaily   = "apontamento"
	pageMonthly = "acompanhamento"
	pageError   = "error"
)

// DashboardHandler renders the server-side HTML dashboard
type DashboardHandler struct {
	service      ReportServiceInterface
	validator    *custommw.QueryParamValidator
	pages        map[string]*template.Template
	version      string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler parses the embedded templates and creates the handler.
func NewDashboardHandler(service ReportServiceInterface, validator *custommw.QueryParamValidator, version string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*DashboardHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{pageDaily, pageMonthly, pageError} {
		tmpl, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &DashboardHandler{
		service:      service,
		validator:    validator,
		pages:        pages,
		version:      version,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}, nil
}

// Register adds the dashboard pages to r
func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/", RedirectToDashboard)
	r.Get("/"+pageDaily, h.Apontamento)
	r.Get("/"+pageMonthly, h.Acompanhamento)
}

// RedirectToDashboard sends the root path to the daily page
func RedirectToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+pageDaily, http.StatusFound)
}

// page is the data every template receives.
type page struct {
	Title   string
	Active  string
	Version string
	Daily   *dailyPage
	Monthly *monthlyPage
	Error   *errorPage
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type metricCard struct {
	Label string
	Value string
	Hint  string
}

type bar struct {
	Label  string
	Value  string
	Height float64
	Null   bool
}

type chart struct {
	Title   string
	Bars    []bar
	Empty   bool
	Caption string
}

type exportLink struct {
	Label string
	Href  string
}

type table struct {
	Header  []string
	Records [][]string
}

type dailyPage struct {
	MonthLabel  string
	DateLabel   string
	DateValue   string
	YearValue   string
	Months      []option
	Dates       []string
	Chart       chart
	MonthCards  []metricCard
	DateCards   []metricCard
	Plates      table
	DateEmpty   bool
	MonthExport []exportLink
	DateExport  []exportLink
}

type monthPanel struct {
	Title  string
	Chart  chart
	Cards  []metricCard
	Export []exportLink
}

type monthlyPage struct {
	YearValue string
	Panels    []monthPanel
	Empty     bool
}

type errorPage struct {
	Status    int
	Title     string
	Detail    string
	RequestID string
}

// Apontamento handles GET /apontamento: the day chart of one month and the
// plate breakdown of one date.
func (h *DashboardHandler) Apontamento(w http.ResponseWriter, r *http.Request) {
	var params dailyParams
	if err := h.validator.Bind(r, &params); err != nil {
		h.renderError(w, r, err)
		return
	}

	view, err := h.service.Daily(r.Context(), params.query())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pageDaily, page{
		Title:  config.PageDaily,
		Active: pageDaily,
		Daily:  newDailyPage(view),
	})
}

// Acompanhamento handles GET /acompanhamento: one day chart per month.
func (h *DashboardHandler) Acompanhamento(w http.ResponseWriter, r *http.Request) {
	var params monthlyParams
	if err := h.validator.Bind(r, &params); err != nil {
		h.renderError(w, r, err)
		return
	}

	view, err := h.service.Monthly(r.Context(), params.Year)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pageMonthly, page{
		Title:   config.PageMonthly,
		Active:  pageMonthly,
		Monthly: newMonthlyPage(view),
	})
}

// renderError maps err to a status the same way the JSON API does and shows
// it as a page.
func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	reqID := custommw.GetRequestID(r.Context())

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "page failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path))

	h.render(w, r, problem.Status, pageError, page{
		Title: problem.Title,
		Error: &errorPage{
			Status:    problem.Status,
			Title:     problem.Title,
			Detail:    problem.Detail,
			RequestID: reqID,
		},
	})
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	data.Version = h.version

	var buf bytes.Buffer
	if err := h.pages[name].Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "template execution failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func newDailyPage(v *services.DailyView) *dailyPage {
	withWeight := v.Metric == services.MetricLoss
	monthLabel := exporter.FormatMonth(v.Month)
	dateLabel := exporter.FormatDate(v.Date)

	p := &dailyPage{
		MonthLabel: monthLabel,
		DateLabel:  dateLabel,
		DateValue:  v.Date.Format(custommw.ISODate),
		YearValue:  strconv.Itoa(v.Month.Year),
		Months:     monthOptions(v.Month.Month),
		Chart:      newChart(chartTitle(v.Metric)+" - "+monthLabel, v.Days, v.Metric),
		DateEmpty:  v.DateEmpty,
	}
	for _, d := range v.AvailableDates {
		p.Dates = append(p.Dates, d.Format(custommw.ISODate))
	}

	p.MonthCards = []metricCard{
		{Label: "Sucata no mês", Value: exporter.FormatKg(v.MonthSummary.TotalScrap), Hint: monthLabel},
	}
	if withWeight {
		p.MonthCards = append(p.MonthCards,
			metricCard{Label: "Perda no mês", Value: exporter.FormatPct(v.MonthSummary.PeriodLossPct), Hint: "sucata / peso"})
	}
	p.MonthCards = append(p.MonthCards,
		metricCard{Label: "Média mensal", Value: exporter.FormatPct(v.MonthMeanYieldPct), Hint: "aproveitamento médio"})

	p.DateCards = []metricCard{
		{Label: "Peso total", Value: exporter.FormatKg(v.DateSummary.TotalScrap), Hint: "sucata em " + dateLabel},
	}
	if withWeight {
		p.DateCards = append(p.DateCards,
			metricCard{Label: "Perda do dia", Value: exporter.FormatPct(v.DateSummary.PeriodLossPct), Hint: "sucata / peso"})
	}
	p.DateCards = append(p.DateCards,
		metricCard{Label: "Média diária", Value: exporter.FormatPct(v.DateMeanYieldPct), Hint: "aproveitamento médio"})

	plates := exporter.Document{GroupBy: scrap.GroupByPlate, Metric: v.Metric, Buckets: v.Plates}
	p.Plates = table{Header: plates.Header(), Records: plates.Records()}

	p.MonthExport = exportLinks(url.Values{
		"group": {string(scrap.GroupByDay)},
		"month": {strconv.Itoa(int(v.Month.Month))},
		"year":  {strconv.Itoa(v.Month.Year)},
	})
	p.DateExport = exportLinks(url.Values{
		"group": {string(scrap.GroupByPlate)},
		"date":  {v.Date.Format(custommw.ISODate)},
	})
	return p
}

func newMonthlyPage(v *services.MonthlyView) *monthlyPage {
	p := &monthlyPage{Empty: v.Empty}
	if v.Year > 0 {
		p.YearValue = strconv.Itoa(v.Year)
	}

	withWeight := v.Metric == services.MetricLoss
	for _, m := range v.Months {
		label := exporter.FormatMonth(m.Month)
		panel := monthPanel{
			Title: config.PageMonthly + " - " + label,
			Chart: newChart(chartTitle(v.Metric), m.Days, v.Metric),
			Cards: []metricCard{{Label: "Sucata no mês", Value: exporter.FormatKg(m.Summary.TotalScrap)}},
		}
		if withWeight {
			panel.Cards = append(panel.Cards,
				metricCard{Label: "Perda no mês", Value: exporter.FormatPct(m.Summary.PeriodLossPct)})
		}
		panel.Cards = append(panel.Cards,
			metricCard{Label: "Média mensal", Value: exporter.FormatPct(m.MeanYieldPct)})
		panel.Export = exportLinks(url.Values{
			"group": {string(scrap.GroupByDay)},
			"month": {strconv.Itoa(int(m.Month.Month))},
			"year":  {strconv.Itoa(m.Month.Year)},
		})
		p.Panels = append(p.Panels, panel)
	}
	return p
}

func chartTitle(m services.Metric) string {
	if m == services.MetricLoss {
		return "Perda por dia (%)"
	}
	return "Sucata por dia (kg)"
}

// newChart scales bars against the largest value. Null values get an empty
// bar labelled "sem dados" instead of a zero.
func newChart(title string, buckets []scrap.Bucket, m services.Metric) chart {
	c := chart{Title: title, Empty: len(buckets) == 0, Caption: EmptyMessage}

	values := make([]scrap.NullFloat, len(buckets))
	peak := 0.0
	for i, b := range buckets {
		v := scrap.Float(b.ScrapSum)
		if m == services.MetricLoss {
			v = b.LossPct
		}
		values[i] = v
		if v.Valid && v.Float64 > peak {
			peak = v.Float64
		}
	}

	for i, b := range buckets {
		bb := bar{Label: strconv.Itoa(b.Day)}
		v := values[i]
		switch {
		case !v.Valid:
			bb.Value = exporter.NoData
			bb.Null = true
		case m == services.MetricLoss:
			bb.Value = exporter.FormatPct(v)
		default:
			bb.Value = exporter.FormatKg(v.Float64)
		}
		if v.Valid && peak > 0 {
			bb.Height = v.Float64 / peak * 100
		}
		c.Bars = append(c.Bars, bb)
	}
	return c
}

func monthOptions(selected time.Month) []option {
	opts := make([]option, 0, 12)
	for m := time.January; m <= time.December; m++ {
		opts = append(opts, option{
			Value:    strconv.Itoa(int(m)),
			Label:    exporter.MonthName(m),
			Selected: m == selected,
		})
	}
	return opts
}

func exportLinks(q url.Values) []exportLink {
	links := make([]exportLink, 0, len(exporter.Formats()))
	for _, f := range exporter.Formats() {
		links = append(links, exportLink{
			Label: strings.ToUpper(string(f)),
			Href:  "/api/reports/export/" + string(f) + "?" + q.Encode(),
		})
	}
	return links
}

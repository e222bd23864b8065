package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pcpsucata/internal/config"
	"pcpsucata/internal/infrastructure"
	"pcpsucata/internal/scrap"
	"pcpsucata/internal/source"
)

// Metric selects what a report measures.
type Metric string

const (
	MetricAuto  Metric = "auto"
	MetricLoss  Metric = "loss"
	MetricScrap Metric = "scrap"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricAuto, MetricLoss, MetricScrap:
		return true
	}
	return false
}

// Query filters and groups rows. Zero values disable a filter. Month
// filtering uses Year when set; Year alone keeps the whole year.
type Query struct {
	GroupBy scrap.GroupKey
	Metric  Metric
	Month   int
	Year    int
	Start   time.Time
	End     time.Time
	Date    time.Time
	Plate   string
}

// Report is the result of a Query.
type Report struct {
	GroupBy      scrap.GroupKey  `json:"group_by"`
	Metric       Metric          `json:"metric"`
	Buckets      []scrap.Bucket  `json:"buckets"`
	Summary      scrap.Summary   `json:"summary"`
	MeanYieldPct scrap.NullFloat `json:"mean_yield_pct"`
	Empty        bool            `json:"empty"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// DailyQuery selects the month shown on the daily page and the date whose
// plate breakdown is shown next to it. Zero values mean the current month
// and today.
type DailyQuery struct {
	Month int
	Year  int
	Date  time.Time
}

// DailyView backs the "Apontamento Sucata" page.
type DailyView struct {
	Month             scrap.YearMonth `json:"month"`
	Date              time.Time       `json:"date"`
	Metric            Metric          `json:"metric"`
	Days              []scrap.Bucket  `json:"days"`
	MonthSummary      scrap.Summary   `json:"month_summary"`
	MonthMeanYieldPct scrap.NullFloat `json:"month_mean_yield_pct"`
	Plates            []scrap.Bucket  `json:"plates"`
	DateSummary       scrap.Summary   `json:"date_summary"`
	DateMeanYieldPct  scrap.NullFloat `json:"date_mean_yield_pct"`
	AvailableDates    []time.Time     `json:"available_dates"`
	Empty             bool            `json:"empty"`
	DateEmpty         bool            `json:"date_empty"`
}

// MonthPanel is one month of the monthly page.
type MonthPanel struct {
	Month        scrap.YearMonth `json:"month"`
	Days         []scrap.Bucket  `json:"days"`
	Summary      scrap.Summary   `json:"summary"`
	MeanYieldPct scrap.NullFloat `json:"mean_yield_pct"`
}

// MonthlyView backs the "Acompanhamento Sucata" page.
type MonthlyView struct {
	Year   int          `json:"year,omitempty"`
	Metric Metric       `json:"metric"`
	Months []MonthPanel `json:"months"`
	Empty  bool         `json:"empty"`
}

// ReportOptions describes the sheet layout.
type ReportOptions struct {
	Schema       scrap.Schema
	Format       scrap.NumberFormat
	DateLayout   string
	HeaderRow    int
	DataStartRow int
}

// DefaultReportOptions matches the production cutting sheet.
func DefaultReportOptions() ReportOptions {
	return ReportOptionsFromConfig(config.Default())
}

// ReportOptionsFromConfig maps the source and columns sections.
func ReportOptionsFromConfig(cfg *config.Config) ReportOptions {
	return ReportOptions{
		Schema: scrap.Schema{
			Date:      cfg.Columns.Date,
			PlateCode: cfg.Columns.PlateCode,
			Scrap:     cfg.Columns.Scrap,
			Weight:    cfg.Columns.Weight,
			Yield:     cfg.Columns.Yield,
		},
		Format: scrap.NumberFormat{
			Decimal:   cfg.Source.DecimalSeparator,
			Thousands: cfg.Source.ThousandsSeparator,
		},
		DateLayout:   cfg.Source.DateLayout,
		HeaderRow:    cfg.Source.HeaderRow,
		DataStartRow: cfg.Source.DataStartRow,
	}
}

// ReportService computes dashboard reports from the sheet.
type ReportService struct {
	src     source.Source
	opts    ReportOptions
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	now     func() time.Time
}

// NewReportService creates a report service reading from src.
func NewReportService(src source.Source, opts ReportOptions, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DateLayout == "" {
		opts.DateLayout = scrap.DefaultDateLayout
	}
	return &ReportService{
		src:    src,
		opts:   opts,
		logger: logger.With(slog.String("component", "report_service")),
		tracer: otel.Tracer(infrastructure.MeterName),
		now:    time.Now,
	}
}

// SetTelemetry sets the tracer and metrics used for report builds.
func (s *ReportService) SetTelemetry(tracer trace.Tracer, metrics *infrastructure.BusinessMetrics) {
	if tracer != nil {
		s.tracer = tracer
	}
	s.metrics = metrics
}

// SetClock overrides the clock that defines "today" and "this month".
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// Load fetches and parses the whole sheet.
func (s *ReportService) Load(ctx context.Context) (*scrap.Dataset, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}

	grid, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sheet: %w", err)
	}

	table, err := scrap.TableFromGrid(grid, s.opts.HeaderRow, s.opts.DataStartRow)
	if err != nil {
		return nil, fmt.Errorf("load sheet: %w", err)
	}

	ds, err := scrap.ParseTable(table, s.opts.Schema, s.opts.Format, s.opts.DateLayout)
	if err != nil {
		return nil, fmt.Errorf("load sheet: %w", err)
	}

	undated := 0
	for _, r := range ds.Rows {
		if !r.HasDate() {
			undated++
		}
	}
	s.logger.DebugContext(ctx, "sheet parsed",
		slog.Int("rows", len(ds.Rows)),
		slog.Int("undated_rows", undated),
		slog.Bool("has_weight", ds.Has(scrap.ColumnWeight)),
		slog.Bool("has_yield", ds.Has(scrap.ColumnYield)))
	infrastructure.AddSpanEvent(ctx, "sheet parsed",
		attribute.Int("rows", len(ds.Rows)),
		attribute.Int("undated_rows", undated))
	return ds, nil
}

// Query filters the sheet and groups the remaining rows. A query matching
// nothing gives an empty report, not an error.
func (s *ReportService) Query(ctx context.Context, q Query) (report *Report, err error) {
	ctx, done := s.observe(ctx, "buckets")
	defer func() { done(report != nil && report.Empty, err) }()

	if q.GroupBy == "" {
		q.GroupBy = scrap.GroupByDay
	}
	if q.Metric == "" {
		q.Metric = MetricAuto
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	metric, err := resolveMetric(ds, q.Metric)
	if err != nil {
		return nil, err
	}

	rows := filterRows(ds.Rows, q)
	buckets := aggregate(rows, q.GroupBy, metric)

	return &Report{
		GroupBy:      q.GroupBy,
		Metric:       metric,
		Buckets:      buckets,
		Summary:      scrap.Summarize(buckets),
		MeanYieldPct: scrap.MeanYieldPct(rows),
		Empty:        len(buckets) == 0,
		GeneratedAt:  s.now(),
	}, nil
}

// Daily builds the day chart of a month and the plate breakdown of a date.
func (s *ReportService) Daily(ctx context.Context, q DailyQuery) (view *DailyView, err error) {
	ctx, done := s.observe(ctx, "daily")
	defer func() { done(view != nil && view.Empty, err) }()

	if q.Month < 0 || q.Month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, q.Month)
	}

	today := s.now()
	date := q.Date
	if date.IsZero() {
		date = today
	}
	month := scrap.YearMonth{Year: q.Year, Month: time.Month(q.Month)}
	switch {
	case q.Month == 0 && !q.Date.IsZero():
		month = scrap.YearMonth{Year: date.Year(), Month: date.Month()}
	case q.Month == 0:
		month = scrap.YearMonth{Year: q.Year, Month: today.Month()}
		if month.Year == 0 {
			month.Year = today.Year()
		}
	case q.Year == 0:
		month.Year = today.Year()
	}

	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	metric, err := resolveMetric(ds, MetricAuto)
	if err != nil {
		return nil, err
	}

	monthRows := scrap.FilterByMonth(ds.Rows, int(month.Month), month.Year)
	days := aggregate(monthRows, scrap.GroupByDay, metric)

	dateRows := scrap.FilterByDate(ds.Rows, date)
	plates := aggregate(dateRows, scrap.GroupByPlate, metric)

	return &DailyView{
		Month:             month,
		Date:              time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Metric:            metric,
		Days:              days,
		MonthSummary:      scrap.Summarize(days),
		MonthMeanYieldPct: scrap.MeanYieldPct(monthRows),
		Plates:            plates,
		DateSummary:       scrap.Summarize(plates),
		DateMeanYieldPct:  scrap.MeanYieldPct(dateRows),
		AvailableDates:    distinctDates(monthRows),
		Empty:             len(days) == 0,
		DateEmpty:         len(plates) == 0,
	}, nil
}

// Monthly builds one day chart per month present in the sheet, oldest first.
// A year of 0 includes every month.
func (s *ReportService) Monthly(ctx context.Context, year int) (view *MonthlyView, err error) {
	ctx, done := s.observe(ctx, "monthly")
	defer func() { done(view != nil && view.Empty, err) }()

	if year < 0 {
		return nil, fmt.Errorf("%w: year %d", ErrInvalidQuery, year)
	}

	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	metric, err := resolveMetric(ds, MetricAuto)
	if err != nil {
		return nil, err
	}

	view = &MonthlyView{Year: year, Metric: metric, Months: make([]MonthPanel, 0)}
	for _, ym := range scrap.Months(ds.Rows) {
		if year != 0 && ym.Year != year {
			continue
		}
		rows := scrap.FilterByMonth(ds.Rows, int(ym.Month), ym.Year)
		days := aggregate(rows, scrap.GroupByDay, metric)
		if len(days) == 0 {
			continue
		}
		view.Months = append(view.Months, MonthPanel{
			Month:        ym,
			Days:         days,
			Summary:      scrap.Summarize(days),
			MeanYieldPct: scrap.MeanYieldPct(rows),
		})
	}
	view.Empty = len(view.Months) == 0
	return view, nil
}

// Plates lists the plate codes in the sheet in first-appearance order.
func (s *ReportService) Plates(ctx context.Context) ([]string, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return scrap.PlateCodes(ds.Rows), nil
}

// observe opens a span for a report build and returns the function that
// closes it and records the outcome.
func (s *ReportService) observe(ctx context.Context, view string) (context.Context, func(empty bool, err error)) {
	ctx, span := s.tracer.Start(ctx, "report."+view,
		trace.WithAttributes(attribute.String("report.view", view)))
	start := time.Now()

	return ctx, func(empty bool, err error) {
		elapsed := time.Since(start)
		infrastructure.RecordReportBuild(ctx, s.metrics, view, elapsed, empty, err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.WarnContext(ctx, "report failed",
				slog.String("view", view),
				slog.String("error", err.Error()))
		} else {
			span.SetAttributes(attribute.Bool("report.empty", empty))
			s.logger.DebugContext(ctx, "report built",
				slog.String("view", view),
				slog.Bool("empty", empty),
				slog.Duration("duration", elapsed))
		}
		span.End()
	}
}

func validateQuery(q Query) error {
	if !q.GroupBy.Valid() {
		return fmt.Errorf("%w: unknown grouping %q", ErrInvalidQuery, q.GroupBy)
	}
	if !q.Metric.Valid() {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidQuery, q.Metric)
	}
	if q.Month < 0 || q.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, q.Month)
	}
	if q.Year < 0 {
		return fmt.Errorf("%w: year %d", ErrInvalidQuery, q.Year)
	}
	return nil
}

// resolveMetric turns MetricAuto into a concrete metric and checks that the
// sheet can support it.
func resolveMetric(ds *scrap.Dataset, m Metric) (Metric, error) {
	switch m {
	case MetricScrap:
		return MetricScrap, nil
	case MetricLoss:
		if err := ds.Require(scrap.ColumnWeight); err != nil {
			return "", err
		}
		return MetricLoss, nil
	default:
		if ds.Has(scrap.ColumnWeight) {
			return MetricLoss, nil
		}
		return MetricScrap, nil
	}
}

func aggregate(rows []scrap.Row, key scrap.GroupKey, m Metric) []scrap.Bucket {
	if m == MetricScrap {
		return scrap.AggregateScrap(rows, key)
	}
	return scrap.Aggregate(rows, key)
}

func filterRows(rows []scrap.Row, q Query) []scrap.Row {
	switch {
	case q.Month > 0:
		rows = scrap.FilterByMonth(rows, q.Month, q.Year)
	case q.Year > 0:
		rows = scrap.FilterByDateRange(rows,
			time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(q.Year, time.December, 31, 0, 0, 0, 0, time.UTC))
	}

	if !q.Start.IsZero() || !q.End.IsZero() {
		start, end := q.Start, q.End
		if start.IsZero() {
			start = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
		}
		if end.IsZero() {
			end = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
		}
		rows = scrap.FilterByDateRange(rows, start, end)
	}

	if !q.Date.IsZero() {
		rows = scrap.FilterByDate(rows, q.Date)
	}
	if q.Plate != "" {
		rows = scrap.FilterByCategory(rows, q.Plate)
	}
	return rows
}

// distinctDates lists the calendar days of the dated rows, oldest first,
// whether or not their scrap cells are filled.
func distinctDates(rows []scrap.Row) []time.Time {
	seen := make(map[time.Time]struct{})
	dates := make([]time.Time, 0)
	for _, r := range rows {
		if !r.HasDate() {
			continue
		}
		d := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates
}

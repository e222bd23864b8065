package source

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"pcpsucata/internal/config"
	"pcpsucata/internal/infrastructure"
)

type options struct {
	tracer        trace.Tracer
	metrics       *infrastructure.BusinessMetrics
	clientOptions []option.ClientOption
}

// Option configures New.
type Option func(*options)

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics records fetch and cache metrics.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClientOptions passes extra options to the Sheets client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// New builds the configured source wrapped in timeout, instrumentation and
// cache layers, in that order from the inside out.
func New(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger, opts ...Option) (Source, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	var base Source
	switch cfg.Kind {
	case config.SourceSheets:
		s, err := NewSheetsSource(ctx, SheetsConfig{
			SpreadsheetID:   cfg.SpreadsheetID,
			SheetName:       cfg.SheetName,
			SheetIndex:      cfg.SheetIndex,
			CredentialsFile: cfg.CredentialsFile,
			CredentialsJSON: cfg.CredentialsJSON,
			APIKey:          cfg.APIKey,
			Endpoint:        cfg.Endpoint,
		}, logger, o.clientOptions...)
		if err != nil {
			return nil, err
		}
		base = s
	case config.SourceXLSX:
		base = NewXLSXSource(cfg.FilePath, cfg.SheetName, cfg.SheetIndex, CellFormat{
			Decimal:    cfg.DecimalSeparator,
			DateLayout: cfg.DateLayout,
		})
	case config.SourceCSV:
		s, err := NewCSVSource(cfg.FilePath, cfg.CSVDelimiter, cfg.Encoding)
		if err != nil {
			return nil, err
		}
		base = s
	default:
		return nil, fmt.Errorf("unsupported source kind: %q", cfg.Kind)
	}

	logger.Info("sheet source configured",
		slog.String("kind", base.Name()),
		slog.Duration("cache_ttl", cfg.CacheTTL),
		slog.Duration("fetch_timeout", cfg.FetchTimeout))

	src := WithTimeout(base, cfg.FetchTimeout)
	src = Instrument(src, o.tracer, o.metrics, logger)
	return Cache(src, cfg.CacheTTL, logger, o.metrics), nil
}

package source

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pcpsucata/internal/infrastructure"
	"pcpsucata/internal/scrap"
)

type timeoutSource struct {
	Source
	d time.Duration
}

// WithTimeout bounds every fetch of src by d. A non-positive d returns src.
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return &timeoutSource{Source: src, d: d}
}

func (s *timeoutSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.Source.Fetch(ctx)
}

// InstrumentedSource traces, measures and logs each fetch.
type InstrumentedSource struct {
	next    Source
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// Instrument wraps next. A nil tracer falls back to the global provider.
func Instrument(next Source, tracer trace.Tracer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *InstrumentedSource {
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InstrumentedSource{
		next:    next,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "source")),
	}
}

func (s *InstrumentedSource) Name() string { return s.next.Name() }

func (s *InstrumentedSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	ctx, span := s.tracer.Start(ctx, "source.fetch",
		trace.WithAttributes(attribute.String("source.name", s.Name())))
	defer span.End()

	start := time.Now()
	grid, err := s.next.Fetch(ctx)
	elapsed := time.Since(start)

	infrastructure.RecordSourceFetch(ctx, s.metrics, s.Name(), len(grid), elapsed, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "sheet fetch failed",
			slog.String("source", s.Name()),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("source.rows", len(grid)))
	s.logger.DebugContext(ctx, "sheet fetch complete",
		slog.String("source", s.Name()),
		slog.Int("rows", len(grid)),
		slog.Duration("duration", elapsed))
	return grid, nil
}

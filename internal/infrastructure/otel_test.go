package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics(t *testing.T) (*BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, quietLogger())
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	require.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitialization_Twice(t *testing.T) {
	cfg := &OTelConfig{ServiceName: ServiceName, TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1}

	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(cfg, quietLogger())
		require.NoError(t, err, "each init owns its registry")
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OTelConfig
		wantErr string
	}{
		{name: "metrics disabled", cfg: OTelConfig{TraceExporter: "none", MetricExporter: "none", SampleRatio: 1}},
		{name: "stdout traces", cfg: OTelConfig{TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 0.5}},
		{name: "unknown trace exporter", cfg: OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"}, wantErr: "unsupported trace exporter"},
		{name: "unknown metric exporter", cfg: OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}, wantErr: "unsupported metric exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(&tt.cfg, quietLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, providers.Meter)
			assert.Nil(t, providers.PrometheusHTTP)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestNewOTelConfig(t *testing.T) {
	cfg := DefaultOTelConfig()
	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName: ServiceName, TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1,
	}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordSourceFetch(context.Background(), metrics, "sheets", 42, 120*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "source_fetch_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRecordHelpers(t *testing.T) {
	ctx := context.Background()
	m, reader := testMetrics(t)

	RecordSourceFetch(ctx, m, "sheets", 10, time.Second, nil)
	RecordSourceFetch(ctx, m, "sheets", 0, time.Second, errors.New("boom"))
	RecordCacheLookup(ctx, m, "sheets", true)
	RecordCacheLookup(ctx, m, "sheets", true)
	RecordCacheLookup(ctx, m, "sheets", false)
	RecordReportBuild(ctx, m, "daily", time.Millisecond, true, nil)
	RecordReportBuild(ctx, m, "daily", time.Millisecond, true, errors.New("x"))
	RecordExport(ctx, m, "csv", nil)

	assert.Equal(t, int64(2), sumOf(t, reader, "source_fetch_total"))
	assert.Equal(t, int64(10), sumOf(t, reader, "source_rows_fetched_total"))
	assert.Equal(t, int64(2), sumOf(t, reader, "source_cache_hits_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "source_cache_misses_total"))
	assert.Equal(t, int64(2), sumOf(t, reader, "report_builds_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "report_empty_total"), "failed builds are not counted as empty")
	assert.Equal(t, int64(1), sumOf(t, reader, "report_exports_total"))
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordSourceFetch(context.Background(), nil, "x", 1, 0, nil)
		RecordCacheLookup(context.Background(), nil, "x", true)
		RecordReportBuild(context.Background(), nil, "x", 0, false, nil)
		RecordExport(context.Background(), nil, "pdf", nil)
	})
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "report.daily")
	AddSpanEvent(ctx, "rows.filtered", attribute.Int("rows", 3))
	RecordError(ctx, errors.New("source down"))
	RecordError(ctx, nil)

	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "source down", ended[0].Status().Description)

	var names []string
	for _, ev := range ended[0].Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "rows.filtered")
	assert.Contains(t, names, "exception")
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcpsucata/internal/config"
	customMiddleware "pcpsucata/internal/middleware"
	"pcpsucata/internal/scrap"
	"pcpsucata/internal/shared/testutil"
	"pcpsucata/internal/source"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Fetch(context.Context) (scrap.Grid, error) {
	return nil, &source.Error{Source: "failing", Op: "fetch", Err: errors.New("connection refused")}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Telemetry.Environment = "test"
	cfg.Security.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func newTestApp(t *testing.T, src source.Source) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(context.Background(), testConfig(), logger, src)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(a *Application, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestNew_Wiring(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
	assert.NotNil(t, a.Services.Report)
	assert.NotNil(t, a.Services.Health)
	assert.NotNil(t, a.Metrics)
	assert.Equal(t, ":8080", a.Server.Addr)
	assert.Equal(t, 1<<20, a.Server.MaxHeaderBytes)
}

func TestRouter_Endpoints(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		contentType string
	}{
		{"health", "/api/health", http.StatusOK, "application/json"},
		{"ready", "/api/health/ready", http.StatusOK, "application/json"},
		{"live", "/api/health/live", http.StatusOK, "application/json"},
		{"version", "/api/version", http.StatusOK, "application/json"},
		{"buckets", "/api/reports/buckets?month=7&year=2024", http.StatusOK, "application/json"},
		{"daily", "/api/reports/daily?date=2024-07-02", http.StatusOK, "application/json"},
		{"monthly", "/api/reports/monthly", http.StatusOK, "application/json"},
		{"plates", "/api/reports/plates", http.StatusOK, "application/json"},
		{"csv export", "/api/reports/export/csv?month=7&year=2024", http.StatusOK, "text/csv"},
		{"daily page", "/apontamento?date=2024-07-02", http.StatusOK, "text/html"},
		{"monthly page", "/acompanhamento", http.StatusOK, "text/html"},
		{"trailing slash", "/acompanhamento/", http.StatusOK, "text/html"},
		{"metrics", "/metrics", http.StatusOK, "text/plain"},
		{"unknown", "/api/nope", http.StatusNotFound, "application/json"},
		{"bad format", "/api/reports/export/docx", http.StatusNotFound, "application/json"},
		{"bad month", "/api/reports/buckets?month=0x", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(a, tt.target)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, w.Header().Get(customMiddleware.RequestIDHeader))
		})
	}
}

func TestRouter_RootRedirect(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	w := serve(a, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/apontamento", w.Header().Get("Location"))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	w := serve(a, "/apontamento")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "script-src 'none'")
}

func TestRouter_BucketsBody(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	w := serve(a, "/api/reports/buckets?group=plate_code&date=2024-07-02")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GroupBy string `json:"group_by"`
		Buckets []struct {
			Key string `json:"key"`
		} `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "plate_code", body.GroupBy)
	require.Len(t, body.Buckets, 2)
	assert.Equal(t, "CH-10", body.Buckets[0].Key)
	assert.Equal(t, "CH-20", body.Buckets[1].Key)
}

func TestRouter_SourceDown(t *testing.T) {
	a := newTestApp(t, failingSource{})

	w := serve(a, "/api/reports/buckets")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/source/unavailable")

	w = serve(a, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(a, "/apontamento")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestRouter_RateLimit(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig()
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	a, err := New(context.Background(), cfg, logger, source.NewMemorySource(testutil.SampleSheet()))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(a, "/api/health").Code)
	w := serve(a, "/api/health")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Scrapes are never limited
	assert.Equal(t, http.StatusOK, serve(a, "/metrics").Code)
}

func TestMetricsExposeRequests(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	serve(a, "/api/reports/export/csv")
	w := serve(a, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_requests")
	assert.Contains(t, body, "report_exports")
	assert.Contains(t, body, "go_goroutines")
}

func TestGetCORSConfig(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))
	assert.Equal(t, []string{"http://localhost:8080"}, a.getCORSConfig().AllowedOrigins)

	a.Config.Security.EnableCORS = false
	a.Config.Server.Port = 9090
	assert.Equal(t, []string{"http://localhost:9090"}, a.getCORSConfig().AllowedOrigins)
}

func TestIsDevelopmentMode(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))
	assert.False(t, a.isDevelopmentMode())

	a.Config.Telemetry.Environment = "development"
	assert.True(t, a.isDevelopmentMode())
}

func TestPerformStartupHealthCheck(t *testing.T) {
	ctx := context.Background()

	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))
	assert.NoError(t, a.performStartupHealthCheck(ctx))

	a = newTestApp(t, failingSource{})
	err := a.performStartupHealthCheck(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source not ready")

	noScrap := testutil.CuttingSheet([]string{"Data", "Código Chapa", "Peso"},
		[]string{"01/07/2024", "CH-10", "100"})
	a = newTestApp(t, source.NewMemorySource(noScrap))
	err = a.performStartupHealthCheck(ctx)
	require.Error(t, err)
	var missing *scrap.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Sucata", missing.Column)
}

func TestStartStop(t *testing.T) {
	a := newTestApp(t, source.NewMemorySource(testutil.SampleSheet()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, cancel, ln))

	resp, err := http.Get(fmt.Sprintf("http://%s/api/health", ln.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `"status":"ok"`))

	require.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, ctx.Err())

	_, err = http.Get(fmt.Sprintf("http://%s/api/health", ln.Addr()))
	assert.Error(t, err)
}

func TestBuildID(t *testing.T) {
	assert.Len(t, BuildID, 12)
	assert.NotEmpty(t, BuildTime)
}

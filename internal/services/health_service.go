package services

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"pcpsucata/internal/source"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	src       source.Source
	timeout   time.Duration
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual dependency health
type ServiceHealth struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Latency string                 `json:"latency,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// statsReporter is implemented by sources that keep counters worth
// reporting, such as the sheet cache.
type statsReporter interface {
	Stats() map[string]interface{}
}

// NewHealthService creates a health service probing src for readiness.
func NewHealthService(version, buildTime, buildID string, src source.Source, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		src:       src,
		timeout:   5 * time.Second,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready only when the sheet can be read.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]ServiceHealth{"source": hs.checkSource(ctx)},
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}
	return result
}

func (hs *HealthService) checkSource(ctx context.Context) ServiceHealth {
	if hs.src == nil {
		return ServiceHealth{Status: "not_ready", Message: ErrNoSource.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, hs.timeout)
	defer cancel()

	start := time.Now()
	grid, err := hs.src.Fetch(ctx)
	latency := time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		hs.logger.WarnContext(ctx, "source not ready",
			slog.String("source", hs.src.Name()),
			slog.String("error", err.Error()))
		return ServiceHealth{Status: "not_ready", Message: err.Error(), Latency: latency}
	}

	health := ServiceHealth{
		Status:  "ready",
		Message: hs.src.Name() + " source returned " + strconv.Itoa(len(grid)) + " rows",
		Latency: latency,
	}
	if sr, ok := hs.src.(statsReporter); ok {
		health.Details = map[string]interface{}{"cache": sr.Stats()}
	}
	return health
}

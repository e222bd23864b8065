package http

import (
	"context"

	"pcpsucata/internal/services"
)

// ReportServiceInterface defines the report operations the handlers need
type ReportServiceInterface interface {
	Query(ctx context.Context, q services.Query) (*services.Report, error)
	Daily(ctx context.Context, q services.DailyQuery) (*services.DailyView, error)
	Monthly(ctx context.Context, year int) (*services.MonthlyView, error)
	Plates(ctx context.Context) ([]string, error)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"pcpsucata/internal/scrap"
)

// SheetsConfig selects a spreadsheet tab and the credentials to read it.
// The tab is chosen by SheetName when set, otherwise by SheetIndex.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	SheetIndex      int
	CredentialsFile string
	CredentialsJSON string
	APIKey          string
	Endpoint        string
}

// SheetsSource reads a tab through the Google Sheets API v4.
type SheetsSource struct {
	svc    *sheets.Service
	cfg    SheetsConfig
	logger *slog.Logger
}

// NewSheetsSource creates a read-only Sheets client. Extra client options are
// appended after the ones derived from cfg.
func NewSheetsSource(ctx context.Context, cfg SheetsConfig, logger *slog.Logger, extra ...option.ClientOption) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets source: spreadsheet id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("sheets source: read credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(data))
	case len(extra) == 0:
		return nil, errors.New("sheets source: no credentials configured")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets source: create service: %w", err)
	}

	return &SheetsSource{
		svc:    svc,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "sheets_source")),
	}, nil
}

func (s *SheetsSource) Name() string { return "sheets" }

// Fetch reads every populated cell of the tab as formatted text.
func (s *SheetsSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	title, err := s.sheetTitle(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, quoteSheet(title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr(s.Name(), "get values", err)
	}

	grid := make(scrap.Grid, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}

	s.logger.DebugContext(ctx, "sheet fetched",
		slog.String("sheet", title),
		slog.Int("rows", len(grid)))
	return grid, nil
}

// sheetTitle resolves the configured tab. Lookup by position needs the
// spreadsheet metadata since the values API only accepts titles.
func (s *SheetsSource) sheetTitle(ctx context.Context) (string, error) {
	if s.cfg.SheetName != "" {
		return s.cfg.SheetName, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapErr(s.Name(), "get spreadsheet", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && int(sh.Properties.Index) == s.cfg.SheetIndex {
			return sh.Properties.Title, nil
		}
	}
	return "", sheetNotFound(s.Name(), "index %d of %d", s.cfg.SheetIndex, len(ss.Sheets))
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pcpsucata/internal/config"
	"pcpsucata/internal/infrastructure"
	custommw "pcpsucata/internal/middleware"
	"pcpsucata/internal/scrap"
	"pcpsucata/internal/services"
	"pcpsucata/internal/source"
)

// cli holds the state shared by every subcommand.
type cli struct {
	configFile string
	filePath   string
	verbose    bool

	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, errOut: errOut, now: time.Now}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "report",
		Short:         "Scrap reports from the cutting sheet",
		Long:          config.AppName + " command line: summaries, month listings and file exports of the cutting sheet.",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configFile, "config", "c", "", "config file (default: SUCATA_CONFIG, config.yaml or configs/config.yaml)")
	pf.StringVarP(&c.filePath, "file", "f", "", "read a local .xlsx or .csv export instead of the configured source")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newSummaryCmd(c), newMonthsCmd(c), newExportCmd(c))
	return root
}

// filterFlags are the report filters shared by summary and export.
type filterFlags struct {
	Group  string `form:"group" validate:"omitempty,oneof=day plate_code date"`
	Metric string `form:"metric" validate:"omitempty,oneof=auto loss scrap"`
	Month  int    `form:"month" validate:"omitempty,min=1,max=12"`
	Year   int    `form:"year" validate:"omitempty,min=1900,max=9999"`
	Start  string `form:"start" validate:"omitempty,isodate"`
	End    string `form:"end" validate:"omitempty,isodate"`
	Date   string `form:"date" validate:"omitempty,isodate"`
	Plate  string `form:"plate" validate:"omitempty,max=64"`
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.Group, "group", "g", string(scrap.GroupByDay), "group by day, plate_code or date")
	fs.StringVar(&f.Metric, "metric", string(services.MetricAuto), "auto, loss or scrap")
	fs.IntVarP(&f.Month, "month", "m", 0, "month 1-12")
	fs.IntVarP(&f.Year, "year", "y", 0, "year, with --month or alone")
	fs.StringVar(&f.Start, "start", "", "first date, YYYY-MM-DD")
	fs.StringVar(&f.End, "end", "", "last date, YYYY-MM-DD")
	fs.StringVarP(&f.Date, "date", "d", "", "single date, YYYY-MM-DD")
	fs.StringVarP(&f.Plate, "plate", "p", "", "plate code")
}

func (f *filterFlags) query() services.Query {
	return services.Query{
		GroupBy: scrap.GroupKey(f.Group),
		Metric:  services.Metric(f.Metric),
		Month:   f.Month,
		Year:    f.Year,
		Start:   custommw.ParseISODate(f.Start),
		End:     custommw.ParseISODate(f.End),
		Date:    custommw.ParseISODate(f.Date),
		Plate:   f.Plate,
	}
}

// reportService loads the configuration and builds a report service over
// the configured source, or over --file when given.
func (c *cli) reportService(ctx context.Context) (*services.ReportService, *slog.Logger, error) {
	var overrides []func(*config.Config)
	if c.filePath != "" {
		kind, err := kindForFile(c.filePath)
		if err != nil {
			return nil, nil, err
		}
		overrides = append(overrides, func(cfg *config.Config) {
			cfg.Source.Kind = kind
			cfg.Source.FilePath = c.filePath
		})
	}
	if c.verbose {
		overrides = append(overrides, func(cfg *config.Config) { cfg.Logging.Level = "debug" })
	}

	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFrom(c.configFile, overrides...)
	} else {
		cfg, err = config.Load(overrides...)
	}
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if !c.verbose {
		level = "warn"
	}
	logger := infrastructure.NewLogger(c.errOut, config.LoggingConfig{Level: level, Format: "text"})

	src, err := source.New(ctx, cfg.Source, logger)
	if err != nil {
		return nil, nil, err
	}

	svc := services.NewReportService(src, services.ReportOptionsFromConfig(cfg), logger)
	svc.SetClock(c.now)
	return svc, logger, nil
}

func kindForFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return config.SourceXLSX, nil
	case ".csv", ".txt":
		return config.SourceCSV, nil
	}
	return "", fmt.Errorf("cannot tell the format of %s: expected .xlsx or .csv", path)
}

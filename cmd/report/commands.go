package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"pcpsucata/internal/config"
	apierrors "pcpsucata/internal/errors"
	"pcpsucata/internal/exporter"
	custommw "pcpsucata/internal/middleware"
	"pcpsucata/internal/services"
)

const reportTitle = config.PageDaily

func newSummaryCmd(c *cli) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print aggregated scrap and loss for a period",
		Example: `  report summary --month 7 --year 2024
  report summary --group plate_code --date 2024-07-02
  report summary -f corte.xlsx --start 2024-07-01 --end 2024-07-15 --group date`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, logger, err := c.reportService(cmd.Context())
			if err != nil {
				return err
			}
			if err := validateFlags(custommw.NewQueryParamValidator(logger), &f); err != nil {
				return err
			}

			q := f.query()
			report, err := svc.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), exporter.NewDocument(report, reportTitle, exporter.DescribePeriod(q)), report.Empty)
		},
	}
	f.register(cmd)
	return cmd
}

func newMonthsCmd(c *cli) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "months",
		Short: "List the months in the sheet with their totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year < 0 {
				return fmt.Errorf("invalid --year %d", year)
			}
			svc, _, err := c.reportService(cmd.Context())
			if err != nil {
				return err
			}

			view, err := svc.Monthly(cmd.Context(), year)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if view.Empty {
				fmt.Fprintln(out, exporter.NoData)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			header := []string{"Mês", "Dias", "Sucata"}
			if view.Metric == services.MetricLoss {
				header = append(header, "Perda")
			}
			header = append(header, "Aproveitamento")
			fmt.Fprintln(tw, strings.Join(header, "\t"))

			for _, m := range view.Months {
				row := []string{exporter.FormatMonth(m.Month), fmt.Sprint(len(m.Days)), exporter.FormatKg(m.Summary.TotalScrap)}
				if view.Metric == services.MetricLoss {
					row = append(row, exporter.FormatPct(m.Summary.PeriodLossPct))
				}
				row = append(row, exporter.FormatPct(m.MeanYieldPct))
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "only months of this year")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		f      filterFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a report to a csv, xlsx or pdf file",
		Example: `  report export --format xlsx --month 7 --year 2024
  report export --format pdf --group plate_code --date 2024-07-02 --out relatorios/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtValue, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, logger, err := c.reportService(cmd.Context())
			if err != nil {
				return err
			}
			if err := validateFlags(custommw.NewQueryParamValidator(logger), &f); err != nil {
				return err
			}

			q := f.query()
			report, err := svc.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			doc := exporter.NewDocument(report, reportTitle, exporter.DescribePeriod(q))

			path := out
			if path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
				path = filepath.Join(path, doc.Filename(fmtValue))
			}
			if err := exporter.WriteFile(path, fmtValue, doc); err != nil {
				return err
			}

			logger.Info("report exported", "path", path, "format", string(fmtValue))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(exporter.FormatXLSX), "csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or a directory ending in / (default: current directory)")
	return cmd
}

// validateFlags runs the same rules the HTTP API applies to query parameters.
func validateFlags(v *custommw.QueryParamValidator, f *filterFlags) error {
	err := v.ValidateStruct(f)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range apierrors.FromValidator(fieldErrs) {
		msgs = append(msgs, "--"+fe.Field+": "+fe.Message)
	}
	return fmt.Errorf("invalid flags: %s", strings.Join(msgs, "; "))
}

// printDocument renders doc as an aligned text table followed by its summary.
func printDocument(w io.Writer, doc exporter.Document, empty bool) error {
	fmt.Fprintf(w, "%s - %s\n\n", doc.Title, doc.Period)
	if empty {
		fmt.Fprintln(w, exporter.EmptyMessage)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(doc.Header(), "\t"))
	for _, rec := range doc.Records() {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	fmt.Fprintln(tw)
	for _, line := range doc.SummaryLines() {
		fmt.Fprintln(tw, line[0]+":\t"+line[1])
	}
	return tw.Flush()
}

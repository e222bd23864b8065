package exporter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pcpsucata/internal/scrap"
	"pcpsucata/internal/services"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnsupportedFormat is returned for a format with no writer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatPDF}
}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Document is a report laid out as a titled table with a summary.
type Document struct {
	Title        string
	Period       string
	GroupBy      scrap.GroupKey
	Metric       services.Metric
	Buckets      []scrap.Bucket
	Summary      scrap.Summary
	MeanYieldPct scrap.NullFloat
	GeneratedAt  time.Time
}

// NewDocument lays out r under title. period describes the filter in words
// and may be empty.
func NewDocument(r *services.Report, title, period string) Document {
	return Document{
		Title:        title,
		Period:       period,
		GroupBy:      r.GroupBy,
		Metric:       r.Metric,
		Buckets:      r.Buckets,
		Summary:      r.Summary,
		MeanYieldPct: r.MeanYieldPct,
		GeneratedAt:  r.GeneratedAt,
	}
}

// Filename suggests a download name such as "apontamento-sucata-julho-2024.csv".
func (d Document) Filename(f Format) string {
	name := slug(d.Title + " " + d.Period)
	if name == "" {
		name = "relatorio-sucata"
	}
	return name + "." + string(f)
}

func (d Document) withWeight() bool {
	return d.Metric != services.MetricScrap
}

// Header returns the table column titles.
func (d Document) Header() []string {
	header := []string{keyTitle(d.GroupBy), "Sucata (kg)"}
	if d.withWeight() {
		header = append(header, "Peso (kg)", "Perda (%)")
	}
	return append(header, "Registros")
}

// Label is the display text of a bucket key.
func (d Document) Label(b scrap.Bucket) string {
	switch d.GroupBy {
	case scrap.GroupByDate:
		return FormatDate(b.Date)
	case scrap.GroupByPlate:
		if b.Key == "" {
			return "(sem código)"
		}
	}
	return b.Key
}

// Records returns the table body as formatted text.
func (d Document) Records() [][]string {
	records := make([][]string, 0, len(d.Buckets))
	for _, b := range d.Buckets {
		rec := []string{d.Label(b), FormatDecimal(b.ScrapSum)}
		if d.withWeight() {
			rec = append(rec, FormatDecimal(b.WeightSum), pctCell(b.LossPct))
		}
		records = append(records, append(rec, strconv.Itoa(b.Rows)))
	}
	return records
}

// SummaryLines returns label/value pairs for the headline metrics.
func (d Document) SummaryLines() [][2]string {
	lines := [][2]string{{"Total de sucata", FormatKg(d.Summary.TotalScrap)}}
	if d.withWeight() {
		lines = append(lines,
			[2]string{"Peso total", FormatKg(d.Summary.TotalWeight)},
			[2]string{"Perda no período", FormatPct(d.Summary.PeriodLossPct)})
	}
	return append(lines, [2]string{"Média de aproveitamento", FormatPct(d.MeanYieldPct)})
}

func pctCell(n scrap.NullFloat) string {
	if !n.Valid {
		return NoData
	}
	return FormatDecimal(n.Float64)
}

func keyTitle(k scrap.GroupKey) string {
	switch k {
	case scrap.GroupByPlate:
		return "Código Chapa"
	case scrap.GroupByDate:
		return "Data"
	}
	return "Dia"
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	case FormatPDF:
		return WritePDF(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// DescribePeriod summarizes the filters of q in words, e.g.
// "Julho/2024 - chapa CH-10". No filters gives "Todo o período".
func DescribePeriod(q services.Query) string {
	var parts []string
	switch {
	case q.Month > 0 && q.Year > 0:
		parts = append(parts, FormatMonth(scrap.YearMonth{Year: q.Year, Month: time.Month(q.Month)}))
	case q.Month > 0:
		parts = append(parts, MonthName(time.Month(q.Month)))
	case q.Year > 0:
		parts = append(parts, strconv.Itoa(q.Year))
	}

	switch {
	case !q.Start.IsZero() && !q.End.IsZero():
		parts = append(parts, FormatDate(q.Start)+" a "+FormatDate(q.End))
	case !q.Start.IsZero():
		parts = append(parts, "a partir de "+FormatDate(q.Start))
	case !q.End.IsZero():
		parts = append(parts, "até "+FormatDate(q.End))
	}

	if !q.Date.IsZero() {
		parts = append(parts, FormatDate(q.Date))
	}
	if q.Plate != "" {
		parts = append(parts, "chapa "+q.Plate)
	}

	if len(parts) == 0 {
		return "Todo o período"
	}
	return strings.Join(parts, " - ")
}

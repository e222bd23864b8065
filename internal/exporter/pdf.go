package exporter

import (
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	pdfGray   = &props.Color{Red: 110, Green: 110, Blue: 110}
	pdfAccent = &props.Color{Red: 178, Green: 34, Blue: 34}
	pdfStripe = &props.Color{Red: 245, Green: 245, Blue: 245}
)

// WritePDF writes doc as an A4 portrait report.
func WritePDF(w io.Writer, doc Document) error {
	data, err := GeneratePDF(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// GeneratePDF renders doc and returns the PDF bytes.
func GeneratePDF(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   pdfGray,
		}).
		Build()

	m := maroto.New(cfg)

	addPDFHeader(m, doc)
	widths := pdfWidths(doc)
	addPDFTableHeader(m, doc, widths)
	if len(doc.Buckets) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New(EmptyMessage, props.Text{Size: 9, Align: align.Center, Color: pdfGray}),
		)))
	}
	for i, rec := range doc.Records() {
		addPDFTableRow(m, rec, widths, i%2 == 1)
	}
	addPDFSummary(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return out.GetBytes(), nil
}

func addPDFHeader(m core.Maroto, doc Document) {
	m.AddRows(row.New(12).Add(
		col.New(12).Add(text.New(doc.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
			Color: pdfAccent,
		})),
	))

	generated := ""
	if !doc.GeneratedAt.IsZero() {
		generated = "Gerado em " + doc.GeneratedAt.Format("02/01/2006 15:04")
	}
	m.AddRows(row.New(8).Add(
		col.New(6).Add(text.New(doc.Period, props.Text{Size: 9, Align: align.Left, Color: pdfGray})),
		col.New(6).Add(text.New(generated, props.Text{Size: 9, Align: align.Right, Color: pdfGray})),
	))
	m.AddRows(row.New(4))
}

// pdfWidths spreads the table columns over maroto's 12-unit grid.
func pdfWidths(doc Document) []int {
	if doc.withWeight() {
		return []int{3, 2, 3, 2, 2}
	}
	return []int{4, 5, 3}
}

func addPDFTableHeader(m core.Maroto, doc Document, widths []int) {
	style := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	cell := &props.Cell{BackgroundColor: pdfAccent}

	cols := make([]core.Col, 0, len(widths))
	for i, title := range doc.Header() {
		cols = append(cols, col.New(widths[i]).Add(text.New(title, style)).WithStyle(cell))
	}
	m.AddRows(row.New(8).Add(cols...))
}

func addPDFTableRow(m core.Maroto, rec []string, widths []int, striped bool) {
	left := props.Text{Size: 8, Align: align.Left}
	right := props.Text{Size: 8, Align: align.Right}

	cols := make([]core.Col, 0, len(widths))
	for i, value := range rec {
		style := right
		if i == 0 {
			style = left
		}
		c := col.New(widths[i]).Add(text.New(value, style))
		if striped {
			c = c.WithStyle(&props.Cell{BackgroundColor: pdfStripe})
		}
		cols = append(cols, c)
	}
	m.AddRows(row.New(6).Add(cols...))
}

func addPDFSummary(m core.Maroto, doc Document) {
	m.AddRows(row.New(6))

	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	for _, line := range doc.SummaryLines() {
		m.AddRows(row.New(7).Add(
			col.New(8).Add(text.New(line[0], label)),
			col.New(4).Add(text.New(line[1], value)),
		))
	}
}

package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pcpsucata/internal/scrap"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Sucata"

const (
	xlsxHeaderRow = 4
	numFmtDecimal = 4 // #,##0.00
)

// WriteXLSX writes doc as a single-sheet workbook. Weights and percentages
// are stored as numbers; a null loss leaves its cell empty.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	header := doc.Header()
	lastCol, _ := excelize.ColumnNumberToName(len(header))

	if err := f.SetCellValue(SheetName, "A1", doc.Title); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	if err := f.MergeCell(SheetName, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", styles.title); err != nil {
		return fmt.Errorf("style title: %w", err)
	}
	subtitle := doc.Period
	if !doc.GeneratedAt.IsZero() {
		subtitle = fmt.Sprintf("%s  Gerado em %s", subtitle, doc.GeneratedAt.Format("02/01/2006 15:04"))
	}
	if err := f.SetCellValue(SheetName, "A2", subtitle); err != nil {
		return fmt.Errorf("write subtitle: %w", err)
	}

	for i, title := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, xlsxHeaderRow)
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A4", fmt.Sprintf("%s%d", lastCol, xlsxHeaderRow), styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := xlsxHeaderRow + 1
	for _, b := range doc.Buckets {
		values := []any{doc.Label(b), b.ScrapSum}
		if doc.withWeight() {
			values = append(values, b.WeightSum, nullCell(b.LossPct))
		}
		values = append(values, b.Rows)

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}
	if len(doc.Buckets) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header)-1, row-1)
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("B%d", xlsxHeaderRow+1), last, styles.number); err != nil {
			return fmt.Errorf("style body: %w", err)
		}
	} else {
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), EmptyMessage); err != nil {
			return fmt.Errorf("write empty note: %w", err)
		}
		row++
	}

	row++
	for _, line := range doc.SummaryLines() {
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &[]string{line[0], line[1]}); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), styles.label); err != nil {
			return fmt.Errorf("style summary: %w", err)
		}
		row++
	}

	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", lastCol, 16); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type xlsxStyles struct {
	title, header, number, label int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#B22222"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	if s.number, err = f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal}); err != nil {
		return s, fmt.Errorf("create number style: %w", err)
	}

	if s.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	}); err != nil {
		return s, fmt.Errorf("create label style: %w", err)
	}
	return s, nil
}

func nullCell(n scrap.NullFloat) any {
	if !n.Valid {
		return nil
	}
	return n.Float64
}

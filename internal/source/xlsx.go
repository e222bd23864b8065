package source

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pcpsucata/internal/scrap"
)

// CellFormat is the text convention typed workbook cells are written in
// before parsing, so that they read like the cells of the live sheet.
type CellFormat struct {
	// Decimal separator for numeric cells. Empty means ".".
	Decimal string
	// DateLayout for date-formatted cells. Empty means scrap.DefaultDateLayout.
	DateLayout string
}

// XLSXSource reads a workbook exported from the cutting sheet. Text cells
// are returned as typed. Numeric cells are read raw and rendered with the
// configured CellFormat, dates included.
type XLSXSource struct {
	path       string
	sheetName  string
	sheetIndex int
	format     CellFormat
}

// NewXLSXSource reads sheetName from the workbook at path, or the sheet at
// sheetIndex when sheetName is empty.
func NewXLSXSource(path, sheetName string, sheetIndex int, format CellFormat) *XLSXSource {
	if format.Decimal == "" {
		format.Decimal = "."
	}
	if format.DateLayout == "" {
		format.DateLayout = scrap.DefaultDateLayout
	}
	return &XLSXSource{path: path, sheetName: sheetName, sheetIndex: sheetIndex, format: format}
}

func (s *XLSXSource) Name() string { return "xlsx" }

func (s *XLSXSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(s.Name(), "open", err)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, wrapErr(s.Name(), "open", err)
	}
	defer f.Close()

	name := s.sheetName
	if name == "" {
		name = f.GetSheetName(s.sheetIndex)
		if name == "" {
			return nil, sheetNotFound(s.Name(), "index %d of %d", s.sheetIndex, f.SheetCount)
		}
	} else if idx, _ := f.GetSheetIndex(name); idx < 0 {
		return nil, sheetNotFound(s.Name(), "%q", name)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, wrapErr(s.Name(), "read rows", err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	for i, row := range rows {
		for j, raw := range row {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			row[j] = s.cellText(f, name, cell, raw, date1904)
		}
	}
	return scrap.Grid(rows), nil
}

// cellText renders a raw cell value. Only numeric and date cells change;
// text and formula-string cells keep their content.
func (s *XLSXSource) cellText(f *excelize.File, sheet, cell, raw string, date1904 bool) string {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeDate:
		t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(raw, "Z"))
		if err != nil {
			return raw
		}
		return t.Format(s.format.DateLayout)
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
	default:
		return raw
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if isDateCell(f, sheet, cell) {
		t, err := excelize.ExcelDateToTime(v, date1904)
		if err != nil {
			return raw
		}
		return t.Format(s.format.DateLayout)
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", s.format.Decimal, 1)
}

// isDateCell reports whether the cell's number format shows a date.
func isDateCell(f *excelize.File, sheet, cell string) bool {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22, style.NumFmt >= 45 && style.NumFmt <= 47:
		return true
	case style.CustomNumFmt != nil:
		return isDateFormat(*style.CustomNumFmt)
	}
	return false
}

// isDateFormat looks for day or year tokens outside quoted text and
// bracketed sections such as colors or locales.
func isDateFormat(format string) bool {
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		case r == 'd' || r == 'y':
			return true
		}
	}
	return false
}

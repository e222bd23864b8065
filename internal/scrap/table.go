package scrap

import (
	"fmt"
	"strings"
)

// Grid is the raw cell matrix of a sheet, top row first.
type Grid [][]string

// Table is a grid split into a header and data records.
type Table struct {
	Header  []string
	Records [][]string
}

// Column identifies one of the fields a Row is built from.
type Column int

const (
	ColumnDate Column = iota
	ColumnPlate
	ColumnScrap
	ColumnWeight
	ColumnYield
)

// Schema holds the header names of each column.
type Schema struct {
	Date      string
	PlateCode string
	Scrap     string
	Weight    string
	Yield     string
}

// DefaultSchema returns the column names used by the cutting sheet.
func DefaultSchema() Schema {
	return Schema{
		Date:      "Data",
		PlateCode: "Código Chapa",
		Scrap:     "Sucata",
		Weight:    "Peso",
		Yield:     "Aprov.",
	}
}

// Name returns the header name configured for c.
func (s Schema) Name(c Column) string {
	switch c {
	case ColumnDate:
		return s.Date
	case ColumnPlate:
		return s.PlateCode
	case ColumnScrap:
		return s.Scrap
	case ColumnWeight:
		return s.Weight
	case ColumnYield:
		return s.Yield
	}
	return ""
}

// TableFromGrid takes the header from headerRow and data from dataStartRow
// onwards. Both are zero-based. Fully blank records are dropped.
func TableFromGrid(grid Grid, headerRow, dataStartRow int) (*Table, error) {
	if headerRow < 0 || headerRow >= len(grid) {
		return nil, fmt.Errorf("%w: row %d, sheet has %d rows", ErrHeaderNotFound, headerRow, len(grid))
	}
	if dataStartRow <= headerRow {
		dataStartRow = headerRow + 1
	}

	t := &Table{Header: grid[headerRow]}
	for i := dataStartRow; i < len(grid); i++ {
		if isBlank(grid[i]) {
			continue
		}
		t.Records = append(t.Records, grid[i])
	}
	return t, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Dataset is the parsed content of a sheet.
type Dataset struct {
	Rows    []Row
	schema  Schema
	header  []string
	columns map[Column]bool
}

// Has reports whether the sheet header contained column c.
func (d *Dataset) Has(c Column) bool {
	return d.columns[c]
}

// Require returns a *MissingColumnError for the first absent column.
func (d *Dataset) Require(cols ...Column) error {
	for _, c := range cols {
		if !d.Has(c) {
			return &MissingColumnError{Column: d.schema.Name(c), Header: d.header}
		}
	}
	return nil
}

// ParseTable converts a table into rows. Date, plate code and scrap columns
// must exist; weight and yield are optional and checked by Dataset.Require.
func ParseTable(t *Table, schema Schema, format NumberFormat, dateLayout string) (*Dataset, error) {
	index := make(map[Column]int)
	for _, c := range []Column{ColumnDate, ColumnPlate, ColumnScrap, ColumnWeight, ColumnYield} {
		if i, ok := findColumn(t.Header, schema.Name(c)); ok {
			index[c] = i
		}
	}
	for _, c := range []Column{ColumnDate, ColumnPlate, ColumnScrap} {
		if _, ok := index[c]; !ok {
			return nil, &MissingColumnError{Column: schema.Name(c), Header: t.Header}
		}
	}

	ds := &Dataset{
		Rows:    make([]Row, 0, len(t.Records)),
		schema:  schema,
		header:  t.Header,
		columns: make(map[Column]bool, len(index)),
	}
	for c := range index {
		ds.columns[c] = true
	}

	cell := func(record []string, c Column) string {
		i, ok := index[c]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	for _, record := range t.Records {
		date, _ := ParseDate(cell(record, ColumnDate), dateLayout)
		ds.Rows = append(ds.Rows, Row{
			Date:        date,
			PlateCode:   strings.TrimSpace(cell(record, ColumnPlate)),
			ScrapWeight: ParseNullFloat(cell(record, ColumnScrap), format),
			TotalWeight: ParseNullFloat(cell(record, ColumnWeight), format),
			YieldRatio:  ParseNullFloat(cell(record, ColumnYield), format),
		})
	}
	return ds, nil
}

// findColumn looks for an exact (trimmed) match first, then a case-insensitive one.
func findColumn(header []string, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, true
		}
	}
	return 0, false
}

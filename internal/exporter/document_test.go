package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcpsucata/internal/scrap"
	"pcpsucata/internal/services"
)

func julyReport() *services.Report {
	buckets := []scrap.Bucket{
		{Key: "1", Day: 1, ScrapSum: 20, WeightSum: 400, LossPct: scrap.Float(5), Rows: 2},
		{Key: "2", Day: 2, ScrapSum: 50, WeightSum: 550, LossPct: scrap.Float(50.0 / 550.0 * 100), Rows: 2},
	}
	return &services.Report{
		GroupBy:      scrap.GroupByDay,
		Metric:       services.MetricLoss,
		Buckets:      buckets,
		Summary:      scrap.Summarize(buckets),
		MeanYieldPct: scrap.Float(96.4),
		GeneratedAt:  time.Date(2024, 7, 2, 14, 30, 0, 0, time.UTC),
	}
}

func julyDocument() Document {
	return NewDocument(julyReport(), "Apontamento Sucata", "Julho/2024")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "XLSX", want: FormatXLSX},
		{in: " pdf ", want: FormatPDF},
		{in: "docx", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestDocument_Table(t *testing.T) {
	doc := julyDocument()

	assert.Equal(t, []string{"Dia", "Sucata (kg)", "Peso (kg)", "Perda (%)", "Registros"}, doc.Header())
	assert.Equal(t, [][]string{
		{"1", "20,00", "400,00", "5,00", "2"},
		{"2", "50,00", "550,00", "9,09", "2"},
	}, doc.Records())
	assert.Equal(t, [][2]string{
		{"Total de sucata", "70,00 kg"},
		{"Peso total", "950,00 kg"},
		{"Perda no período", "7,37%"},
		{"Média de aproveitamento", "96,40%"},
	}, doc.SummaryLines())
	assert.Equal(t, "apontamento-sucata-julho-2024.csv", doc.Filename(FormatCSV))
}

func TestDocument_ScrapOnly(t *testing.T) {
	r := julyReport()
	r.Metric = services.MetricScrap
	r.GroupBy = scrap.GroupByPlate
	r.Buckets = []scrap.Bucket{{Key: "CH-10", ScrapSum: 12.5, Rows: 1}, {Key: "", ScrapSum: 1, Rows: 1}}
	r.Summary = scrap.Summarize(r.Buckets)
	doc := NewDocument(r, "Sucata por chapa", "")

	assert.Equal(t, []string{"Código Chapa", "Sucata (kg)", "Registros"}, doc.Header())
	assert.Equal(t, []string{"CH-10", "12,50", "1"}, doc.Records()[0])
	assert.Equal(t, "(sem código)", doc.Records()[1][0])
	for _, line := range doc.SummaryLines() {
		assert.NotEqual(t, "Perda no período", line[0])
	}
}

func TestDocument_DateLabels(t *testing.T) {
	r := julyReport()
	r.GroupBy = scrap.GroupByDate
	r.Buckets = []scrap.Bucket{{Key: "2024-07-01", Day: 1, Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), ScrapSum: 1, WeightSum: 0, Rows: 1}}
	doc := NewDocument(r, "x", "")

	assert.Equal(t, "Data", doc.Header()[0])
	assert.Equal(t, []string{"01/07/2024", "1,00", "0,00", NoData, "1"}, doc.Records()[0])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, julyDocument()))

	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):]))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 7)
	assert.Equal(t, "Dia", records[0][0])
	assert.Equal(t, []string{"1", "20,00", "400,00", "5,00", "2"}, records[1])
	assert.Equal(t, []string{"Total de sucata", "70,00 kg"}, records[3])
	assert.Equal(t, []string{"Média de aproveitamento", "96,40%"}, records[6])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, julyDocument()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	cell := func(ref string) string {
		v, err := f.GetCellValue(SheetName, ref, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Apontamento Sucata", cell("A1"))
	assert.True(t, strings.HasPrefix(cell("A2"), "Julho/2024"))
	assert.Equal(t, "Dia", cell("A4"))
	assert.Equal(t, "Perda (%)", cell("D4"))
	assert.Equal(t, "1", cell("A5"))
	assert.Equal(t, "20", cell("B5"))
	assert.Equal(t, "550", cell("C6"))
	assert.Equal(t, "5", cell("D5"))
	assert.Equal(t, "Total de sucata", cell("A8"))
	assert.Equal(t, "70,00 kg", cell("B8"))
}

func TestWriteXLSX_NullLossAndEmpty(t *testing.T) {
	r := julyReport()
	r.Buckets = []scrap.Bucket{{Key: "3", Day: 3, ScrapSum: 2, Rows: 1}}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, NewDocument(r, "t", "")))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	loss, err := f.GetCellValue(SheetName, "D5")
	require.NoError(t, err)
	assert.Empty(t, loss, "null loss is left blank, not zero")

	r.Buckets = []scrap.Bucket{}
	buf.Reset()
	require.NoError(t, WriteXLSX(&buf, NewDocument(r, "t", "")))
	f2, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f2.Close()
	note, err := f2.GetCellValue(SheetName, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Sem dados para o período selecionado", note)
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{name: "loss report", doc: julyDocument()},
		{name: "empty report", doc: Document{Title: "Acompanhamento Sucata", Buckets: []scrap.Bucket{}}},
		{name: "scrap only", doc: Document{Title: "Sucata", Metric: services.MetricScrap, Buckets: julyReport().Buckets}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePDF(&buf, tt.doc))
			require.Greater(t, buf.Len(), 5)
			assert.Equal(t, "%PDF-", buf.String()[:5])
		})
	}
}

func TestWrite(t *testing.T) {
	for _, f := range Formats() {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, julyDocument()), f)
		assert.NotZero(t, buf.Len(), f)
	}

	err := Write(&bytes.Buffer{}, Format("docx"), julyDocument())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "july.csv")

	require.NoError(t, WriteFile(path, FormatCSV, julyDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "Sucata (kg)")
}

func TestDescribePeriod(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		q    services.Query
		want string
	}{
		{name: "nothing", q: services.Query{}, want: "Todo o período"},
		{name: "month and year", q: services.Query{Month: 7, Year: 2024}, want: "Julho/2024"},
		{name: "month only", q: services.Query{Month: 3}, want: "Março"},
		{name: "year only", q: services.Query{Year: 2024}, want: "2024"},
		{name: "range", q: services.Query{Start: day(1), End: day(15)}, want: "01/07/2024 a 15/07/2024"},
		{name: "open start", q: services.Query{Start: day(1)}, want: "a partir de 01/07/2024"},
		{name: "open end", q: services.Query{End: day(15)}, want: "até 15/07/2024"},
		{name: "date and plate", q: services.Query{Date: day(2), Plate: "CH-10"}, want: "02/07/2024 - chapa CH-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribePeriod(tt.q))
		})
	}
}

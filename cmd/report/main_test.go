package main

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

	"pcpsucata/internal/shared/testutil"
)

// writeSheetCSV saves the sample sheet as a ';' export. Blank rows keep one
// separator so the header stays on row index 4.
func writeSheetCSV(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	for _, row := range testutil.SampleSheet() {
		if len(row) == 0 {
			row = []string{"", ""}
		}
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())

	path := filepath.Join(t.TempDir(), "corte.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(&out, &errOut)
	c.now = func() time.Time { return time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC) }

	// An empty config file keeps a local config.yaml or SUCATA_CONFIG out of the run.
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, nil, 0644))

	cmd := newRootCmd(c)
	cmd.SetArgs(append(args, "--config", cfgFile))
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	sheet := writeSheetCSV(t)

	t.Run("month by day", func(t *testing.T) {
		out, err := run(t, "summary", "-f", sheet, "--month", "7", "--year", "2024")
		require.NoError(t, err)
		assert.Contains(t, out, "Apontamento Sucata - Julho/2024")
		assert.Contains(t, out, "Sucata (kg)")
		assert.Contains(t, out, "5,00%")
		assert.Contains(t, out, "Total de sucata:")
		assert.Contains(t, out, "70,00 kg")
	})

	t.Run("plates on a date", func(t *testing.T) {
		out, err := run(t, "summary", "-f", sheet, "--group", "plate_code", "--date", "2024-07-02")
		require.NoError(t, err)
		assert.Contains(t, out, "02/07/2024")
		assert.Contains(t, out, "Código Chapa")
		assert.Contains(t, out, "CH-10")
		assert.Contains(t, out, "CH-20")
	})

	t.Run("empty period", func(t *testing.T) {
		out, err := run(t, "summary", "-f", sheet, "--month", "3", "--year", "2024")
		require.NoError(t, err)
		assert.Contains(t, out, "Sem dados para o período selecionado")
	})

	t.Run("invalid flags", func(t *testing.T) {
		_, err := run(t, "summary", "-f", sheet, "--month", "13", "--start", "01/07/2024")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--month")
		assert.Contains(t, err.Error(), "--start")
	})
}

func TestMonths(t *testing.T) {
	sheet := writeSheetCSV(t)

	out, err := run(t, "months", "-f", sheet)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Perda")
	assert.Contains(t, lines[1], "Junho/2024")
	assert.Contains(t, lines[2], "Julho/2024")

	out, err = run(t, "months", "-f", sheet, "--year", "2023")
	require.NoError(t, err)
	assert.Equal(t, "sem dados\n", out)
}

func TestExport(t *testing.T) {
	sheet := writeSheetCSV(t)
	dir := t.TempDir()

	out, err := run(t, "export", "-f", sheet, "--format", "csv", "--month", "7", "--year", "2024", "--out", dir+"/")
	require.NoError(t, err)

	want := filepath.Join(dir, "apontamento-sucata-julho-2024.csv")
	assert.Equal(t, want+"\n", out)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total de sucata;70,00 kg")

	explicit := filepath.Join(dir, "nested", "julho.pdf")
	_, err = run(t, "export", "-f", sheet, "--format", "pdf", "--month", "7", "--year", "2024", "-o", explicit)
	require.NoError(t, err)
	data, err = os.ReadFile(explicit)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExport_Errors(t *testing.T) {
	sheet := writeSheetCSV(t)

	_, err := run(t, "export", "-f", sheet, "--format", "docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")

	_, err = run(t, "summary", "-f", filepath.Join(t.TempDir(), "corte.ods"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot tell the format")

	_, err = run(t, "summary", "-f", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestKindForFile(t *testing.T) {
	kind, err := kindForFile("Corte.XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", kind)

	kind, err = kindForFile("corte.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", kind)
}

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes doc as ';'-separated text with a UTF-8 BOM so Excel in a
// pt-BR locale opens it with the right columns and accents. The summary
// follows the table after a blank line.
func WriteCSV(w io.Writer, doc Document) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(doc.Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range doc.Records() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	// encoding/csv writes an empty record as an empty line
	if err := writer.Write([]string{""}); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}
	for _, line := range doc.SummaryLines() {
		if err := writer.Write(line[:]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes doc to path in format f, creating parent directories.
func WriteFile(path string, f Format, doc Document) error {
	slog.Info("Writing report file",
		slog.String("file_path", path),
		slog.String("format", string(f)),
		slog.Int("record_count", len(doc.Buckets)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, f, doc); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

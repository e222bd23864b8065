package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"pcpsucata/internal/scrap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads a delimited export of the cutting sheet.
type CSVSource struct {
	path      string
	delimiter rune
	decoder   *encoding.Decoder
}

// NewCSVSource returns a source for the file at path. The delimiter is the
// first character of delimiter ("tab" means a tab); encoding is "utf-8",
// "iso-8859-1"/"latin1" or "windows-1252".
func NewCSVSource(path, delimiter, enc string) (*CSVSource, error) {
	comma, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}

	s := &CSVSource{path: path, delimiter: comma}
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
	case "iso-8859-1", "latin1", "latin-1":
		s.decoder = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		s.decoder = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("csv source: unsupported encoding %q", enc)
	}
	return s, nil
}

func parseDelimiter(d string) (rune, error) {
	switch d {
	case "":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, _ := utf8.DecodeRuneInString(d)
	if r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("csv source: invalid delimiter %q", d)
	}
	return r, nil
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(s.Name(), "open", err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, wrapErr(s.Name(), "open", err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.decoder != nil {
		r = transform.NewReader(f, s.decoder)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = s.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, wrapErr(s.Name(), "read", err)
	}
	return scrap.Grid(records), nil
}

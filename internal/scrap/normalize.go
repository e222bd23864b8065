package scrap

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout reads dd/mm/yyyy with or without leading zeros.
const DefaultDateLayout = "2/1/2006"

// NumberFormat describes the separators used in sheet cells.
type NumberFormat struct {
	Decimal   string `json:"decimal"`
	Thousands string `json:"thousands"`
}

// DefaultNumberFormat is the Brazilian convention: "1.234,56".
func DefaultNumberFormat() NumberFormat {
	return NumberFormat{Decimal: ",", Thousands: "."}
}

// ParseDecimal converts a locale-formatted cell to a float64.
// The second result is false for empty, malformed, NaN or infinite input.
func ParseDecimal(raw string, f NumberFormat) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	// Thousands first so "1.234,56" never sees a second decimal point.
	if f.Thousands != "" && f.Thousands != f.Decimal {
		s = strings.ReplaceAll(s, f.Thousands, "")
	}
	if f.Decimal != "" && f.Decimal != "." {
		s = strings.Replace(s, f.Decimal, ".", 1)
	}
	if !looksNumeric(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// looksNumeric rejects words strconv would accept, such as "Inf" or "nan",
// and hex or underscore forms that never appear in the sheet.
func looksNumeric(s string) bool {
	digits := 0
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case (c == '-' || c == '+') && i == 0:
		case c == 'e' || c == 'E':
			if digits == 0 {
				return false
			}
		case (c == '-' || c == '+') && i > 0 && (s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return digits > 0
}

// ParseNullFloat is ParseDecimal returning a NullFloat.
func ParseNullFloat(raw string, f NumberFormat) NullFloat {
	v, ok := ParseDecimal(raw, f)
	if !ok {
		return Null
	}
	return Float(v)
}

// NormalizeNumericColumn parses every value of a column. Entries that cannot
// be read become null; the output always has the same length as the input.
func NormalizeNumericColumn(values []string, f NumberFormat) []NullFloat {
	out := make([]NullFloat, len(values))
	for i, v := range values {
		out[i] = ParseNullFloat(v, f)
	}
	return out
}

// ParseDate reads a date cell with the given layout. Unreadable cells give the
// zero time and false.
func ParseDate(raw, layout string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

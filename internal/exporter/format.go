package exporter

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pcpsucata/internal/scrap"
)

// NoData is shown in place of a value that could not be computed.
const NoData = "sem dados"

// EmptyMessage replaces the table when the filters match no rows.
const EmptyMessage = "Sem dados para o período selecionado"

var printer = message.NewPrinter(language.BrazilianPortuguese)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// FormatDecimal formats v with two decimals and pt-BR separators.
func FormatDecimal(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// FormatKg formats a weight in kilograms.
func FormatKg(v float64) string {
	return FormatDecimal(v) + " kg"
}

// FormatPct formats a percentage, or NoData when it is null.
func FormatPct(n scrap.NullFloat) string {
	if !n.Valid {
		return NoData
	}
	return FormatDecimal(n.Float64) + "%"
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// FormatMonth renders a month as "Julho/2024".
func FormatMonth(ym scrap.YearMonth) string {
	name := MonthName(ym.Month)
	if name == "" {
		return ym.String()
	}
	return fmt.Sprintf("%s/%d", name, ym.Year)
}

// FormatDate renders a calendar date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// slug lowercases s, drops accents and keeps letters and digits, joining
// words with '-'.
func slug(s string) string {
	plain, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = plain
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

package scrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func filterRows() []Row {
	return []Row{
		row(day(2024, time.June, 1), "A", "1", "10"),
		row(day(2023, time.June, 30), "B", "1", "10"),
		row(day(2024, time.July, 1), "A", "1", "10"),
		row(time.Time{}, "A", "1", "10"),
		row(time.Date(2024, time.June, 15, 17, 45, 0, 0, time.UTC), "C", "1", "10"),
	}
}

func TestFilterByMonth(t *testing.T) {
	rows := filterRows()

	assert.Len(t, FilterByMonth(rows, 6, 0), 3, "any year")
	assert.Len(t, FilterByMonth(rows, 6, 2024), 2)
	assert.Len(t, FilterByMonth(rows, 6, 2023), 1)
	assert.Empty(t, FilterByMonth(rows, 8, 0))
	assert.Empty(t, FilterByMonth(rows, 0, 0))
	assert.Empty(t, FilterByMonth(rows, 13, 0))
}

func TestFilterByMonth_Idempotent(t *testing.T) {
	rows := filterRows()
	for m := 1; m <= 12; m++ {
		once := FilterByMonth(rows, m, 0)
		assert.Equal(t, once, FilterByMonth(once, m, 0), "month %d", m)
	}
}

func TestFilterByDateRange(t *testing.T) {
	rows := filterRows()

	got := FilterByDateRange(rows, day(2024, time.June, 1), day(2024, time.June, 15))
	assert.Len(t, got, 2, "inclusive on both ends, time of day ignored")

	assert.Len(t, FilterByDateRange(rows, day(2023, time.January, 1), day(2024, time.December, 31)), 4)
	assert.Empty(t, FilterByDateRange(rows, day(2024, time.July, 2), day(2024, time.June, 1)))
}

func TestFilterByDate(t *testing.T) {
	rows := filterRows()
	got := FilterByDate(rows, time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC))
	if assert.Len(t, got, 1) {
		assert.Equal(t, "C", got[0].PlateCode)
	}
}

func TestFilterByCategory(t *testing.T) {
	rows := filterRows()

	assert.Len(t, FilterByCategory(rows, "A"), 3)
	assert.Empty(t, FilterByCategory(rows, "a"), "exact match only")
	assert.Empty(t, FilterByCategory(nil, "A"))
}

package scrap

import "time"

// FilterByMonth keeps rows dated in the given month. A year of 0 matches any
// year; rows without a date never match.
func FilterByMonth(rows []Row, month, year int) []Row {
	out := make([]Row, 0)
	if month < 1 || month > 12 {
		return out
	}
	for _, r := range rows {
		if !r.HasDate() || int(r.Date.Month()) != month {
			continue
		}
		if year != 0 && r.Date.Year() != year {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByDateRange keeps rows whose calendar date lies in [start, end].
// Time of day is ignored. start after end yields no rows.
func FilterByDateRange(rows []Row, start, end time.Time) []Row {
	out := make([]Row, 0)
	from, to := dateOnly(start), dateOnly(end)
	if from.After(to) {
		return out
	}
	for _, r := range rows {
		if !r.HasDate() {
			continue
		}
		d := dateOnly(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByDate keeps rows dated on the same calendar day as day.
func FilterByDate(rows []Row, day time.Time) []Row {
	return FilterByDateRange(rows, day, day)
}

// FilterByCategory keeps rows whose plate code equals plateCode exactly.
func FilterByCategory(rows []Row, plateCode string) []Row {
	out := make([]Row, 0)
	for _, r := range rows {
		if r.PlateCode == plateCode {
			out = append(out, r)
		}
	}
	return out
}

// dateOnly drops the clock and location so dates compare as calendar days.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

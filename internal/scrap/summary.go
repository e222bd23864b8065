package scrap

import "sort"

// Summarize computes the headline metrics of a bucket sequence. The period
// loss is total scrap over total weight, so large buckets weigh more than
// small ones. It is null when no weight was recorded.
func Summarize(buckets []Bucket) Summary {
	var s Summary
	for _, b := range buckets {
		s.TotalScrap += b.ScrapSum
		s.TotalWeight += b.WeightSum
		s.Rows += b.Rows
	}
	s.Buckets = len(buckets)
	s.PeriodLossPct = lossPct(s.TotalScrap, s.TotalWeight)
	return s
}

// MeanYieldPct is the plain mean of the yield column times 100. Rows without
// a yield value are skipped; no rows gives null.
func MeanYieldPct(rows []Row) NullFloat {
	var sum float64
	var n int
	for _, r := range rows {
		if !r.YieldRatio.Valid {
			continue
		}
		sum += r.YieldRatio.Float64
		n++
	}
	if n == 0 {
		return Null
	}
	return Float(sum / float64(n) * 100)
}

// Months lists the distinct months present in rows, oldest first.
func Months(rows []Row) []YearMonth {
	seen := make(map[YearMonth]bool)
	out := make([]YearMonth, 0)
	for _, r := range rows {
		if !r.HasDate() {
			continue
		}
		ym := YearMonth{Year: r.Date.Year(), Month: r.Date.Month()}
		if !seen[ym] {
			seen[ym] = true
			out = append(out, ym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// PlateCodes lists distinct non-empty plate codes in first-appearance order.
func PlateCodes(rows []Row) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range rows {
		if r.PlateCode == "" || seen[r.PlateCode] {
			continue
		}
		seen[r.PlateCode] = true
		out = append(out, r.PlateCode)
	}
	return out
}

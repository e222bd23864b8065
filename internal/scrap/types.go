package scrap

import (
	"encoding/json"
	"fmt"
	"time"
)

// NullFloat is a decimal value that may be absent.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat holding v.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// Null is the absent value.
var Null = NullFloat{}

// MarshalJSON renders null when the value is absent.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Null
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

func (n NullFloat) String() string {
	if !n.Valid {
		return "null"
	}
	return fmt.Sprintf("%g", n.Float64)
}

// Row is one cutting record read from the sheet.
// A zero Date means the cell was empty or unreadable.
type Row struct {
	Date        time.Time `json:"date"`
	PlateCode   string    `json:"plate_code"`
	ScrapWeight NullFloat `json:"scrap_weight"`
	TotalWeight NullFloat `json:"total_weight"`
	YieldRatio  NullFloat `json:"yield_ratio"`
}

// HasDate reports whether the row carries a usable date.
func (r Row) HasDate() bool {
	return !r.Date.IsZero()
}

// GroupKey selects how rows are bucketed.
type GroupKey string

const (
	// GroupByDay buckets by day of month, ascending.
	GroupByDay GroupKey = "day"
	// GroupByPlate buckets by plate code in first-appearance order.
	GroupByPlate GroupKey = "plate_code"
	// GroupByDate buckets by full calendar date, ascending.
	GroupByDate GroupKey = "date"
)

// Valid reports whether k is a known grouping.
func (k GroupKey) Valid() bool {
	switch k {
	case GroupByDay, GroupByPlate, GroupByDate:
		return true
	}
	return false
}

// Bucket is one grouped output row, ready to be drawn as a bar.
type Bucket struct {
	Key       string    `json:"key"`
	Day       int       `json:"day,omitempty"`
	Date      time.Time `json:"date"`
	ScrapSum  float64   `json:"scrap_sum"`
	WeightSum float64   `json:"weight_sum"`
	LossPct   NullFloat `json:"loss_pct"`
	Rows      int       `json:"rows"`
}

// Summary holds the headline metrics for a set of buckets.
type Summary struct {
	TotalScrap    float64   `json:"total_scrap"`
	TotalWeight   float64   `json:"total_weight"`
	PeriodLossPct NullFloat `json:"period_loss_pct"`
	Buckets       int       `json:"buckets"`
	Rows          int       `json:"rows"`
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Before reports whether ym is earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

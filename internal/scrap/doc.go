// Package scrap turns raw sheet cells from the cutting floor into scrap and
// loss figures.
//
// # Data Flow
//
//	Grid → TableFromGrid → ParseTable → Dataset.Rows → Filter* → Aggregate → Summarize
//
// Cells arrive as locale-formatted text ("1.234,56"). NormalizeNumericColumn
// and ParseDate never fail: anything that cannot be read becomes a null value
// and the row silently drops out of every computation that needs that column.
//
// Structural problems are different. A header row that is missing, or a
// required column that is absent from it, is reported as a
// *MissingColumnError so callers can show a readable message instead of
// rendering a chart computed from the wrong data.
//
// # Loss Percentage
//
// Loss is scrap weight over total weight, times 100. A bucket whose weight sum
// is zero has a null loss. Summarize computes the period loss as a weighted
// ratio (total scrap / total weight), not as the mean of bucket percentages.
// The two differ whenever buckets have different weights; older versions of
// the dashboard used both forms. MeanYieldPct is kept for the "Aprov." column
// and is labelled as a plain mean.
//
// # Usage
//
//	table, err := scrap.TableFromGrid(grid, 4, 5)
//	if err != nil {
//	    return err
//	}
//	ds, err := scrap.ParseTable(table, scrap.DefaultSchema(), scrap.DefaultNumberFormat(), scrap.DefaultDateLayout)
//	if err != nil {
//	    return err
//	}
//	if err := ds.Require(scrap.ColumnWeight); err != nil {
//	    return err
//	}
//	june := scrap.FilterByMonth(ds.Rows, 6, 2024)
//	buckets := scrap.Aggregate(june, scrap.GroupByPlate)
//	summary := scrap.Summarize(buckets)
package scrap

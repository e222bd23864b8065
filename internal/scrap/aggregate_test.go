package scrap

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(date time.Time, plate, scrap, weight string) Row {
	f := DefaultNumberFormat()
	return Row{
		Date:        date,
		PlateCode:   plate,
		ScrapWeight: ParseNullFloat(scrap, f),
		TotalWeight: ParseNullFloat(weight, f),
	}
}

func byKey(buckets []Bucket) map[string]Bucket {
	m := make(map[string]Bucket, len(buckets))
	for _, b := range buckets {
		m[b.Key] = b
	}
	return m
}

func TestEndToEnd_MonthByPlate(t *testing.T) {
	rows := []Row{
		row(day(2024, time.June, 1), "A", "10,0", "100,0"),
		row(day(2024, time.June, 2), "A", "5,0", "50,0"),
		row(day(2024, time.June, 1), "B", "0", "20,0"),
	}

	buckets := Aggregate(FilterByMonth(rows, 6, 0), GroupByPlate)
	require.Len(t, buckets, 2)

	a, b := buckets[0], buckets[1]
	assert.Equal(t, "A", a.Key)
	assert.InDelta(t, 15.0, a.ScrapSum, 1e-9)
	assert.InDelta(t, 150.0, a.WeightSum, 1e-9)
	require.True(t, a.LossPct.Valid)
	assert.InDelta(t, 10.0, a.LossPct.Float64, 1e-9)

	assert.Equal(t, "B", b.Key)
	assert.InDelta(t, 0.0, b.ScrapSum, 1e-9)
	assert.InDelta(t, 20.0, b.WeightSum, 1e-9)
	require.True(t, b.LossPct.Valid)
	assert.InDelta(t, 0.0, b.LossPct.Float64, 1e-9)

	s := Summarize(buckets)
	assert.InDelta(t, 15.0, s.TotalScrap, 1e-9)
	require.True(t, s.PeriodLossPct.Valid)
	assert.InDelta(t, 15.0/170.0*100, s.PeriodLossPct.Float64, 1e-9)
	assert.InDelta(t, 8.8235, s.PeriodLossPct.Float64, 1e-4)
	assert.Equal(t, 3, s.Rows)
}

func TestEndToEnd_ZeroWeight(t *testing.T) {
	rows := []Row{row(day(2024, time.June, 3), "C", "5,0", "0")}

	buckets := Aggregate(rows, GroupByPlate)
	require.Len(t, buckets, 1)
	assert.False(t, buckets[0].LossPct.Valid)
	assert.False(t, math.IsInf(buckets[0].LossPct.Float64, 0))

	s := Summarize(buckets)
	assert.False(t, s.PeriodLossPct.Valid)
	assert.InDelta(t, 5.0, s.TotalScrap, 1e-9)
}

func TestAggregate_ExcludesNulls(t *testing.T) {
	rows := []Row{
		row(day(2024, time.June, 1), "A", "10,0", "100,0"),
		row(day(2024, time.June, 1), "A", "abc", "100,0"),
		row(day(2024, time.June, 1), "A", "3,0", ""),
		row(time.Time{}, "A", "7,0", "70,0"),
	}

	byDay := Aggregate(rows, GroupByDay)
	require.Len(t, byDay, 1)
	assert.Equal(t, 1, byDay[0].Rows)
	assert.InDelta(t, 10.0, byDay[0].ScrapSum, 1e-9)

	byPlate := Aggregate(rows, GroupByPlate)
	require.Len(t, byPlate, 1)
	assert.Equal(t, 2, byPlate[0].Rows, "undated row still has a plate code")
	assert.InDelta(t, 17.0, byPlate[0].ScrapSum, 1e-9)
}

func TestAggregate_DayOrderAscending(t *testing.T) {
	rows := []Row{
		row(day(2024, time.June, 15), "A", "1", "10"),
		row(day(2024, time.June, 2), "B", "1", "10"),
		row(day(2024, time.June, 9), "A", "1", "10"),
		row(day(2024, time.June, 2), "A", "2", "10"),
	}

	buckets := Aggregate(rows, GroupByDay)
	require.Len(t, buckets, 3)
	assert.Equal(t, []int{2, 9, 15}, []int{buckets[0].Day, buckets[1].Day, buckets[2].Day})
	assert.Equal(t, "2", buckets[0].Key)
	assert.InDelta(t, 3.0, buckets[0].ScrapSum, 1e-9)
}

func TestAggregate_PlateOrderFirstAppearance(t *testing.T) {
	rows := []Row{
		row(day(2024, time.June, 1), "Z", "1", "10"),
		row(day(2024, time.June, 1), "A", "1", "10"),
		row(day(2024, time.June, 1), "Z", "1", "10"),
		row(day(2024, time.June, 1), "M", "1", "10"),
	}

	buckets := Aggregate(rows, GroupByPlate)
	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		keys = append(keys, b.Key)
	}
	assert.Equal(t, []string{"Z", "A", "M"}, keys)
}

func TestAggregate_ByDateAcrossMonths(t *testing.T) {
	rows := []Row{
		row(day(2024, time.July, 1), "A", "2", "10"),
		row(day(2024, time.June, 1), "A", "1", "10"),
	}

	buckets := Aggregate(rows, GroupByDate)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-06-01", buckets[0].Key)
	assert.Equal(t, "2024-07-01", buckets[1].Key)

	assert.Len(t, Aggregate(rows, GroupByDay), 1, "day of month collapses both")
}

func TestAggregate_UnknownKey(t *testing.T) {
	rows := []Row{row(day(2024, time.June, 1), "A", "1", "10")}
	assert.Empty(t, Aggregate(rows, GroupKey("week")))
}

func TestAggregate_EmptyInput(t *testing.T) {
	buckets := Aggregate(nil, GroupByDay)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)

	s := Summarize(buckets)
	assert.Zero(t, s.TotalScrap)
	assert.False(t, s.PeriodLossPct.Valid)
}

func TestAggregateScrap(t *testing.T) {
	rows := []Row{
		row(day(2024, time.June, 1), "A", "10,0", ""),
		row(day(2024, time.June, 1), "B", "2,5", ""),
		row(day(2024, time.June, 3), "A", "", ""),
	}

	buckets := AggregateScrap(rows, GroupByDay)
	require.Len(t, buckets, 1)
	assert.InDelta(t, 12.5, buckets[0].ScrapSum, 1e-9)
	assert.Zero(t, buckets[0].WeightSum)
	assert.False(t, buckets[0].LossPct.Valid)
	assert.False(t, Summarize(buckets).PeriodLossPct.Valid)
}

func randomRows(r *rand.Rand, n int) []Row {
	plates := []string{"A", "B", "C", "D"}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Date:        day(2024, time.Month(1+r.Intn(12)), 1+r.Intn(28)),
			PlateCode:   plates[r.Intn(len(plates))],
			ScrapWeight: Float(float64(r.Intn(5000)) / 100),
			TotalWeight: Float(float64(100+r.Intn(50000)) / 100),
		}
		if r.Intn(10) == 0 {
			rows[i].TotalWeight = Null
		}
	}
	return rows
}

func TestAggregate_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	rows := randomRows(r, 300)

	for _, key := range []GroupKey{GroupByDay, GroupByPlate, GroupByDate} {
		want := byKey(Aggregate(rows, key))

		shuffled := append([]Row(nil), rows...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := byKey(Aggregate(shuffled, key))

		require.Len(t, got, len(want), "key %s", key)
		for k, w := range want {
			g := got[k]
			assert.InDelta(t, w.ScrapSum, g.ScrapSum, 1e-6, "key %s bucket %s", key, k)
			assert.InDelta(t, w.WeightSum, g.WeightSum, 1e-6, "key %s bucket %s", key, k)
			assert.Equal(t, w.LossPct.Valid, g.LossPct.Valid)
			assert.InDelta(t, w.LossPct.Float64, g.LossPct.Float64, 1e-9)
			assert.Equal(t, w.Rows, g.Rows)
		}
	}
}

func TestSummarize_WeightedMatchesDirect(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rows := randomRows(r, 500)

	var scrap, weight float64
	for _, row := range rows {
		if row.ScrapWeight.Valid && row.TotalWeight.Valid {
			scrap += row.ScrapWeight.Float64
			weight += row.TotalWeight.Float64
		}
	}
	direct := scrap / weight * 100

	for _, key := range []GroupKey{GroupByDay, GroupByPlate, GroupByDate} {
		s := Summarize(Aggregate(rows, key))
		require.True(t, s.PeriodLossPct.Valid)
		assert.InEpsilon(t, direct, s.PeriodLossPct.Float64, 1e-9, "key %s", key)
	}
}

func TestSummarize_NotMeanOfBucketPercentages(t *testing.T) {
	buckets := Aggregate([]Row{
		row(day(2024, time.June, 1), "A", "1", "10"),
		row(day(2024, time.June, 1), "B", "50", "1000"),
	}, GroupByPlate)

	s := Summarize(buckets)
	mean := (buckets[0].LossPct.Float64 + buckets[1].LossPct.Float64) / 2
	assert.InDelta(t, 51.0/1010.0*100, s.PeriodLossPct.Float64, 1e-9)
	assert.NotEqual(t, mean, s.PeriodLossPct.Float64)
}

func TestMeanYieldPct(t *testing.T) {
	rows := []Row{
		{YieldRatio: Float(0.9)},
		{YieldRatio: Float(0.8)},
		{YieldRatio: Null},
	}
	got := MeanYieldPct(rows)
	require.True(t, got.Valid)
	assert.InDelta(t, 85.0, got.Float64, 1e-9)

	assert.False(t, MeanYieldPct([]Row{{}}).Valid)
}

func TestMonthsAndPlateCodes(t *testing.T) {
	rows := []Row{
		row(day(2024, time.July, 2), "B", "1", "1"),
		row(day(2023, time.December, 2), "A", "1", "1"),
		row(day(2024, time.July, 9), "B", "1", "1"),
		row(time.Time{}, "", "1", "1"),
		row(day(2024, time.January, 9), "C", "1", "1"),
	}

	assert.Equal(t, []YearMonth{
		{Year: 2023, Month: time.December},
		{Year: 2024, Month: time.January},
		{Year: 2024, Month: time.July},
	}, Months(rows))
	assert.Equal(t, []string{"B", "A", "C"}, PlateCodes(rows))
	assert.Equal(t, "2024-07", YearMonth{Year: 2024, Month: time.July}.String())
}

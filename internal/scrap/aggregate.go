package scrap

import (
	"sort"
	"strconv"
)

// Aggregate groups rows by key and computes scrap, weight and loss per group.
// Only rows with both scrap and weight contribute. Day and date buckets are
// sorted ascending; plate buckets keep first-appearance order.
func Aggregate(rows []Row, key GroupKey) []Bucket {
	return group(rows, key, func(r Row) bool {
		return r.ScrapWeight.Valid && r.TotalWeight.Valid
	}, true)
}

// AggregateScrap groups by scrap alone, for sheets without a weight column.
// Weight sums are left at zero and loss is always null.
func AggregateScrap(rows []Row, key GroupKey) []Bucket {
	return group(rows, key, func(r Row) bool {
		return r.ScrapWeight.Valid
	}, false)
}

func group(rows []Row, key GroupKey, include func(Row) bool, withWeight bool) []Bucket {
	buckets := make([]Bucket, 0)
	if !key.Valid() {
		return buckets
	}
	index := make(map[string]int)

	for _, r := range rows {
		if !include(r) {
			continue
		}
		b, ok := bucketFor(r, key)
		if !ok {
			continue
		}
		i, seen := index[b.Key]
		if !seen {
			i = len(buckets)
			index[b.Key] = i
			buckets = append(buckets, b)
		}
		buckets[i].ScrapSum += r.ScrapWeight.Float64
		if withWeight {
			buckets[i].WeightSum += r.TotalWeight.Float64
		}
		buckets[i].Rows++
	}

	for i := range buckets {
		if withWeight {
			buckets[i].LossPct = lossPct(buckets[i].ScrapSum, buckets[i].WeightSum)
		}
	}

	switch key {
	case GroupByDay:
		sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Day < buckets[j].Day })
	case GroupByDate:
		sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Date.Before(buckets[j].Date) })
	}
	return buckets
}

// bucketFor returns an empty bucket labelled for r, or false when r lacks the
// field the grouping needs.
func bucketFor(r Row, key GroupKey) (Bucket, bool) {
	switch key {
	case GroupByDay:
		if !r.HasDate() {
			return Bucket{}, false
		}
		d := r.Date.Day()
		return Bucket{Key: strconv.Itoa(d), Day: d}, true
	case GroupByDate:
		if !r.HasDate() {
			return Bucket{}, false
		}
		d := dateOnly(r.Date)
		return Bucket{Key: d.Format("2006-01-02"), Day: d.Day(), Date: d}, true
	case GroupByPlate:
		return Bucket{Key: r.PlateCode}, true
	}
	return Bucket{}, false
}

// lossPct is scrap/weight*100, null when weight is zero.
func lossPct(scrap, weight float64) NullFloat {
	if weight == 0 {
		return Null
	}
	return Float(scrap / weight * 100)
}

package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
)

// TrendSamples is the number of evenly spaced trend points added to the
// time series.
const TrendSamples = 4

// DailyCost is the summed effective cost of one calendar day. Date is
// midday of that day so it stays on the same date across nearby zones.
type DailyCost struct {
	Date time.Time
	Cost decimal.Decimal
}

// TimePoint is one point of the cost time series. Cost is set for plotted
// days and TrendCost for trend samples; a day can carry both.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Cost      *float64  `json:"cost,omitempty"`
	TrendCost *float64  `json:"trendCost,omitempty"`
}

// DailyCosts groups records by the calendar day of their end date in loc
// and returns the days in ascending order. Records whose end date cannot
// be parsed are skipped.
func DailyCosts(records []billing.Record, loc *time.Location) []DailyCost {
	if loc == nil {
		loc = time.Local
	}
	totals := make(map[time.Time]decimal.Decimal)
	for _, r := range records {
		end, err := r.EndTime()
		if err != nil {
			continue
		}
		end = end.In(loc)
		day := time.Date(end.Year(), end.Month(), end.Day(), 12, 0, 0, 0, loc)
		totals[day] = totals[day].Add(r.EffectiveCost.OrZero())
	}

	days := lo.Keys(totals)
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return lo.Map(days, func(day time.Time, _ int) DailyCost {
		return DailyCost{Date: day, Cost: totals[day]}
	})
}

// CostByDate returns the plotted time series: weekend days with their cost,
// merged with TrendSamples points of a least squares fit over every day.
func CostByDate(records []billing.Record, loc *time.Location) []TimePoint {
	daily := DailyCosts(records, loc)
	if len(daily) == 0 {
		return nil
	}

	points := make(map[time.Time]*TimePoint)
	point := func(ts time.Time) *TimePoint {
		p, ok := points[ts]
		if !ok {
			p = &TimePoint{Timestamp: ts}
			points[ts] = p
		}
		return p
	}

	for _, d := range daily {
		if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			cost := d.Cost.InexactFloat64()
			point(d.Date).Cost = &cost
		}
	}

	ys := lo.Map(daily, func(d DailyCost, _ int) float64 { return d.Cost.InexactFloat64() })
	slope, intercept := LinearFit(ys)
	for _, i := range TrendIndices(len(daily), TrendSamples) {
		trend := intercept + slope*float64(i)
		point(daily[i].Date).TrendCost = &trend
	}

	series := make([]TimePoint, 0, len(points))
	for _, p := range points {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Timestamp.Before(series[j].Timestamp) })
	return series
}

// LinearFit returns the ordinary least squares line through (i, ys[i]).
// A single point fits a flat line through it.
func LinearFit(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	if len(ys) == 0 {
		return 0, 0
	}
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, sy / n
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return slope, intercept
}

// TrendIndices returns up to samples evenly spaced indices over a series of
// length n, always including the first and last index.
func TrendIndices(n, samples int) []int {
	if n <= 0 || samples <= 0 {
		return nil
	}
	if samples == 1 || n == 1 {
		return []int{0}
	}
	idx := make([]int, samples)
	for k := range idx {
		idx[k] = int(math.Round(float64(k) * float64(n-1) / float64(samples-1)))
	}
	return lo.Uniq(idx)
}

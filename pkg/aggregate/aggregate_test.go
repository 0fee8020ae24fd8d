package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
)

func str(s string) *string { return &s }

func cost(f float64) billing.Amount {
	return billing.NumberAmount(decimal.NewFromFloat(f))
}

func product(name string) billing.Nested {
	return billing.StructuredNested(map[string]string{"product_name": name})
}

func TestBreakdown(t *testing.T) {
	tests := map[string]struct {
		records  []billing.Record
		key      Key
		expected []Slice
	}{
		"single region sums every record": {
			records: []billing.Record{
				{Region: str("R1"), EffectiveCost: cost(10)},
				{Region: str("R1"), EffectiveCost: cost(0)},
				{Region: str("R1"), EffectiveCost: cost(5)},
			},
			key:      ByRegion,
			expected: []Slice{{Label: "R1", Value: 15, ActualValue: 15}},
		},
		"sorted by descending cost then label": {
			records: []billing.Record{
				{Region: str("us-west-2"), EffectiveCost: cost(2)},
				{Region: str("eu-west-1"), EffectiveCost: cost(7)},
				{Region: str("ap-south-1"), EffectiveCost: cost(2)},
				{Region: nil, EffectiveCost: cost(1)},
				{Region: str(" "), EffectiveCost: cost(0.5)},
			},
			key: ByRegion,
			expected: []Slice{
				{Label: "eu-west-1", Value: 7, ActualValue: 7},
				{Label: "ap-south-1", Value: 2, ActualValue: 2},
				{Label: "us-west-2", Value: 2, ActualValue: 2},
				{Label: UnknownLabel, Value: 1.5, ActualValue: 1.5},
			},
		},
		"product uses the nested product name": {
			records: []billing.Record{
				{Product: product("Amazon EC2"), EffectiveCost: cost(3)},
				{Product: product("Amazon S3"), EffectiveCost: cost(1)},
				{Product: billing.RawNested("{product_name=Amazon EC2}"), EffectiveCost: cost(4)},
				{Product: billing.NullNested(), EffectiveCost: billing.RawAmount("n/a")},
			},
			key: ByProduct,
			expected: []Slice{
				{Label: UnknownLabel, Value: 4, ActualValue: 4},
				{Label: "Amazon EC2", Value: 3, ActualValue: 3},
				{Label: "Amazon S3", Value: 1, ActualValue: 1},
			},
		},
		"all zero totals get a uniform placeholder": {
			records: []billing.Record{
				{Region: str("a"), EffectiveCost: cost(0)},
				{Region: str("b"), EffectiveCost: billing.NullAmount()},
			},
			key: ByRegion,
			expected: []Slice{
				{Label: "a", Value: 1, ActualValue: 0},
				{Label: "b", Value: 1, ActualValue: 0},
			},
		},
		"no records": {
			key:      ByRegion,
			expected: []Slice{},
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Breakdown(tt.records, tt.key))
		})
	}
}

func TestCostByDate(t *testing.T) {
	// Monday 2024-03-04 through Sunday 2024-03-10
	costs := []float64{3, 1, 4, 1, 5, 9, 2}
	var records []billing.Record
	for i, c := range costs {
		end := time.Date(2024, 3, 4+i, 0, 0, 0, 0, time.UTC).Format(billing.TimestampFormat)
		records = append(records, billing.Record{EndDate: str(end), EffectiveCost: cost(c)})
	}
	records = append(records,
		billing.Record{EndDate: str("not a date"), EffectiveCost: cost(100)},
		billing.Record{EndDate: nil, EffectiveCost: cost(100)},
	)

	series := CostByDate(records, time.UTC)

	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	// slope 0.5, intercept 25/7 - 1.5 over the full week
	intercept := 25.0/7.0 - 1.5
	trendAt := func(i int) float64 { return intercept + 0.5*float64(i) }

	require.Len(t, series, 5)
	expectedTimestamps := []time.Time{day(4), day(6), day(8), day(9), day(10)}
	for i, p := range series {
		assert.True(t, expectedTimestamps[i].Equal(p.Timestamp), "point %d: expected %s, got %s", i, expectedTimestamps[i], p.Timestamp)
	}

	for i, idx := range []int{0, 2, 4} {
		assert.Nil(t, series[i].Cost, "weekday points only carry a trend")
		require.NotNil(t, series[i].TrendCost)
		assert.InDelta(t, trendAt(idx), *series[i].TrendCost, 1e-9)
	}

	saturday := series[3]
	require.NotNil(t, saturday.Cost)
	assert.Equal(t, 9.0, *saturday.Cost)
	assert.Nil(t, saturday.TrendCost)

	sunday := series[4]
	require.NotNil(t, sunday.Cost)
	assert.Equal(t, 2.0, *sunday.Cost)
	require.NotNil(t, sunday.TrendCost)
	assert.InDelta(t, trendAt(6), *sunday.TrendCost, 1e-9)
}

func TestDailyCostsGroupsByLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	records := []billing.Record{
		// 2024-03-05 03:00 UTC is still the 4th five hours west
		{EndDate: str("2024-03-05 03:00:00.000"), EffectiveCost: cost(1)},
		{EndDate: str("2024-03-04 18:00:00.000"), EffectiveCost: cost(2.5)},
		{EndDate: str("2024-03-05 12:00:00.000"), EffectiveCost: cost(4)},
	}
	daily := DailyCosts(records, loc)
	require.Len(t, daily, 2)
	assert.True(t, time.Date(2024, 3, 4, 12, 0, 0, 0, loc).Equal(daily[0].Date))
	assert.True(t, decimal.NewFromFloat(3.5).Equal(daily[0].Cost))
	assert.True(t, decimal.NewFromFloat(4).Equal(daily[1].Cost))
}

func TestCostByDateEdgeCases(t *testing.T) {
	assert.Nil(t, CostByDate(nil, time.UTC))

	// a single Wednesday gets one flat trend point and no plotted cost
	series := CostByDate([]billing.Record{{EndDate: str("2024-03-06"), EffectiveCost: cost(8)}}, time.UTC)
	require.Len(t, series, 1)
	assert.Nil(t, series[0].Cost)
	require.NotNil(t, series[0].TrendCost)
	assert.InDelta(t, 8, *series[0].TrendCost, 1e-9)
}

func TestTrendIndices(t *testing.T) {
	tests := map[string]struct {
		n        int
		expected []int
	}{
		"empty":            {n: 0, expected: nil},
		"one":              {n: 1, expected: []int{0}},
		"two":              {n: 2, expected: []int{0, 1}},
		"three":            {n: 3, expected: []int{0, 1, 2}},
		"week":             {n: 7, expected: []int{0, 2, 4, 6}},
		"month":            {n: 30, expected: []int{0, 10, 19, 29}},
		"rounding applies": {n: 5, expected: []int{0, 1, 3, 4}},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrendIndices(tt.n, TrendSamples))
		})
	}
}

func TestLinearFit(t *testing.T) {
	slope, intercept := LinearFit([]float64{1, 3, 5, 7})
	assert.InDelta(t, 2, slope, 1e-9)
	assert.InDelta(t, 1, intercept, 1e-9)

	slope, intercept = LinearFit([]float64{4})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 4.0, intercept)
}

func TestFilter(t *testing.T) {
	records := []billing.Record{
		{Account: str("111122223333"), Product: product("Amazon EC2"), Region: str("us-east-1"), Operation: str("RunInstances"), EffectiveCost: cost(12.5), EndDate: str("2024-03-02 00:00:00.000")},
		{Account: str("444455556666"), Product: product("Amazon S3"), Region: str("eu-west-1"), Operation: str("PutObject"), EffectiveCost: cost(0.25), EndDate: str("2024-04-02 00:00:00.000")},
		{Account: nil, Product: billing.RawNested("{bad"), Region: nil},
	}

	tests := map[string]struct {
		criteria Criteria
		expected int
	}{
		"empty criteria keeps everything":  {criteria: Criteria{}, expected: 3},
		"product name is case-insensitive": {criteria: Criteria{Product: "ec2"}, expected: 1},
		"region substring":                 {criteria: Criteria{Region: "WEST"}, expected: 1},
		"account and operation together":   {criteria: Criteria{Account: "4444", Operation: "put"}, expected: 1},
		"non-matching combination":         {criteria: Criteria{Account: "1111", Operation: "put"}, expected: 0},
		"cost substring":                   {criteria: Criteria{EffectiveCost: "12.5"}, expected: 1},
		"end date month":                   {criteria: Criteria{EndDate: "2024-04"}, expected: 1},
		"null fields do not match":         {criteria: Criteria{Region: "e"}, expected: 2},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			assert.Len(t, Filter(records, tt.criteria), tt.expected)
		})
	}
	assert.Len(t, records, 3, "filtering does not modify its input")
}

func TestBuild(t *testing.T) {
	records := []billing.Record{
		{Region: str("us-east-1"), Product: product("Amazon EC2"), EffectiveCost: cost(10), EndDate: str("2024-03-09")},
		{Region: str("us-east-1"), Product: product("Amazon S3"), EffectiveCost: cost(2), EndDate: str("2024-03-10")},
		{Region: str("eu-west-1"), Product: product("Amazon S3"), EffectiveCost: cost(3), EndDate: str("2024-03-10")},
	}
	d := Build(records, Criteria{Region: "us-"}, time.UTC)
	assert.Equal(t, 2, d.Records)
	assert.InDelta(t, 12, d.TotalCost, 1e-9)
	assert.Equal(t, []Slice{{Label: "us-east-1", Value: 12, ActualValue: 12}}, d.ByRegion)
	assert.Equal(t, []Slice{
		{Label: "Amazon EC2", Value: 10, ActualValue: 10},
		{Label: "Amazon S3", Value: 2, ActualValue: 2},
	}, d.ByProduct)
	require.Len(t, d.ByDate, 2)
	assert.Equal(t, 10.0, *d.ByDate[0].Cost)
	assert.Equal(t, 2.0, *d.ByDate[1].Cost)
}

package aggregate

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
)

// UnknownLabel is the bucket for records without a usable category.
const UnknownLabel = "Unknown"

// placeholderValue is the slice size given to every group when all
// groups cost nothing.
const placeholderValue = 1

type Key string

const (
	ByRegion  Key = "region"
	ByProduct Key = "product"
)

// Slice is one group of a categorical breakdown. Value is the magnitude
// to draw and ActualValue the summed cost. They differ only when every
// group sums to zero and Value holds a uniform placeholder.
type Slice struct {
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	ActualValue float64 `json:"actualValue"`
}

func (k Key) label(r billing.Record) string {
	switch k {
	case ByProduct:
		if name, ok := r.ProductName(); ok {
			return name
		}
	case ByRegion:
		if r.Region != nil && strings.TrimSpace(*r.Region) != "" {
			return *r.Region
		}
	}
	return UnknownLabel
}

// Breakdown sums the effective cost of records per key and returns the
// groups ordered by descending cost, ties broken by label.
func Breakdown(records []billing.Record, key Key) []Slice {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		label := key.label(r)
		totals[label] = totals[label].Add(r.EffectiveCost.OrZero())
	}

	allZero := true
	for _, total := range totals {
		if !total.IsZero() {
			allZero = false
			break
		}
	}

	labels := lo.Keys(totals)
	sort.Slice(labels, func(i, j int) bool {
		a, b := totals[labels[i]], totals[labels[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return labels[i] < labels[j]
	})

	return lo.Map(labels, func(label string, _ int) Slice {
		actual := totals[label].InexactFloat64()
		value := actual
		if allZero {
			value = placeholderValue
		}
		return Slice{Label: label, Value: value, ActualValue: actual}
	})
}

package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
)

// Dashboard holds the three views computed from one filtered set of
// records.
type Dashboard struct {
	Records   int         `json:"records"`
	TotalCost float64     `json:"totalCost"`
	ByRegion  []Slice     `json:"costByRegion"`
	ByProduct []Slice     `json:"costByProduct"`
	ByDate    []TimePoint `json:"costByDate"`
}

// Build filters records with criteria and computes every view over the
// result.
func Build(records []billing.Record, criteria Criteria, loc *time.Location) Dashboard {
	filtered := Filter(records, criteria)
	total := decimal.Zero
	for _, r := range filtered {
		total = total.Add(r.EffectiveCost.OrZero())
	}
	return Dashboard{
		Records:   len(filtered),
		TotalCost: total.InexactFloat64(),
		ByRegion:  Breakdown(filtered, ByRegion),
		ByProduct: Breakdown(filtered, ByProduct),
		ByDate:    CostByDate(filtered, loc),
	}
}

package aggregate

import (
	"strings"

	"github.com/samber/lo"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
)

// Criteria selects records by substring. Empty fields match everything.
// Text fields match case-insensitively; cost, usage and date fields match
// against their text form as-is.
type Criteria struct {
	Account       string `json:"account,omitempty"`
	Product       string `json:"product,omitempty"`
	ProductFamily string `json:"productFamily,omitempty"`
	Region        string `json:"region,omitempty"`
	ResourceID    string `json:"resourceId,omitempty"`
	Operation     string `json:"operation,omitempty"`
	EffectiveCost string `json:"effectiveCost,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	UsageAmount   string `json:"usageAmount,omitempty"`
}

func (c Criteria) Empty() bool {
	return c == Criteria{}
}

func (c Criteria) Match(r billing.Record) bool {
	productName, _ := r.ProductName()
	return containsFold(billing.StringValue(r.Account), c.Account) &&
		containsFold(productName, c.Product) &&
		containsFold(billing.StringValue(r.ProductFamily), c.ProductFamily) &&
		containsFold(billing.StringValue(r.Region), c.Region) &&
		containsFold(billing.StringValue(r.ResourceID), c.ResourceID) &&
		containsFold(billing.StringValue(r.Operation), c.Operation) &&
		strings.Contains(r.EffectiveCost.String(), c.EffectiveCost) &&
		strings.Contains(billing.StringValue(r.StartDate), c.StartDate) &&
		strings.Contains(billing.StringValue(r.EndDate), c.EndDate) &&
		strings.Contains(r.UsageAmount.String(), c.UsageAmount)
}

// Filter returns the records matching c. records is not modified.
func Filter(records []billing.Record, c Criteria) []billing.Record {
	if c.Empty() {
		return records
	}
	return lo.Filter(records, func(r billing.Record, _ int) bool {
		return c.Match(r)
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

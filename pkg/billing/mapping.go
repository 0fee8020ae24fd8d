package billing

import "strings"

// ColumnMapping names the result columns each Record field is read from.
// Matching is case-insensitive since engines may fold column aliases to
// lower case.
type ColumnMapping struct {
	Account       string `json:"account" yaml:"account"`
	Product       string `json:"product" yaml:"product"`
	ProductFamily string `json:"productFamily" yaml:"productFamily"`
	Region        string `json:"region" yaml:"region"`
	ResourceID    string `json:"resourceId" yaml:"resourceId"`
	Operation     string `json:"operation" yaml:"operation"`
	EffectiveCost string `json:"effectiveCost" yaml:"effectiveCost"`
	ResourceTags  string `json:"resourceTags" yaml:"resourceTags"`
	StartDate     string `json:"startDate" yaml:"startDate"`
	EndDate       string `json:"endDate" yaml:"endDate"`
	UsageAmount   string `json:"usageAmount" yaml:"usageAmount"`

	// Source cost columns, in priority order, used when a result carries
	// them instead of a precomputed EffectiveCost column.
	ReservationCost string `json:"reservationCost" yaml:"reservationCost"`
	SavingsPlanCost string `json:"savingsPlanCost" yaml:"savingsPlanCost"`
	UnblendedCost   string `json:"unblendedCost" yaml:"unblendedCost"`
}

func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Account:         "account",
		Product:         "product",
		ProductFamily:   "productFamily",
		Region:          "region",
		ResourceID:      "resourceId",
		Operation:       "operation",
		EffectiveCost:   "effectiveCost",
		ResourceTags:    "resourceTags",
		StartDate:       "startDate",
		EndDate:         "endDate",
		UsageAmount:     "usageAmount",
		ReservationCost: "reservation_effective_cost",
		SavingsPlanCost: "savings_plan_savings_plan_effective_cost",
		UnblendedCost:   "line_item_unblended_cost",
	}
}

// WithDefaults fills empty names from DefaultColumnMapping.
func (m ColumnMapping) WithDefaults() ColumnMapping {
	d := DefaultColumnMapping()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&m.Account, d.Account)
	fill(&m.Product, d.Product)
	fill(&m.ProductFamily, d.ProductFamily)
	fill(&m.Region, d.Region)
	fill(&m.ResourceID, d.ResourceID)
	fill(&m.Operation, d.Operation)
	fill(&m.EffectiveCost, d.EffectiveCost)
	fill(&m.ResourceTags, d.ResourceTags)
	fill(&m.StartDate, d.StartDate)
	fill(&m.EndDate, d.EndDate)
	fill(&m.UsageAmount, d.UsageAmount)
	fill(&m.ReservationCost, d.ReservationCost)
	fill(&m.SavingsPlanCost, d.SavingsPlanCost)
	fill(&m.UnblendedCost, d.UnblendedCost)
	return m
}

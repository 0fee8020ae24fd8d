package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
)

func row(cells ...interface{}) []engine.Cell {
	out := make([]engine.Cell, len(cells))
	for i, c := range cells {
		if s, ok := c.(string); ok {
			out[i] = engine.NewCell(s)
		}
	}
	return out
}

func resultSet(header []string, rows ...[]engine.Cell) *engine.ResultSet {
	h := make([]engine.Cell, len(header))
	for i, name := range header {
		h[i] = engine.NewCell(name)
	}
	return &engine.ResultSet{Rows: append([][]engine.Cell{h}, rows...)}
}

func newTestMaterializer() *Materializer {
	return NewMaterializer(logrus.New(), DefaultColumnMapping())
}

func TestMaterializeTextAndNumbers(t *testing.T) {
	rs := resultSet([]string{"account", "effectiveCost"}, row("A1", "12.5000"))

	records, diag := newTestMaterializer().Materialize(rs)
	require.Len(t, records, 1)
	rec := records[0]
	require.NotNil(t, rec.Account)
	assert.Equal(t, "A1", *rec.Account)
	assert.Equal(t, AmountNumber, rec.EffectiveCost.Kind)
	assert.True(t, rec.EffectiveCost.Number.Equal(decimal.NewFromFloat(12.5)))
	assert.Nil(t, rec.Region, "columns missing from the header are null")
	assert.Equal(t, NestedNull, rec.Product.Kind)
	assert.Equal(t, 1, diag.Rows)
	assert.False(t, diag.Degraded())
}

func TestMaterializeDegradesMalformedCells(t *testing.T) {
	header := []string{"account", "product", "resourceTags", "effectiveCost", "usageAmount"}
	rs := resultSet(header,
		row("A1", `{"product_name":"Amazon EC2","sku":"ABC"}`, `{"team":"core"`, "3.25", "n/a"),
		row("A2", "{product_name=Amazon S3}", nil, nil, "1e3"),
		row("A3", "null", `{"env":"prod","count":3,"owner":null}`, "0", "2"),
	)

	records, diag := newTestMaterializer().Materialize(rs)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, NestedStructured, first.Product.Kind)
	name, ok := first.ProductName()
	assert.True(t, ok)
	assert.Equal(t, "Amazon EC2", name)
	assert.Equal(t, NestedRaw, first.ResourceTags.Kind)
	assert.Equal(t, `{"team":"core"`, first.ResourceTags.Raw)
	assert.Equal(t, AmountRaw, first.UsageAmount.Kind)
	assert.Equal(t, "n/a", first.UsageAmount.Raw)

	second := records[1]
	assert.Equal(t, RawNested("{product_name=Amazon S3}"), second.Product)
	_, ok = second.ProductName()
	assert.False(t, ok)
	assert.Equal(t, NestedNull, second.ResourceTags.Kind)
	assert.Equal(t, AmountNull, second.EffectiveCost.Kind)
	assert.True(t, second.UsageAmount.Number.Equal(decimal.NewFromInt(1000)))

	third := records[2]
	assert.Equal(t, NestedNull, third.Product.Kind, "a JSON null is a null payload")
	assert.Equal(t, map[string]string{"env": "prod", "count": "3"}, third.ResourceTags.Fields)

	assert.Equal(t, 3, diag.Rows)
	assert.Equal(t, 2, diag.DegradedRows)
	assert.Equal(t, 3, diag.DegradedCells)
	assert.Equal(t, map[string]int{"resourceTags": 1, "usageAmount": 1, "product": 1}, diag.DegradedByColumn)
	assert.Equal(t, "2 of 3 rows had malformed cells", diag.String())
}

func TestMaterializeEffectiveCostPriority(t *testing.T) {
	header := []string{"line_item_usage_account_id", "reservation_effective_cost", "savings_plan_savings_plan_effective_cost", "line_item_unblended_cost"}
	mapping := DefaultColumnMapping()
	mapping.Account = "line_item_usage_account_id"

	tests := map[string]struct {
		row      []engine.Cell
		expected string
		null     bool
	}{
		"reservation cost wins":            {row: row("A", "1.5", "2.5", "3.5"), expected: "1.5"},
		"savings plan when no reservation": {row: row("A", nil, "2.5", "3.5"), expected: "2.5"},
		"unblended is the fallback":        {row: row("A", nil, nil, "3.5"), expected: "3.5"},
		"all null":                         {row: row("A", nil, nil, nil), null: true},
		"short row":                        {row: row("A"), null: true},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			m := NewMaterializer(logrus.New(), mapping)
			records, _ := m.Materialize(resultSet(header, tt.row))
			require.Len(t, records, 1)
			if tt.null {
				assert.Equal(t, AmountNull, records[0].EffectiveCost.Kind)
				return
			}
			assert.Equal(t, tt.expected, records[0].EffectiveCost.String())
		})
	}
}

func TestMaterializeHeaderIsCaseInsensitive(t *testing.T) {
	rs := resultSet([]string{"ACCOUNT", "effectivecost", "enddate"}, row("A1", "2", "2024-03-02 00:00:00.000"))
	records, _ := newTestMaterializer().Materialize(rs)
	require.Len(t, records, 1)
	assert.Equal(t, "A1", StringValue(records[0].Account))
	assert.Equal(t, "2", records[0].EffectiveCost.String())
	end, err := records[0].EndTime()
	require.NoError(t, err)
	assert.Equal(t, 2, end.Day())
}

func TestMaterializeEmptyResult(t *testing.T) {
	records, diag := newTestMaterializer().Materialize(&engine.ResultSet{})
	assert.Empty(t, records)
	assert.Equal(t, 0, diag.Rows)

	records, _ = newTestMaterializer().Materialize(resultSet([]string{"account"}))
	assert.Empty(t, records)
}

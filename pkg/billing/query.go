package billing

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
)

const costQueryTemplate = `SELECT
	line_item_usage_account_id AS {| identifier .Columns.Account |},
	json_format(CAST(product AS JSON)) AS {| identifier .Columns.Product |},
	product_product_family AS {| identifier .Columns.ProductFamily |},
	product_region_code AS {| identifier .Columns.Region |},
	line_item_resource_id AS {| identifier .Columns.ResourceID |},
	line_item_operation AS {| identifier .Columns.Operation |},
	COALESCE(reservation_effective_cost, savings_plan_savings_plan_effective_cost, line_item_unblended_cost) AS {| identifier .Columns.EffectiveCost |},
	json_format(CAST(resource_tags AS JSON)) AS {| identifier .Columns.ResourceTags |},
	line_item_usage_start_date AS {| identifier .Columns.StartDate |},
	line_item_usage_end_date AS {| identifier .Columns.EndDate |},
	line_item_usage_amount AS {| identifier .Columns.UsageAmount |}
FROM {| .Table |}
{|- with .Conditions |}
WHERE {| join " AND " . |}
{|- end |}
ORDER BY line_item_usage_end_date ASC
{|- if gt .Limit 0 |}
LIMIT {| .Limit |}
{|- end |}`

// QueryParameters configures the billing query.
type QueryParameters struct {
	// Table is the database qualified billing table.
	Table   string
	Columns ColumnMapping
	// Start and End bound line_item_usage_end_date, End exclusive.
	Start *time.Time
	End   *time.Time
	// Limit caps the number of rows when positive.
	Limit int
}

type costQueryContext struct {
	QueryParameters
	Conditions []string
}

var costQueryTmpl = template.Must(newQueryTemplate("cost-query", costQueryTemplate))

func newQueryTemplate(name, queryTemplate string) (*template.Template, error) {
	funcs := sprig.TxtFuncMap()
	funcs["identifier"] = quoteIdentifier
	tmpl, err := template.New(name).Delims("{|", "|}").Funcs(funcs).Parse(queryTemplate)
	if err != nil {
		return nil, fmt.Errorf("error parsing query: %v", err)
	}
	return tmpl, nil
}

// RenderCostQuery renders the query selecting billing records. The
// effective cost is computed in the query as the first non-null of the
// reservation, savings plan and unblended costs, and nested map columns are
// returned as JSON text.
func RenderCostQuery(params QueryParameters) (string, error) {
	if params.Table == "" {
		return "", fmt.Errorf("table name cannot be empty")
	}
	params.Columns = params.Columns.WithDefaults()
	tmplCtx := costQueryContext{QueryParameters: params}
	if params.Start != nil {
		tmplCtx.Conditions = append(tmplCtx.Conditions, fmt.Sprintf("line_item_usage_end_date >= timestamp '%s'", prestoTimestamp(params.Start)))
	}
	if params.End != nil {
		tmplCtx.Conditions = append(tmplCtx.Conditions, fmt.Sprintf("line_item_usage_end_date < timestamp '%s'", prestoTimestamp(params.End)))
	}
	var buf bytes.Buffer
	if err := costQueryTmpl.Execute(&buf, tmplCtx); err != nil {
		return "", fmt.Errorf("error executing template: %v", err)
	}
	return buf.String(), nil
}

// quoteIdentifier returns s as a double quoted SQL identifier.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func prestoTimestamp(t *time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

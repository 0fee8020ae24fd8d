package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kube-reporting/cost-explorer/pkg/aggregate"
	"github.com/kube-reporting/cost-explorer/pkg/explorer"
)

const dateFormat = "2006-01-02"

var (
	criteria   aggregate.Criteria
	jsonOutput bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "loads the billing records of a target once and prints its cost views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *explorer.Service) error {
			d, err := queryDashboard(ctx, svc, projectID, targetName, criteria)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), d)
			}
			return printDashboard(cmd.OutOrStdout(), d)
		})
	},
}

func init() {
	fs := queryCmd.Flags()
	fs.StringVar(&projectID, "project", "", "the project of the target")
	fs.StringVar(&targetName, "target", "", "the name of the target to query")
	cobra.MarkFlagRequired(fs, "project")
	cobra.MarkFlagRequired(fs, "target")
	fs.BoolVar(&jsonOutput, "json", false, "print the views as JSON")

	fs.StringVar(&criteria.Account, "filter-account", "", "only include records whose account contains this value")
	fs.StringVar(&criteria.Product, "filter-product", "", "only include records whose product name contains this value")
	fs.StringVar(&criteria.ProductFamily, "filter-product-family", "", "only include records whose product family contains this value")
	fs.StringVar(&criteria.Region, "filter-region", "", "only include records whose region contains this value")
	fs.StringVar(&criteria.ResourceID, "filter-resource-id", "", "only include records whose resource ID contains this value")
	fs.StringVar(&criteria.Operation, "filter-operation", "", "only include records whose operation contains this value")
	fs.StringVar(&criteria.EffectiveCost, "filter-effective-cost", "", "only include records whose effective cost contains this value")
	fs.StringVar(&criteria.StartDate, "filter-start-date", "", "only include records whose start date contains this value")
	fs.StringVar(&criteria.EndDate, "filter-end-date", "", "only include records whose end date contains this value")
	fs.StringVar(&criteria.UsageAmount, "filter-usage-amount", "", "only include records whose usage amount contains this value")
}

// queryDashboard selects the target, waits for its pipeline and returns the
// filtered views.
func queryDashboard(ctx context.Context, svc *explorer.Service, project, name string, c aggregate.Criteria) (*explorer.DashboardResult, error) {
	if _, err := svc.SelectTarget(ctx, project, name); err != nil {
		return nil, err
	}
	svc.WaitForSelection(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return svc.Dashboard(ctx, c)
}

func printJSON(w io.Writer, d *explorer.DashboardResult) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printDashboard(w io.Writer, d *explorer.DashboardResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Target:\t%s/%s\n", d.ProjectID, d.TargetName)
	fmt.Fprintf(tw, "Records:\t%d\n", d.Records)
	fmt.Fprintf(tw, "Total cost:\t%.2f\n", d.TotalCost)
	if d.Diagnostics.Degraded() {
		fmt.Fprintf(tw, "Degraded:\t%d cells in %d of %d rows%s\n", d.Diagnostics.DegradedCells, d.Diagnostics.DegradedRows, d.Diagnostics.Rows, degradedColumns(d.Diagnostics.DegradedByColumn))
	}

	fmt.Fprintln(tw, "\nREGION\tCOST")
	printSlices(tw, d.ByRegion)
	fmt.Fprintln(tw, "\nPRODUCT\tCOST")
	printSlices(tw, d.ByProduct)

	fmt.Fprintln(tw, "\nDATE\tCOST\tTREND")
	for _, p := range d.ByDate {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Timestamp.Format(dateFormat), formatCost(p.Cost), formatCost(p.TrendCost))
	}
	return tw.Flush()
}

func printSlices(w io.Writer, slices []aggregate.Slice) {
	for _, s := range slices {
		fmt.Fprintf(w, "%s\t%.2f\n", s.Label, s.ActualValue)
	}
}

func formatCost(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func degradedColumns(byColumn map[string]int) string {
	if len(byColumn) == 0 {
		return ""
	}
	cols := lo.Keys(byColumn)
	sort.Strings(cols)
	counts := lo.Map(cols, func(col string, _ int) string {
		return fmt.Sprintf("%s: %d", col, byColumn[col])
	})
	return " (" + strings.Join(counts, ", ") + ")"
}

package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/preston-fay/televantage-copilot/chart"
	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/retriever"
)

// Tool names, shared with the orchestrator's dispatch and telemetry.
const (
	ToolRiskDistribution  = "get_risk_distribution"
	ToolFeatureImportance = "get_feature_importance"
	ToolROIByStrategy     = "get_roi_by_strategy"
	ToolARPUImpact        = "get_arpu_impact"
	ToolCLTV              = "get_cltv"
	ToolRAGSearch         = "rag_search"
)

// Searcher is the slice of the retriever the rag_search tool needs.
type Searcher interface {
	Retrieve(ctx context.Context, query string, opts retriever.Options) ([]retriever.Result, error)
}

// DefaultRegistry builds the copilot's standard tool set over the given
// dataset. The searcher may be nil, in which case rag_search reports
// that retrieval is unavailable.
func DefaultRegistry(dataset *churn.Dataset, searcher Searcher) *Registry {
	r := NewRegistry()
	for _, t := range []*Tool{
		riskDistributionTool(dataset),
		featureImportanceTool(dataset),
		roiByStrategyTool(dataset),
		arpuImpactTool(dataset),
		cltvTool(dataset),
		ragSearchTool(searcher),
	} {
		// Names are compile-time constants; duplicates cannot occur here.
		_ = r.Register(t)
	}
	return r
}

func riskDistributionTool(dataset *churn.Dataset) *Tool {
	return &Tool{
		Name:        ToolRiskDistribution,
		Description: "Break down the customer base by churn risk level, with a donut chart.",
		Handler: func(ctx context.Context, args map[string]any) (*Output, error) {
			table, _ := dataset.Table(churn.TableRiskDistribution)
			if len(table.Rows) == 0 {
				return &Output{Text: "No risk distribution data is available."}, nil
			}
			points := make([]chart.Point, 0, len(table.Rows))
			total := 0
			for _, row := range table.Rows {
				customers := row["customers"].(int)
				total += customers
				points = append(points, chart.Point{X: row["level"].(string), Y: float64(customers)})
			}
			c := &chart.Chart{
				Kind:   chart.KindDonut,
				Title:  "Customer Risk Distribution",
				Series: []chart.Series{{Name: "customers", Data: points}},
			}
			top := dataset.RiskLevels[0]
			for _, r := range dataset.RiskLevels[1:] {
				if r.Customers > top.Customers {
					top = r
				}
			}
			text := fmt.Sprintf("Across %d customers, the %s risk bucket is largest with %d customers (%.1f%% of the base).",
				total, top.Level, top.Customers, top.Share*100)
			return &Output{Table: &table, Chart: c, Text: text}, nil
		},
	}
}

func featureImportanceTool(dataset *churn.Dataset) *Tool {
	return &Tool{
		Name:        ToolFeatureImportance,
		Description: "Rank the churn model's top drivers by feature importance.",
		Parameters: []Parameter{
			{Name: "topN", Type: "number", Description: "How many drivers to return", Default: 5},
		},
		Handler: func(ctx context.Context, args map[string]any) (*Output, error) {
			topN := intArg(args, "topN", 5)
			table, _ := dataset.Table(churn.TableFeatureImportance)
			if len(table.Rows) == 0 {
				return &Output{Text: "No feature importance data is available."}, nil
			}
			sort.SliceStable(table.Rows, func(i, j int) bool {
				return table.Rows[i]["importance"].(float64) > table.Rows[j]["importance"].(float64)
			})
			if topN > 0 && topN < len(table.Rows) {
				table.Rows = table.Rows[:topN]
			}
			points := make([]chart.Point, 0, len(table.Rows))
			for _, row := range table.Rows {
				points = append(points, chart.Point{X: row["feature"].(string), Y: row["importance"].(float64)})
			}
			c := &chart.Chart{
				Kind:   chart.KindHorizontalBar,
				Title:  fmt.Sprintf("Top %d Churn Drivers", len(table.Rows)),
				XLabel: "Feature",
				YLabel: "Importance",
				Series: []chart.Series{{Name: "importance", Data: points}},
			}
			text := fmt.Sprintf("The strongest churn driver is %s with an importance of %.3f.",
				table.Rows[0]["feature"], table.Rows[0]["importance"])
			return &Output{Table: &table, Chart: c, Text: text}, nil
		},
	}
}

func roiByStrategyTool(dataset *churn.Dataset) *Tool {
	return &Tool{
		Name:        ToolROIByStrategy,
		Description: "Compare retention strategies by net benefit (savings minus investment).",
		Handler: func(ctx context.Context, args map[string]any) (*Output, error) {
			table, _ := dataset.Table(churn.TableROIByStrategy)
			if len(table.Rows) == 0 {
				return &Output{Text: "No strategy ROI data is available."}, nil
			}
			// Net benefit is the primary decision metric.
			sort.SliceStable(table.Rows, func(i, j int) bool {
				return table.Rows[i]["netBenefit"].(float64) > table.Rows[j]["netBenefit"].(float64)
			})
			points := make([]chart.Point, 0, len(table.Rows))
			for _, row := range table.Rows {
				points = append(points, chart.Point{X: row["strategy"].(string), Y: row["netBenefit"].(float64)})
			}
			c := &chart.Chart{
				Kind:   chart.KindBar,
				Title:  "Net Benefit by Retention Strategy",
				XLabel: "Strategy",
				YLabel: "Net Benefit ($)",
				Series: []chart.Series{{Name: "netBenefit", Data: points}},
			}
			text := fmt.Sprintf("%s delivers the highest net benefit at $%.0f.",
				table.Rows[0]["strategy"], table.Rows[0]["netBenefit"])
			return &Output{Table: &table, Chart: c, Text: text}, nil
		},
	}
}

func arpuImpactTool(dataset *churn.Dataset) *Tool {
	return &Tool{
		Name:        ToolARPUImpact,
		Description: "Project the ARPU impact of a churn-rate change using the linear elasticity model.",
		Parameters: []Parameter{
			{Name: "churnDeltaPct", Type: "number", Description: "Churn change in percentage points, negative for reduction", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (*Output, error) {
			delta := floatArg(args, "churnDeltaPct", 0)
			fin := dataset.Financials
			impact := fin.BaseARPU * fin.ARPUElasticity * delta / 100
			projected := fin.BaseARPU + impact
			table := &churn.Table{
				Columns: []string{"metric", "value"},
				Rows: []map[string]any{
					{"metric": "base_arpu", "value": fin.BaseARPU},
					{"metric": "churn_delta_pct", "value": delta},
					{"metric": "arpu_impact", "value": impact},
					{"metric": "projected_arpu", "value": projected},
				},
			}
			text := fmt.Sprintf("A %.1f%% churn change shifts ARPU by $%.2f, from $%.2f to $%.2f per customer per month.",
				delta, impact, fin.BaseARPU, projected)
			return &Output{Table: table, Text: text}, nil
		},
	}
}

func cltvTool(dataset *churn.Dataset) *Tool {
	return &Tool{
		Name:        ToolCLTV,
		Description: "Compute customer lifetime value from ARPU, gross margin, and monthly churn rate.",
		Handler: func(ctx context.Context, args map[string]any) (*Output, error) {
			fin := dataset.Financials
			if fin.MonthlyChurnRate <= 0 {
				return &Output{Text: "CLTV is undefined while the monthly churn rate is zero."}, nil
			}
			cltv := fin.BaseARPU * fin.GrossMargin / fin.MonthlyChurnRate
			table := &churn.Table{
				Columns: []string{"metric", "value"},
				Rows: []map[string]any{
					{"metric": "base_arpu", "value": fin.BaseARPU},
					{"metric": "gross_margin", "value": fin.GrossMargin},
					{"metric": "monthly_churn_rate", "value": fin.MonthlyChurnRate},
					{"metric": "cltv", "value": cltv},
				},
			}
			text := fmt.Sprintf("Customer lifetime value is $%.2f, from $%.2f ARPU at %.0f%% margin over a %.2f%% monthly churn rate.",
				cltv, fin.BaseARPU, fin.GrossMargin*100, fin.MonthlyChurnRate*100)
			return &Output{Table: table, Text: text}, nil
		},
	}
}

func ragSearchTool(searcher Searcher) *Tool {
	return &Tool{
		Name:        ToolRAGSearch,
		Description: "Search the strategy knowledge base for conceptual and methodological answers.",
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "The question to search for", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (*Output, error) {
			query, _ := args["query"].(string)
			if searcher == nil {
				return &Output{Text: "The knowledge base is not available right now."}, nil
			}
			results, err := searcher.Retrieve(ctx, query, retriever.Options{})
			if err != nil {
				// Retrieval failures are reported, never propagated.
				return &Output{Text: fmt.Sprintf("Knowledge base search failed: %v", err)}, nil
			}
			return &Output{
				Text:      retriever.FormatContext(results),
				Citations: retriever.Citations(results),
			}, nil
		},
	}
}

func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func floatArg(args map[string]any, name string, def float64) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

package executor

import (
	"strings"
	"testing"

	"github.com/preston-fay/televantage-copilot/chart"
	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/planner"
)

func newExecutor() *Executor {
	return New(churn.DefaultDataset())
}

func TestExecutePlanTopNFeatureImportance(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentDrivers,
		Operations: []planner.Operation{{
			From:    churn.TableFeatureImportance,
			OrderBy: &planner.OrderBy{Field: "importance", Desc: true},
			Limit:   3,
		}},
		NarrativeFocus: []string{"top drivers"},
		Citations:      []string{"model-drivers"},
	}
	res := newExecutor().ExecutePlan(plan)

	if len(res.Table.Rows) != 3 {
		t.Fatalf("limit 3 returned %d rows", len(res.Table.Rows))
	}
	max := 0.0
	for _, f := range churn.DefaultDataset().Features {
		if f.Importance > max {
			max = f.Importance
		}
	}
	if got := res.Table.Rows[0]["importance"].(float64); got != max {
		t.Fatalf("first row importance %v is not the dataset maximum %v", got, max)
	}
	if res.DataPoints != 3 {
		t.Fatalf("data points %d", res.DataPoints)
	}
}

func TestExecutePlanWhereComparators(t *testing.T) {
	e := newExecutor()
	cases := []struct {
		name   string
		filter planner.Filter
		verify func(t *testing.T, rows []map[string]any)
	}{
		{
			name:   "eq is case-insensitive",
			filter: planner.Filter{Field: "level", Op: "eq", Value: "HIGH"},
			verify: func(t *testing.T, rows []map[string]any) {
				if len(rows) != 1 || rows[0]["level"] != "High" {
					t.Fatalf("eq filter rows %+v", rows)
				}
			},
		},
		{
			name:   "gt on numbers",
			filter: planner.Filter{Field: "customers", Op: "gt", Value: float64(1000)},
			verify: func(t *testing.T, rows []map[string]any) {
				for _, row := range rows {
					if row["customers"].(int) <= 1000 {
						t.Fatalf("gt filter leaked row %+v", row)
					}
				}
				if len(rows) == 0 {
					t.Fatal("gt filter dropped everything")
				}
			},
		},
		{
			name:   "in set",
			filter: planner.Filter{Field: "level", Op: "in", Value: []any{"low", "critical"}},
			verify: func(t *testing.T, rows []map[string]any) {
				if len(rows) != 2 {
					t.Fatalf("in filter rows %+v", rows)
				}
			},
		},
		{
			name:   "contains substring",
			filter: planner.Filter{Field: "level", Op: "contains", Value: "iti"},
			verify: func(t *testing.T, rows []map[string]any) {
				if len(rows) != 1 || rows[0]["level"] != "Critical" {
					t.Fatalf("contains filter rows %+v", rows)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := &planner.Plan{
				Intent: planner.IntentRisk,
				Operations: []planner.Operation{{
					From:  churn.TableRiskDistribution,
					Where: []planner.Filter{tc.filter},
				}},
				NarrativeFocus: []string{"risk"},
				Citations:      []string{"risk-model"},
			}
			res := e.ExecutePlan(plan)
			tc.verify(t, res.Table.Rows)
		})
	}
}

func TestExecutePlanSelectProjection(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentRisk,
		Operations: []planner.Operation{{
			From:   churn.TableRiskDistribution,
			Select: []string{"level", "share"},
		}},
		NarrativeFocus: []string{"risk"},
		Citations:      []string{"risk-model"},
	}
	res := newExecutor().ExecutePlan(plan)

	if len(res.Table.Columns) != 2 || res.Table.Columns[0] != "level" || res.Table.Columns[1] != "share" {
		t.Fatalf("projection columns %v", res.Table.Columns)
	}
	for _, row := range res.Table.Rows {
		if _, ok := row["customers"]; ok {
			t.Fatal("projection kept an unselected field")
		}
	}
}

func TestExecutePlanUnknownDatasetSkipped(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentGeneric,
		Operations: []planner.Operation{
			{From: "orders"},
		},
		NarrativeFocus: []string{"anything"},
		Citations:      []string{"system"},
	}
	res := newExecutor().ExecutePlan(plan)

	if len(res.Table.Rows) != 0 {
		t.Fatalf("unknown dataset should leave an empty table, got %d rows", len(res.Table.Rows))
	}
	if res.Chart != nil {
		t.Fatal("no chart can be assembled from an empty table")
	}
	if !strings.Contains(res.Lead, "No matching data") {
		t.Fatalf("unexpected lead %q", res.Lead)
	}
}

func TestExecutePlanChartHeuristicAxes(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentROICompare,
		Operations: []planner.Operation{{
			From:    churn.TableROIByStrategy,
			OrderBy: &planner.OrderBy{Field: "netBenefit", Desc: true},
		}},
		Chart:          &planner.ChartPlan{Kind: chart.KindBar, Title: "Net Benefit by Strategy"},
		NarrativeFocus: []string{"roi"},
		Citations:      []string{"roi-methodology"},
	}
	res := newExecutor().ExecutePlan(plan)

	if res.Chart == nil {
		t.Fatal("expected a chart")
	}
	// First column is the x axis; first numeric column is the y axis.
	if res.Chart.Series[0].Data[0].X == "" {
		t.Fatal("x values must be stringified row labels")
	}
	if res.Chart.XLabel != "Strategy" || res.Chart.YLabel != "Investment" {
		t.Fatalf("synthesized labels = %q / %q", res.Chart.XLabel, res.Chart.YLabel)
	}
	if v := chart.Validate(res.Chart); !v.Valid {
		t.Fatalf("assembled bar chart must validate, got %v", v.Errors)
	}
}

func TestExecutePlanChartFieldRoles(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentROICompare,
		Operations: []planner.Operation{{
			From:    churn.TableROIByStrategy,
			OrderBy: &planner.OrderBy{Field: "netBenefit", Desc: true},
		}},
		Chart: &planner.ChartPlan{
			Kind:   chart.KindHorizontalBar,
			Title:  "Net Benefit by Strategy",
			XField: "strategy",
			YField: "netBenefit",
		},
		NarrativeFocus: []string{"roi"},
		Citations:      []string{"roi-methodology"},
	}
	res := newExecutor().ExecutePlan(plan)

	if res.Chart == nil {
		t.Fatal("expected a chart")
	}
	if res.Chart.YLabel != "NetBenefit" {
		t.Fatalf("label should derive from the declared y field, got %q", res.Chart.YLabel)
	}
	ds := churn.DefaultDataset()
	wantTop := 0.0
	for _, s := range ds.Strategies {
		if nb := s.Savings - s.Investment; nb > wantTop {
			wantTop = nb
		}
	}
	if got := res.Chart.Series[0].Data[0].Y; got != wantTop {
		t.Fatalf("top point %v is not the best net benefit %v", got, wantTop)
	}
}

func TestExecutePlanDonutOmitsAxisLabels(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentRiskDist,
		Operations: []planner.Operation{{
			From: churn.TableRiskDistribution,
		}},
		Chart:          &planner.ChartPlan{Kind: chart.KindDonut, Title: "Customer Risk Distribution"},
		NarrativeFocus: []string{"risk"},
		Citations:      []string{"risk-model"},
	}
	res := newExecutor().ExecutePlan(plan)

	if res.Chart == nil {
		t.Fatal("expected a donut chart")
	}
	if res.Chart.XLabel != "" || res.Chart.YLabel != "" {
		t.Fatalf("donut charts never carry axis labels, got %q / %q", res.Chart.XLabel, res.Chart.YLabel)
	}
	if len(res.Chart.Series[0].Data) != 4 {
		t.Fatalf("expected one point per risk level, got %d", len(res.Chart.Series[0].Data))
	}
}

func TestLeadSentenceFormatting(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentROICompare,
		Operations: []planner.Operation{{
			From:    churn.TableROIByStrategy,
			OrderBy: &planner.OrderBy{Field: "netBenefit", Desc: true},
		}},
		NarrativeFocus: []string{"net benefit"},
		Citations:      []string{"roi-methodology"},
	}
	res := newExecutor().ExecutePlan(plan)

	if !strings.Contains(res.Lead, "$") {
		t.Fatalf("large values should format as money: %q", res.Lead)
	}
	if !strings.Contains(res.Lead, "follows at") {
		t.Fatalf("narrative focus should add a runner-up sentence: %q", res.Lead)
	}
}

func TestLeadSentencePercentFormatting(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentRisk,
		Operations: []planner.Operation{{
			From:    churn.TableRiskDistribution,
			Select:  []string{"level", "share"},
			OrderBy: &planner.OrderBy{Field: "share", Desc: true},
		}},
		NarrativeFocus: []string{"share"},
		Citations:      []string{"risk-model"},
	}
	res := newExecutor().ExecutePlan(plan)

	if !strings.Contains(res.Lead, "%") {
		t.Fatalf("fractional values should format as percentages: %q", res.Lead)
	}
}

func TestStableOrderBy(t *testing.T) {
	plan := &planner.Plan{
		Intent: planner.IntentRisk,
		Operations: []planner.Operation{{
			From:    churn.TableRiskDistribution,
			OrderBy: &planner.OrderBy{Field: "level"},
		}},
		NarrativeFocus: []string{"risk"},
		Citations:      []string{"risk-model"},
	}
	res := newExecutor().ExecutePlan(plan)

	prev := ""
	for _, row := range res.Table.Rows {
		level := row["level"].(string)
		if prev != "" && level < prev {
			t.Fatalf("rows not in ascending order: %q before %q", prev, level)
		}
		prev = level
	}
}

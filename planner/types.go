package planner

import (
	"fmt"
	"strings"

	"github.com/preston-fay/televantage-copilot/chart"
)

// Intent classifies what kind of numeric question the plan answers.
type Intent string

const (
	IntentDrivers         Intent = "drivers"
	IntentRisk            Intent = "risk"
	IntentROICompare      Intent = "roi_compare"
	IntentSegmentDeepdive Intent = "segment_deepdive"
	IntentFinancialKPIs   Intent = "financial_kpis"
	IntentGeneric         Intent = "generic"
	IntentARPU            Intent = "arpu"
	IntentCLTV            Intent = "cltv"
	IntentIRR             Intent = "irr"
	IntentRiskDist        Intent = "risk_dist"
)

var validIntents = map[Intent]bool{
	IntentDrivers:         true,
	IntentRisk:            true,
	IntentROICompare:      true,
	IntentSegmentDeepdive: true,
	IntentFinancialKPIs:   true,
	IntentGeneric:         true,
	IntentARPU:            true,
	IntentCLTV:            true,
	IntentIRR:             true,
	IntentRiskDist:        true,
}

// Filter is one where-clause predicate. Op is one of eq, gt, lt, gte,
// lte, in, contains.
type Filter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// OrderBy sorts operation output on one field.
type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Operation is one dataset transform step: read a named table, then
// apply filters, projection, ordering, and truncation in that order.
type Operation struct {
	From    string   `json:"from"`
	Where   []Filter `json:"where,omitempty"`
	Select  []string `json:"select,omitempty"`
	OrderBy *OrderBy `json:"orderBy,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// ChartPlan declares the chart the executor should assemble. XField and
// YField name which output columns carry the category and value axes;
// when absent the executor falls back to a first-string/first-numeric
// heuristic.
type ChartPlan struct {
	Kind   chart.Kind `json:"kind"`
	Title  string     `json:"title"`
	XLabel string     `json:"xLabel,omitempty"`
	YLabel string     `json:"yLabel,omitempty"`
	XField string     `json:"xField,omitempty"`
	YField string     `json:"yField,omitempty"`
}

// Plan is the schema-validated description of how to answer a numeric
// query.
type Plan struct {
	Intent         Intent      `json:"intent"`
	Metrics        []string    `json:"metrics,omitempty"`
	Operations     []Operation `json:"operations"`
	Chart          *ChartPlan  `json:"chart,omitempty"`
	NarrativeFocus []string    `json:"narrativeFocus"`
	Citations      []string    `json:"citations"`
}

// Validate checks the plan against the schema. All violations are
// collected into one error so a reviewer sees every problem at once.
func (p *Plan) Validate() error {
	var errs []string
	if !validIntents[p.Intent] {
		errs = append(errs, fmt.Sprintf("unknown intent %q", p.Intent))
	}
	if len(p.Operations) == 0 {
		errs = append(errs, "plan must have at least one operation")
	}
	for i, op := range p.Operations {
		if strings.TrimSpace(op.From) == "" {
			errs = append(errs, fmt.Sprintf("operation %d is missing its source table", i))
		}
		for j, f := range op.Where {
			if !validFilterOp(f.Op) {
				errs = append(errs, fmt.Sprintf("operation %d filter %d has unknown comparator %q", i, j, f.Op))
			}
		}
	}
	if p.Chart != nil {
		if !chart.ValidKind(p.Chart.Kind) {
			errs = append(errs, fmt.Sprintf("unknown chart kind %q", p.Chart.Kind))
		}
		if len(strings.TrimSpace(p.Chart.Title)) < 3 {
			errs = append(errs, "chart title must be at least 3 characters")
		}
	}
	if len(p.NarrativeFocus) == 0 {
		errs = append(errs, "plan must name at least one narrative focus")
	}
	if len(p.Citations) == 0 {
		errs = append(errs, "plan must name at least one citation")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrPlanInvalid, strings.Join(errs, "; "))
	}
	return nil
}

func validFilterOp(op string) bool {
	switch op {
	case "eq", "gt", "lt", "gte", "lte", "in", "contains":
		return true
	}
	return false
}

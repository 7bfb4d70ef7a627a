// Package executor runs validated query plans against the in-memory
// churn dataset, producing a table, a renderable chart, and a lead
// sentence for the answer narrative.
package executor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/preston-fay/televantage-copilot/chart"
	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/planner"
)

// Result is the outcome of executing one plan.
type Result struct {
	Table      churn.Table
	Chart      *chart.Chart
	Lead       string
	DataPoints int
}

// Executor applies plan operations to an injected dataset. The dataset
// is read-only; every pipeline stage works on copies.
type Executor struct {
	dataset *churn.Dataset
	logger  *slog.Logger
}

// New creates an executor over the given dataset.
func New(dataset *churn.Dataset) *Executor {
	return &Executor{
		dataset: dataset,
		logger:  logging.WithComponent("executor"),
	}
}

// ExecutePlan runs every operation in order and assembles the chart and
// lead sentence from the final table. An operation naming an unknown
// table is skipped with a warning; the working table keeps its previous
// value.
func (e *Executor) ExecutePlan(plan *planner.Plan) Result {
	var table churn.Table
	for i, op := range plan.Operations {
		source, ok := e.dataset.Table(op.From)
		if !ok {
			e.logger.Warn("operation references unknown dataset, skipping",
				"operation", i, "from", op.From)
			continue
		}
		table = e.applyOperation(source.Clone(), op)
	}

	res := Result{Table: table, DataPoints: len(table.Rows)}
	if plan.Chart != nil && len(table.Rows) > 0 {
		res.Chart = assembleChart(plan.Chart, table)
	}
	res.Lead = leadSentence(table, plan.NarrativeFocus)
	return res
}

func (e *Executor) applyOperation(t churn.Table, op planner.Operation) churn.Table {
	for _, f := range op.Where {
		t = applyFilter(t, f)
	}
	if len(op.Select) > 0 {
		t = project(t, op.Select)
	}
	if op.OrderBy != nil {
		orderBy(t, *op.OrderBy)
	}
	if op.Limit > 0 && op.Limit < len(t.Rows) {
		t.Rows = t.Rows[:op.Limit]
	}
	return t
}

func applyFilter(t churn.Table, f planner.Filter) churn.Table {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if matchesFilter(row[f.Field], f) {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
	return t
}

func matchesFilter(value any, f planner.Filter) bool {
	switch f.Op {
	case "eq":
		if a, b, ok := bothNumeric(value, f.Value); ok {
			return a == b
		}
		return strings.EqualFold(stringify(value), stringify(f.Value))
	case "gt":
		a, b, ok := bothNumeric(value, f.Value)
		return ok && a > b
	case "lt":
		a, b, ok := bothNumeric(value, f.Value)
		return ok && a < b
	case "gte":
		a, b, ok := bothNumeric(value, f.Value)
		return ok && a >= b
	case "lte":
		a, b, ok := bothNumeric(value, f.Value)
		return ok && a <= b
	case "in":
		options, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, opt := range options {
			if strings.EqualFold(stringify(value), stringify(opt)) {
				return true
			}
		}
		return false
	case "contains":
		return strings.Contains(
			strings.ToLower(stringify(value)),
			strings.ToLower(stringify(f.Value)),
		)
	}
	return false
}

func project(t churn.Table, fields []string) churn.Table {
	out := churn.Table{Columns: append([]string(nil), fields...)}
	out.Rows = make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		projected := make(map[string]any, len(fields))
		for _, field := range fields {
			if v, ok := row[field]; ok {
				projected[field] = v
			}
		}
		out.Rows[i] = projected
	}
	return out
}

// orderBy sorts rows in place. Numeric values compare numerically;
// mixed or non-numeric values fall back to string comparison.
func orderBy(t churn.Table, ob planner.OrderBy) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		less := lessValue(t.Rows[i][ob.Field], t.Rows[j][ob.Field])
		if ob.Desc {
			return lessValue(t.Rows[j][ob.Field], t.Rows[i][ob.Field])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	if x, y, ok := bothNumeric(a, b); ok {
		return x < y
	}
	return stringify(a) < stringify(b)
}

// assembleChart binds table columns to chart axes. Field roles from the
// plan win; otherwise the first column becomes x and the first numeric
// column becomes y. Non-donut charts always leave with both axis labels.
func assembleChart(cp *planner.ChartPlan, t churn.Table) *chart.Chart {
	xField := cp.XField
	if xField == "" {
		xField = firstColumn(t)
	}
	yField := cp.YField
	if yField == "" {
		yField = firstNumericColumn(t, xField)
	}
	if xField == "" || yField == "" {
		return nil
	}

	points := make([]chart.Point, 0, len(t.Rows))
	for _, row := range t.Rows {
		y, ok := toFloat(row[yField])
		if !ok {
			continue
		}
		points = append(points, chart.Point{X: stringify(row[xField]), Y: y})
	}
	if len(points) == 0 {
		return nil
	}

	c := &chart.Chart{
		Kind:   cp.Kind,
		Title:  cp.Title,
		Series: []chart.Series{{Name: yField, Data: points}},
	}
	if cp.Kind != chart.KindDonut {
		c.XLabel = cp.XLabel
		if c.XLabel == "" {
			c.XLabel = labelFromField(xField)
		}
		c.YLabel = cp.YLabel
		if c.YLabel == "" {
			c.YLabel = labelFromField(yField)
		}
	}
	return c
}

func firstColumn(t churn.Table) string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Columns[0]
}

func firstNumericColumn(t churn.Table, exclude string) string {
	if len(t.Rows) == 0 {
		return ""
	}
	for _, col := range t.Columns {
		if col == exclude {
			continue
		}
		if _, ok := toFloat(t.Rows[0][col]); ok {
			return col
		}
	}
	return ""
}

// labelFromField turns a snake_case or camelCase field name into a
// display label.
func labelFromField(field string) string {
	field = strings.ReplaceAll(field, "_", " ")
	words := strings.Fields(field)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// leadSentence describes the top row of the table, naming its first
// textual field and formatting its first numeric field. A second
// sentence names the runner-up when a narrative focus was requested.
func leadSentence(t churn.Table, narrativeFocus []string) string {
	if len(t.Rows) == 0 {
		return "No matching data was found for this question."
	}
	labelField := firstTextColumn(t)
	valueField := firstNumericColumn(t, "")
	if valueField == "" {
		return "The requested data was found but contains no numeric values."
	}

	topLabel := stringify(t.Rows[0][labelField])
	topValue, _ := toFloat(t.Rows[0][valueField])
	lead := fmt.Sprintf("%s leads with %s on %s.", topLabel, formatValue(topValue), labelFromField(valueField))

	if len(narrativeFocus) > 0 && len(t.Rows) > 1 {
		nextLabel := stringify(t.Rows[1][labelField])
		nextValue, _ := toFloat(t.Rows[1][valueField])
		lead += fmt.Sprintf(" %s follows at %s.", nextLabel, formatValue(nextValue))
	}
	return lead
}

func firstTextColumn(t churn.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	for _, col := range t.Columns {
		if _, numeric := toFloat(t.Rows[0][col]); !numeric {
			return col
		}
	}
	return firstColumn(t)
}

// formatValue renders a number the way an analyst would read it:
// fractions as percentages, large amounts as money, the rest raw.
func formatValue(v float64) string {
	switch {
	case v < 1 && v > -1:
		return fmt.Sprintf("%.1f%%", v*100)
	case v > 1000 || v < -1000:
		return fmt.Sprintf("$%.0f", v)
	default:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	}
}

func bothNumeric(a, b any) (float64, float64, bool) {
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	return x, y, okA && okB
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

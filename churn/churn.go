package churn

import "fmt"

// RiskLevel describes one bucket of the customer risk distribution.
type RiskLevel struct {
	Level        string  `json:"level"`
	Customers    int     `json:"customers"`
	Share        float64 `json:"share"`
	AvgChurnProb float64 `json:"avg_churn_prob"`
}

// FeatureImportance is one row of the churn model's feature-importance table.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Direction  string  `json:"direction"` // "increases" or "decreases" churn risk
}

// Segment describes a customer segment and its churn characteristics.
type Segment struct {
	Name            string  `json:"name"`
	Customers       int     `json:"customers"`
	ChurnRate       float64 `json:"churn_rate"`
	AvgTenureMonths float64 `json:"avg_tenure_months"`
	ARPU            float64 `json:"arpu"`
}

// Strategy is one retention strategy with its modeled investment and savings.
type Strategy struct {
	Name          string  `json:"name"`
	Investment    float64 `json:"investment"`
	Savings       float64 `json:"savings"`
	TargetSegment string  `json:"target_segment"`
}

// Financials holds the baseline financial assumptions used by the
// ARPU and CLTV tools.
type Financials struct {
	BaseARPU         float64 `json:"base_arpu"`
	GrossMargin      float64 `json:"gross_margin"`
	MonthlyChurnRate float64 `json:"monthly_churn_rate"`
	ARPUElasticity   float64 `json:"arpu_elasticity"`
	CustomerCount    int     `json:"customer_count"`
}

// Dataset is the in-memory application dataset the tools and the executor
// operate on. It is injected once at construction time and treated as
// read-only afterwards.
type Dataset struct {
	RiskLevels []RiskLevel         `json:"risk_levels"`
	Features   []FeatureImportance `json:"features"`
	Segments   []Segment           `json:"segments"`
	Strategies []Strategy          `json:"strategies"`
	Financials Financials          `json:"financials"`
}

// Table is an ordered tabular view over dataset rows. Columns records field
// order so downstream chart assembly can reason about "first field" and
// "first numeric field" deterministically.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// Clone returns a deep copy so pipeline stages can mutate freely.
func (t Table) Clone() Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		cloned := make(map[string]any, len(row))
		for k, v := range row {
			cloned[k] = v
		}
		out.Rows[i] = cloned
	}
	return out
}

// Dataset table names resolvable by the executor and the tools.
const (
	TableRiskDistribution  = "risk_distribution"
	TableFeatureImportance = "feature_importance"
	TableROIByStrategy     = "roi_by_strategy"
	TableSegments          = "segments"
	TableFinancials        = "financials"
)

// TableNames lists every resolvable dataset name.
func TableNames() []string {
	return []string{
		TableRiskDistribution,
		TableFeatureImportance,
		TableROIByStrategy,
		TableSegments,
		TableFinancials,
	}
}

// Table resolves a named tabular view over the dataset. The bool reports
// whether the name is known.
func (d *Dataset) Table(name string) (Table, bool) {
	switch name {
	case TableRiskDistribution:
		t := Table{Columns: []string{"level", "customers", "share", "avg_churn_prob"}}
		for _, r := range d.RiskLevels {
			t.Rows = append(t.Rows, map[string]any{
				"level":          r.Level,
				"customers":      r.Customers,
				"share":          r.Share,
				"avg_churn_prob": r.AvgChurnProb,
			})
		}
		return t, true
	case TableFeatureImportance:
		t := Table{Columns: []string{"feature", "importance", "direction"}}
		for _, f := range d.Features {
			t.Rows = append(t.Rows, map[string]any{
				"feature":    f.Feature,
				"importance": f.Importance,
				"direction":  f.Direction,
			})
		}
		return t, true
	case TableROIByStrategy:
		t := Table{Columns: []string{"strategy", "investment", "savings", "netBenefit", "target_segment"}}
		for _, s := range d.Strategies {
			t.Rows = append(t.Rows, map[string]any{
				"strategy":       s.Name,
				"investment":     s.Investment,
				"savings":        s.Savings,
				"netBenefit":     s.Savings - s.Investment,
				"target_segment": s.TargetSegment,
			})
		}
		return t, true
	case TableSegments:
		t := Table{Columns: []string{"segment", "customers", "churn_rate", "avg_tenure_months", "arpu"}}
		for _, s := range d.Segments {
			t.Rows = append(t.Rows, map[string]any{
				"segment":           s.Name,
				"customers":         s.Customers,
				"churn_rate":        s.ChurnRate,
				"avg_tenure_months": s.AvgTenureMonths,
				"arpu":              s.ARPU,
			})
		}
		return t, true
	case TableFinancials:
		t := Table{Columns: []string{"metric", "value"}}
		t.Rows = append(t.Rows,
			map[string]any{"metric": "base_arpu", "value": d.Financials.BaseARPU},
			map[string]any{"metric": "gross_margin", "value": d.Financials.GrossMargin},
			map[string]any{"metric": "monthly_churn_rate", "value": d.Financials.MonthlyChurnRate},
			map[string]any{"metric": "arpu_elasticity", "value": d.Financials.ARPUElasticity},
			map[string]any{"metric": "customer_count", "value": d.Financials.CustomerCount},
		)
		return t, true
	}
	return Table{}, false
}

// Validate checks the dataset is usable by the tools.
func (d *Dataset) Validate() error {
	if d == nil {
		return fmt.Errorf("dataset cannot be nil")
	}
	if len(d.RiskLevels) == 0 {
		return fmt.Errorf("dataset has no risk levels")
	}
	if d.Financials.MonthlyChurnRate <= 0 {
		return fmt.Errorf("monthly churn rate must be positive, got %v", d.Financials.MonthlyChurnRate)
	}
	if d.Financials.GrossMargin <= 0 || d.Financials.GrossMargin > 1 {
		return fmt.Errorf("gross margin must be in (0, 1], got %v", d.Financials.GrossMargin)
	}
	return nil
}

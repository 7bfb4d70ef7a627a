package churn

// DefaultDataset returns the reference fixture derived from the Televantage
// churn model outputs. Callers that load live metrics should build their own
// Dataset instead.
func DefaultDataset() *Dataset {
	return &Dataset{
		RiskLevels: []RiskLevel{
			{Level: "Low", Customers: 3962, Share: 0.563, AvgChurnProb: 0.07},
			{Level: "Medium", Customers: 1706, Share: 0.242, AvgChurnProb: 0.28},
			{Level: "High", Customers: 918, Share: 0.130, AvgChurnProb: 0.54},
			{Level: "Critical", Customers: 457, Share: 0.065, AvgChurnProb: 0.81},
		},
		Features: []FeatureImportance{
			{Feature: "Contract: month-to-month", Importance: 0.231, Direction: "increases"},
			{Feature: "Tenure (months)", Importance: 0.187, Direction: "decreases"},
			{Feature: "Fiber optic internet", Importance: 0.142, Direction: "increases"},
			{Feature: "Electronic check payment", Importance: 0.097, Direction: "increases"},
			{Feature: "Monthly charges", Importance: 0.089, Direction: "increases"},
			{Feature: "No tech support", Importance: 0.071, Direction: "increases"},
			{Feature: "No online security", Importance: 0.064, Direction: "increases"},
			{Feature: "Paperless billing", Importance: 0.048, Direction: "increases"},
			{Feature: "Partner on account", Importance: 0.037, Direction: "decreases"},
			{Feature: "Two-year contract", Importance: 0.034, Direction: "decreases"},
		},
		Segments: []Segment{
			{Name: "Month-to-month", Customers: 3875, ChurnRate: 0.427, AvgTenureMonths: 18.0, ARPU: 66.40},
			{Name: "One-year contract", Customers: 1473, ChurnRate: 0.113, AvgTenureMonths: 42.0, ARPU: 65.05},
			{Name: "Two-year contract", Customers: 1695, ChurnRate: 0.028, AvgTenureMonths: 56.7, ARPU: 60.77},
			{Name: "New customers (<12mo)", Customers: 2186, ChurnRate: 0.476, AvgTenureMonths: 5.4, ARPU: 56.20},
		},
		Strategies: []Strategy{
			{Name: "Contract conversion incentives", Investment: 1_200_000, Savings: 3_400_000, TargetSegment: "Month-to-month"},
			{Name: "First-90-days onboarding", Investment: 650_000, Savings: 1_950_000, TargetSegment: "New customers (<12mo)"},
			{Name: "Fiber reliability program", Investment: 2_100_000, Savings: 3_050_000, TargetSegment: "Month-to-month"},
			{Name: "Autopay migration rewards", Investment: 300_000, Savings: 840_000, TargetSegment: "Month-to-month"},
			{Name: "Premium support bundle", Investment: 900_000, Savings: 1_150_000, TargetSegment: "One-year contract"},
		},
		Financials: Financials{
			BaseARPU:         64.76,
			GrossMargin:      0.55,
			MonthlyChurnRate: 0.0265,
			ARPUElasticity:   0.18,
			CustomerCount:    7043,
		},
	}
}

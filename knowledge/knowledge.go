// Package knowledge ships the default strategy knowledge base the
// corpus is built from.
package knowledge

import (
	_ "embed"

	"github.com/preston-fay/televantage-copilot/chunking"
)

//go:embed strategy_knowledge.md
var document string

// Document returns the bundled strategy knowledge base in markdown.
func Document() string {
	return document
}

// Sections returns the section index matching the bundled document.
func Sections() []chunking.Section {
	return []chunking.Section{
		{
			ID:      "executive-summary",
			Title:   "Executive Summary",
			Tags:    []string{"business", "strategy"},
			Summary: "Headline churn findings and where retention spend should go.",
		},
		{
			ID:      "risk-model",
			Title:   "Churn Risk Model",
			Tags:    []string{"model", "risk"},
			Summary: "How risk scores are produced and bucketed into four levels.",
		},
		{
			ID:      "model-drivers",
			Title:   "Model Drivers",
			Tags:    []string{"model"},
			Summary: "Feature importance: contract type, tenure, service mix, payment method.",
		},
		{
			ID:      "business-economics",
			Title:   "Business Economics",
			Tags:    []string{"business", "finance"},
			Summary: "ARPU, CLTV, and the ARPU elasticity model.",
		},
		{
			ID:      "retention-strategies",
			Title:   "Retention Strategies",
			Tags:    []string{"strategy", "finance"},
			Summary: "Strategy comparison by net benefit and how to read ROI.",
		},
		{
			ID:      "segments",
			Title:   "Customer Segments",
			Tags:    []string{"segments"},
			Summary: "Contract and tenure based segments and their churn profiles.",
		},
	}
}

// Package router decides whether a free-text question should be answered
// through semantic retrieval or through deterministic numeric tools.
package router

import (
	"strings"
)

// Route names a dispatch target for a scored query.
type Route string

const (
	RouteRAG     Route = "rag"
	RouteNumeric Route = "numeric"
	RouteHybrid  Route = "hybrid"
	RouteGeneric Route = "generic"
)

// Score is the per-query routing verdict. RagScore and NumericScore count
// keyword hits on each axis; PreferRag and IsHybrid carry the override
// rules' outcome.
type Score struct {
	RagScore     int  `json:"ragScore"`
	NumericScore int  `json:"numericScore"`
	PreferRag    bool `json:"preferRag"`
	IsHybrid     bool `json:"isHybrid"`
}

// conceptualKeywords signal that the user wants an explanation rather
// than a number.
var conceptualKeywords = []string{
	"what is",
	"what are",
	"define",
	"explain",
	"describe",
	"tell me",
	"how does",
	"how do",
	"why",
	"overview",
	"background",
	"meaning",
	"concept",
	"business",
	"economics",
	"strategy",
	"recommendation",
	"insight",
	"methodology",
	"model",
}

// numericKeywords signal that the user wants data, a comparison, or a
// chart.
var numericKeywords = []string{
	"roi",
	"irr",
	"npv",
	"arpu",
	"cltv",
	"compare",
	"comparison",
	"show me",
	"chart",
	"graph",
	"plot",
	"top",
	"rank",
	"segment",
	"tenure",
	"contract",
	"month-to-month",
	"drivers",
	"distribution",
	"breakdown",
	"how many",
	"percentage",
	"rate",
}

// strongConceptualPhrases force the RAG preference regardless of scores.
var strongConceptualPhrases = []string{
	"what is",
	"what are",
	"define",
	"explain",
	"describe",
	"how does",
	"why does",
	"why is",
}

// mandatoryNumericKeywords force the numeric preference unless a strong
// conceptual phrase is present.
var mandatoryNumericKeywords = []string{
	"month-to-month",
	"mtm",
	"m2m",
	"tenure",
	"contract",
	"segment",
	"roi",
	"arpu",
	"cltv",
	"drivers",
	"feature importance",
	"risk distribution",
}

var visualizationKeywords = []string{"show", "chart", "graph", "plot", "visualize", "distribution", "breakdown"}

// Router scores queries against fixed keyword lists. It holds no mutable
// state, so one instance can serve concurrent callers.
type Router struct{}

// New creates a router.
func New() *Router {
	return &Router{}
}

// ScoreRoute scores the query on the conceptual and numeric axes and
// applies the override precedence: strong conceptual phrase beats
// mandatory numeric keyword beats raw score comparison, with ties
// favoring RAG.
func (r *Router) ScoreRoute(query string) Score {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Score{PreferRag: true}
	}

	var s Score
	for _, kw := range conceptualKeywords {
		s.RagScore += strings.Count(q, kw)
	}
	// Longer queries tend to be explanatory questions.
	lengthBonus := len(q) / 60
	if lengthBonus > 2 {
		lengthBonus = 2
	}
	s.RagScore += lengthBonus

	for _, kw := range numericKeywords {
		s.NumericScore += strings.Count(q, kw)
	}

	strongConceptual := containsAny(q, strongConceptualPhrases)
	switch {
	case strongConceptual:
		s.PreferRag = true
	case containsAny(q, mandatoryNumericKeywords):
		s.PreferRag = false
	default:
		s.PreferRag = s.RagScore >= s.NumericScore
	}

	// A strong conceptual phrase wins outright; such queries never take
	// the hybrid path.
	s.IsHybrid = !strongConceptual && isHybrid(q)
	return s
}

// isHybrid detects questions that want both data and narrative: a data
// keyword plus either a visualization keyword or an exploratory phrase,
// in a query of at least four tokens.
func isHybrid(q string) bool {
	if len(strings.Fields(q)) < 4 {
		return false
	}
	if !containsAny(q, numericKeywords) && !containsAny(q, mandatoryNumericKeywords) {
		return false
	}
	return containsAny(q, visualizationKeywords) || strings.Contains(q, "tell me about")
}

// Route maps the query's score to a dispatch target. Hybrid takes
// priority; then the RAG preference; then any numeric signal; otherwise
// generic.
func (r *Router) Route(query string) Route {
	s := r.ScoreRoute(query)
	switch {
	case s.IsHybrid:
		return RouteHybrid
	case s.PreferRag:
		return RouteRAG
	case s.NumericScore > 0:
		return RouteNumeric
	default:
		return RouteGeneric
	}
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

package copilot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/preston-fay/televantage-copilot/chart"
	"github.com/preston-fay/televantage-copilot/chunking"
	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/corpus"
	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/message"
	"github.com/preston-fay/televantage-copilot/planner"
	"github.com/preston-fay/televantage-copilot/retriever"
	"github.com/preston-fay/televantage-copilot/tools"
)

type stubSearcher struct {
	results []retriever.Result
	err     error
}

func (s *stubSearcher) Retrieve(ctx context.Context, query string, opts retriever.Options) ([]retriever.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type stubLLM struct {
	toolCall *message.ToolCall
	text     string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	msg := message.New(message.RoleAssistant, s.text)
	if s.toolCall != nil {
		msg.ToolCalls = []message.ToolCall{*s.toolCall}
	}
	return &llm.GenerateResponse{Message: msg}, nil
}

func (s *stubLLM) Model() string { return "stub-model" }

func economicsResults() []retriever.Result {
	return []retriever.Result{{
		Chunk: corpus.EmbeddedChunk{Chunk: chunking.Chunk{
			ID:        "business-economics_chunk_0",
			SectionID: "business-economics",
			Text:      "ARPU is average revenue per user, the monthly revenue divided by active customers.",
		}},
		Score:        0.88,
		SectionID:    "business-economics",
		SectionTitle: "Business Economics",
	}}
}

func newService(searcher tools.Searcher, opts ...Option) *Service {
	ds := churn.DefaultDataset()
	return New(tools.DefaultRegistry(ds, searcher), ds, opts...)
}

func TestAskConceptualQuestionUsesRetrieval(t *testing.T) {
	s := newService(&stubSearcher{results: economicsResults()})
	a := s.Ask(context.Background(), "What is ARPU?")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if !strings.Contains(a.Text, "average revenue per user") {
		t.Fatalf("answer should quote the retrieved passage, got %q", a.Text)
	}
	if a.Citations[0].Source != "business-economics" {
		t.Fatalf("expected a knowledge-base citation, got %+v", a.Citations)
	}
	if a.Chart != nil {
		t.Fatal("conceptual answers carry no chart")
	}
}

func TestAskRiskDistributionFallbackProducesDonut(t *testing.T) {
	// No LLM configured: the numeric path uses the keyword fallback.
	s := newService(&stubSearcher{err: retriever.ErrNoResults})
	a := s.Ask(context.Background(), "Show me customer risk distribution")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if a.Chart == nil || a.Chart.Kind != chart.KindDonut {
		t.Fatalf("expected a donut chart, got %+v", a.Chart)
	}
	if len(a.Chart.Series[0].Data) != 4 {
		t.Fatalf("expected one point per risk level, got %d", len(a.Chart.Series[0].Data))
	}
	if a.Chart.XLabel != "" || a.Chart.YLabel != "" {
		t.Fatal("donut charts never carry axis labels")
	}
}

func TestAskHybridEnrichesNumericAnswer(t *testing.T) {
	s := newService(&stubSearcher{results: economicsResults()})
	base := newService(&stubSearcher{err: retriever.ErrNoResults}).
		Ask(context.Background(), "Show me customer risk distribution")
	enriched := s.Ask(context.Background(), "Show me customer risk distribution")

	if err := enriched.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if len(enriched.Text) <= len(base.Text) {
		t.Fatalf("enriched answer should add narrative: %q vs %q", enriched.Text, base.Text)
	}
	found := false
	for _, c := range enriched.Citations {
		if c.Source == "business-economics" {
			found = true
		}
	}
	if !found {
		t.Fatalf("enrichment should merge retrieval citations, got %+v", enriched.Citations)
	}
}

func TestAskKeywordFallbackDispatch(t *testing.T) {
	s := newService(&stubSearcher{err: retriever.ErrNoResults})
	cases := []struct {
		query    string
		fragment string
	}{
		{"compare roi numbers", "net benefit"},
		{"cltv please", "lifetime value"},
	}
	for _, tc := range cases {
		a := s.Ask(context.Background(), tc.query)
		if err := a.Validate(); err != nil {
			t.Fatalf("Ask(%q) invalid: %v", tc.query, err)
		}
		if !strings.Contains(strings.ToLower(a.Text), tc.fragment) {
			t.Fatalf("Ask(%q) = %q, want mention of %q", tc.query, a.Text, tc.fragment)
		}
	}
}

func TestAskUnmatchedNumericQuestion(t *testing.T) {
	s := newService(&stubSearcher{err: retriever.ErrNoResults})
	a := s.Ask(context.Background(), "mtm")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if !strings.Contains(a.Text, "more specific question") {
		t.Fatalf("unmatched question should ask for specificity, got %q", a.Text)
	}
}

func TestAskLLMToolCallPath(t *testing.T) {
	s := newService(&stubSearcher{err: retriever.ErrNoResults},
		WithLLM(&stubLLM{toolCall: &message.ToolCall{
			ID:   "call_1",
			Name: tools.ToolFeatureImportance,
			Args: `{"topN": 3}`,
		}}))
	a := s.Ask(context.Background(), "rank the churn drivers")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if a.Chart == nil || len(a.Chart.Series[0].Data) != 3 {
		t.Fatalf("expected a 3-point driver chart, got %+v", a.Chart)
	}
	if a.Citations[0].Source != "model-drivers" {
		t.Fatalf("tool answers need a default citation, got %+v", a.Citations)
	}
}

func TestAskPlannedPath(t *testing.T) {
	planJSON := `{
  "intent": "drivers",
  "operations": [{"from": "feature_importance", "orderBy": {"field": "importance", "desc": true}, "limit": 3}],
  "chart": {"kind": "horizontal-bar", "title": "Top Churn Drivers", "xField": "feature", "yField": "importance"},
  "narrativeFocus": ["drivers"],
  "citations": ["model-drivers"]
}`
	client := &stubLLM{text: planJSON}
	s := newService(&stubSearcher{err: retriever.ErrNoResults},
		WithLLM(client), WithPlanner(planner.New(client)))
	a := s.Ask(context.Background(), "rank the churn drivers")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if a.Chart == nil || a.Chart.Kind != chart.KindHorizontalBar {
		t.Fatalf("expected the planned chart, got %+v", a.Chart)
	}
	if len(a.Chart.Series[0].Data) != 3 {
		t.Fatalf("plan limit lost, got %d points", len(a.Chart.Series[0].Data))
	}
	if a.Citations[0] != (Citation{Source: "model-drivers", Ref: "Model Drivers"}) {
		t.Fatalf("plan citations lost: %+v", a.Citations)
	}
	if !strings.Contains(a.Text, "%") {
		t.Fatalf("lead should format importances as percentages, got %q", a.Text)
	}
}

func TestAskPlanFailureFallsBackToToolFlow(t *testing.T) {
	// The reply is neither a plan nor a tool call, so the planned path
	// fails and the tool flow surfaces it as a plain text answer.
	client := &stubLLM{text: "The top three drivers are contract type, tenure, and support attachment."}
	s := newService(&stubSearcher{err: retriever.ErrNoResults},
		WithLLM(client), WithPlanner(planner.New(client)))
	a := s.Ask(context.Background(), "rank the churn drivers")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if !strings.Contains(a.Text, "top three drivers") {
		t.Fatalf("expected the text reply to become the answer, got %q", a.Text)
	}
}

func TestAskLLMTextReply(t *testing.T) {
	s := newService(&stubSearcher{err: retriever.ErrNoResults},
		WithLLM(&stubLLM{text: "The dataset covers 7043 customers across four risk levels."}))
	a := s.Ask(context.Background(), "compare roi numbers")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	if !strings.Contains(a.Text, "7043 customers") {
		t.Fatalf("plain text reply should become the answer, got %q", a.Text)
	}
	if a.Citations[0].Ref != "stub-model" {
		t.Fatalf("text answers cite the model, got %+v", a.Citations)
	}
}

func TestAskLLMFailureFallsBackToRetrieval(t *testing.T) {
	s := newService(&stubSearcher{results: economicsResults()},
		WithLLM(&stubLLM{err: errors.New("provider down")}))
	a := s.Ask(context.Background(), "compare roi numbers")

	if err := a.Validate(); err != nil {
		t.Fatalf("answer invalid: %v", err)
	}
	// Safety net is retrieval, never a guessed numeric tool.
	if a.Citations[0].Source != "business-economics" {
		t.Fatalf("expected retrieval safety net, got %+v", a.Citations)
	}
}

func TestAskEverythingDownStillAnswers(t *testing.T) {
	s := newService(&stubSearcher{err: errors.New("corpus offline")},
		WithLLM(&stubLLM{err: errors.New("provider down")}))
	a := s.Ask(context.Background(), "compare roi numbers")

	if err := a.Validate(); err != nil {
		t.Fatalf("final fallback must still be schema-valid: %v", err)
	}
	if !strings.Contains(a.Text, "could not answer") {
		t.Fatalf("expected the fixed error answer, got %q", a.Text)
	}
}

func TestAskNeverFailsForAnyInput(t *testing.T) {
	services := []*Service{
		newService(nil),
		newService(&stubSearcher{err: errors.New("corpus offline")}),
		newService(&stubSearcher{results: economicsResults()}),
	}
	inputs := []string{
		"",
		"   ",
		"\n\t",
		"What is ARPU?",
		strings.Repeat("why does churn happen ", 500),
		"???!!!",
		"show me 'quoted\" strings and \\ escapes",
	}
	for _, s := range services {
		for _, q := range inputs {
			a := s.Ask(context.Background(), q)
			if err := a.Validate(); err != nil {
				t.Fatalf("Ask(%.30q) produced an invalid answer: %v", q, err)
			}
		}
	}
}

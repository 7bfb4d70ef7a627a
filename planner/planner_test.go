package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/message"
)

// scriptedClient replies with a fixed string, an error, or a hang.
type scriptedClient struct {
	reply string
	err   error
	hang  time.Duration
}

func (c *scriptedClient) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if c.hang > 0 {
		select {
		case <-time.After(c.hang):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return &llm.GenerateResponse{Message: message.New(message.RoleAssistant, c.reply)}, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

const goodPlanJSON = `{
  "intent": "risk_dist",
  "metrics": ["risk_distribution"],
  "operations": [{"from": "risk_distribution", "orderBy": {"field": "customers", "desc": true}}],
  "chart": {"kind": "donut", "title": "Customer Risk Distribution"},
  "narrativeFocus": ["risk concentration"],
  "citations": ["risk-model"]
}`

func testSummary() ContextSummary {
	return ContextSummary{Tables: map[string]int{
		"risk_distribution":  4,
		"feature_importance": 10,
	}}
}

func TestBuildPlanSuccess(t *testing.T) {
	p := New(&scriptedClient{reply: goodPlanJSON})
	plan, err := p.BuildPlan(context.Background(), "show risk distribution", testSummary())
	if err != nil {
		t.Fatalf("build plan failed: %v", err)
	}
	if plan.Intent != IntentRiskDist {
		t.Fatalf("unexpected intent %q", plan.Intent)
	}
	if len(plan.Operations) != 1 || plan.Operations[0].From != "risk_distribution" {
		t.Fatalf("unexpected operations %+v", plan.Operations)
	}
	if plan.Chart == nil || plan.Chart.Title != "Customer Risk Distribution" {
		t.Fatalf("chart plan lost in decode: %+v", plan.Chart)
	}
}

func TestBuildPlanStripsCodeFences(t *testing.T) {
	p := New(&scriptedClient{reply: "```json\n" + goodPlanJSON + "\n```"})
	plan, err := p.BuildPlan(context.Background(), "show risk distribution", testSummary())
	if err != nil {
		t.Fatalf("fenced reply should decode, got %v", err)
	}
	if plan.Intent != IntentRiskDist {
		t.Fatalf("unexpected intent %q", plan.Intent)
	}
}

func TestBuildPlanNotJSON(t *testing.T) {
	p := New(&scriptedClient{reply: "I think you should look at risk levels."})
	_, err := p.BuildPlan(context.Background(), "show risk", testSummary())
	if !errors.Is(err, ErrNotJSON) {
		t.Fatalf("expected ErrNotJSON, got %v", err)
	}
}

func TestBuildPlanSchemaViolation(t *testing.T) {
	// Valid JSON, but no operations, no narrative focus, no citations.
	p := New(&scriptedClient{reply: `{"intent": "risk_dist", "operations": []}`})
	_, err := p.BuildPlan(context.Background(), "show risk", testSummary())
	if !errors.Is(err, ErrPlanInvalid) {
		t.Fatalf("expected ErrPlanInvalid, got %v", err)
	}
	if errors.Is(err, ErrNotJSON) {
		t.Fatal("schema violation must not be reported as a JSON parse failure")
	}
}

func TestBuildPlanProviderError(t *testing.T) {
	p := New(&scriptedClient{err: fmt.Errorf("rate limited")})
	_, err := p.BuildPlan(context.Background(), "show risk", testSummary())
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestBuildPlanTimeout(t *testing.T) {
	p := New(&scriptedClient{reply: goodPlanJSON, hang: time.Second}, WithTimeout(10*time.Millisecond))
	_, err := p.BuildPlan(context.Background(), "show risk", testSummary())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestBuildPlanNoClient(t *testing.T) {
	p := New(nil)
	_, err := p.BuildPlan(context.Background(), "show risk", testSummary())
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider for missing client, got %v", err)
	}
}

func TestPlanValidateCollectsAllViolations(t *testing.T) {
	p := &Plan{
		Intent:     Intent("roulette"),
		Operations: []Operation{{From: "", Where: []Filter{{Field: "x", Op: "between", Value: 1}}}},
		Chart:      &ChartPlan{Kind: "pie", Title: "ab"},
	}
	err := p.Validate()
	if !errors.Is(err, ErrPlanInvalid) {
		t.Fatalf("expected ErrPlanInvalid, got %v", err)
	}
	for _, fragment := range []string{
		"unknown intent",
		"missing its source table",
		"unknown comparator",
		"unknown chart kind",
		"title must be at least 3",
		"narrative focus",
		"citation",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("validation error missing %q: %v", fragment, err)
		}
	}
}

func TestSystemPromptListsTables(t *testing.T) {
	prompt := systemPrompt(testSummary())
	if !strings.Contains(prompt, "risk_distribution (4 rows)") {
		t.Fatalf("prompt missing table summary: %s", prompt)
	}
	if !strings.Contains(prompt, "feature_importance (10 rows)") {
		t.Fatalf("prompt missing table summary: %s", prompt)
	}
}

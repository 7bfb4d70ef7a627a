// Package planner asks a completion provider for a structured query
// plan and validates the reply against the Plan schema before anything
// downstream sees it.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/message"
	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/pkg/telemetry"
)

// Typed planner failures. The orchestrator branches on these to pick a
// fallback, so they stay distinct rather than collapsing into one error.
var (
	// ErrProvider wraps a completion-provider failure (network, auth,
	// rate limit).
	ErrProvider = errors.New("planner: provider error")
	// ErrNotJSON means the model reply was not parseable JSON.
	ErrNotJSON = errors.New("planner: response is not JSON")
	// ErrPlanInvalid means the reply was JSON but violated the Plan
	// schema.
	ErrPlanInvalid = errors.New("planner: plan failed validation")
	// ErrTimeout means the provider did not answer within the deadline.
	ErrTimeout = errors.New("planner: timed out")
)

// DefaultTimeout bounds one planning call.
const DefaultTimeout = 5000 * time.Millisecond

// ContextSummary tells the model what data exists without shipping the
// data itself: table names mapped to row counts.
type ContextSummary struct {
	Tables map[string]int
}

// Option customizes a planner.
type Option func(*Planner)

// WithTimeout overrides the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// Planner produces validated query plans from free-text questions.
type Planner struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a planner backed by the given completion provider.
func New(client llm.Client, opts ...Option) *Planner {
	p := &Planner{
		client:  client,
		timeout: DefaultTimeout,
		logger:  logging.WithComponent("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildPlan asks the provider for a plan answering the question over the
// summarized dataset. Failures are typed: ErrTimeout, ErrProvider,
// ErrNotJSON, or ErrPlanInvalid.
func (p *Planner) BuildPlan(ctx context.Context, question string, summary ContextSummary) (*Plan, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "planner.build_plan")
	var err error
	defer func() { telemetry.End(span, err) }()

	if p.client == nil {
		err = fmt.Errorf("%w: no completion provider configured", ErrProvider)
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := []*message.Message{
		message.New(message.RoleSystem, systemPrompt(summary)),
		message.New(message.RoleUser, fmt.Sprintf("Question: %s\nReturn JSON only.", question)),
	}
	resp, genErr := p.client.Generate(callCtx, &llm.GenerateRequest{Messages: messages})
	if genErr != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
			return nil, err
		}
		err = fmt.Errorf("%w: %v", ErrProvider, genErr)
		return nil, err
	}
	if resp == nil || resp.Message == nil || strings.TrimSpace(resp.Message.Text()) == "" {
		err = fmt.Errorf("%w: empty response", ErrProvider)
		return nil, err
	}

	plan, decodeErr := decodePlan(resp.Message.Text())
	if decodeErr != nil {
		err = decodeErr
		return nil, err
	}
	p.logger.Debug("plan built", "intent", plan.Intent, "operations", len(plan.Operations))
	return plan, nil
}

// systemPrompt constrains the model to the allowed intents, tables, and
// operations. Only row counts are shared, never table contents.
func systemPrompt(summary ContextSummary) string {
	names := make([]string, 0, len(summary.Tables))
	for name := range summary.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("You translate churn-analytics questions into a JSON query plan.\n")
	b.WriteString("Respond with a single JSON object and nothing else.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(`{"intent": one of [drivers, risk, roi_compare, segment_deepdive, financial_kpis, generic, arpu, cltv, irr, risk_dist],` + "\n")
	b.WriteString(` "metrics": [table names], "operations": [{"from": table, "where": [{"field","op","value"}], "select": [fields], "orderBy": {"field","desc"}, "limit": n}],` + "\n")
	b.WriteString(` "chart": {"kind": one of [bar, donut, line, horizontal-bar], "title", "xLabel", "yLabel", "xField", "yField"},` + "\n")
	b.WriteString(` "narrativeFocus": [at least one topic], "citations": [at least one source id]}` + "\n\n")
	b.WriteString("Filter comparators: eq, gt, lt, gte, lte, in, contains.\n")
	b.WriteString("Available tables:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s (%d rows)\n", name, summary.Tables[name])
	}
	return b.String()
}

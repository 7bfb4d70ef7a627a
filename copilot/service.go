// Package copilot is the question-answering entry point: it scores each
// question, dispatches to the retrieval or numeric path, and guarantees
// a schema-valid Answer comes back no matter what fails underneath.
package copilot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/preston-fay/televantage-copilot/chart"
	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/executor"
	"github.com/preston-fay/televantage-copilot/knowledge"
	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/message"
	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/pkg/telemetry"
	"github.com/preston-fay/televantage-copilot/planner"
	"github.com/preston-fay/televantage-copilot/router"
	"github.com/preston-fay/televantage-copilot/tools"
)

// DefaultLLMTimeout bounds the numeric path's completion call.
const DefaultLLMTimeout = 15 * time.Second

// Option customizes a service.
type Option func(*Service)

// WithLLM attaches a completion provider. Without one the numeric path
// uses the deterministic keyword fallback.
func WithLLM(client llm.Client) Option {
	return func(s *Service) { s.client = client }
}

// WithLLMTimeout overrides the completion-call deadline.
func WithLLMTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.llmTimeout = d
		}
	}
}

// WithPlanner makes the numeric path ask for a structured plan first
// and execute it against the dataset, falling back to the direct tool
// flow when planning or chart validation fails.
func WithPlanner(p *planner.Planner) Option {
	return func(s *Service) { s.planner = p }
}

// Service answers strategy questions over an injected dataset and tool
// registry. Each Ask call is independent; the only shared state is the
// read-only dataset and the registry's cached corpus.
type Service struct {
	router     *router.Router
	registry   *tools.Registry
	dataset    *churn.Dataset
	client     llm.Client
	planner    *planner.Planner
	executor   *executor.Executor
	llmTimeout time.Duration
	logger     *slog.Logger
}

// New creates a copilot service.
func New(registry *tools.Registry, dataset *churn.Dataset, opts ...Option) *Service {
	s := &Service{
		router:     router.New(),
		registry:   registry,
		dataset:    dataset,
		executor:   executor.New(dataset),
		llmTimeout: DefaultLLMTimeout,
		logger:     logging.WithComponent("copilot"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers one question. It never returns an error and never panics
// past this boundary: every failure degrades to the retrieval safety
// net and finally to a fixed, schema-valid error answer.
func (s *Service) Ask(ctx context.Context, query string) (answer Answer) {
	requestID := uuid.NewString()
	ctx, span := telemetry.Tracer().Start(ctx, "copilot.ask",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered from panic", "request_id", requestID, "panic", r)
			answer = s.errorAnswer(fmt.Sprintf("internal failure: %v", r))
		}
		if err := answer.Validate(); err != nil {
			s.logger.Error("answer failed validation, substituting error answer",
				"request_id", requestID, "error", err)
			answer = s.errorAnswer("the generated answer was malformed")
		}
	}()

	score := s.router.ScoreRoute(query)
	route := s.router.Route(query)
	span.SetAttributes(
		attribute.String("route", string(route)),
		attribute.Int("score.rag", score.RagScore),
		attribute.Int("score.numeric", score.NumericScore),
	)
	s.logger.Info("question scored",
		"request_id", requestID,
		"route", route,
		"rag_score", score.RagScore,
		"numeric_score", score.NumericScore,
	)

	a, err := s.dispatch(ctx, query, route, span)
	if err == nil {
		return a
	}
	s.logger.Warn("primary path failed, trying retrieval safety net",
		"request_id", requestID, "route", route, "error", err)
	span.AddEvent("fallback.rag_safety_net")

	// The safety net is always retrieval, never a guessed numeric tool.
	if route != router.RouteRAG {
		if a, ragErr := s.ragPath(ctx, query); ragErr == nil {
			return a
		}
	}
	return s.errorAnswer(err.Error())
}

func (s *Service) dispatch(ctx context.Context, query string, route router.Route, span trace.Span) (Answer, error) {
	switch route {
	case router.RouteRAG:
		return s.ragPath(ctx, query)
	case router.RouteHybrid:
		// Numeric result first, then best-effort narrative enrichment.
		a, err := s.numericPath(ctx, query, span)
		if err != nil {
			return Answer{}, err
		}
		return s.enrich(ctx, query, a), nil
	default:
		return s.numericPath(ctx, query, span)
	}
}

// ragPath answers through retrieval. Empty context is an error so the
// caller's fallback chain can engage instead of returning a hollow
// answer.
func (s *Service) ragPath(ctx context.Context, query string) (Answer, error) {
	out, err := s.registry.Execute(ctx, tools.ToolRAGSearch, map[string]any{"query": query})
	if err != nil {
		return Answer{}, fmt.Errorf("rag search: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" || len(out.Citations) == 0 {
		return Answer{}, fmt.Errorf("no relevant passages found for this question")
	}
	a := ComposeGroundedAnswer(query, out.Text, out.Citations)
	if err := a.Validate(); err != nil {
		return Answer{}, fmt.Errorf("composed answer invalid: %w", err)
	}
	return a, nil
}

// numericPath answers through the deterministic tools, either picked by
// the model or matched by keyword when no provider is configured.
func (s *Service) numericPath(ctx context.Context, query string, span trace.Span) (Answer, error) {
	if s.client == nil {
		return s.keywordFallback(ctx, query)
	}
	if s.planner != nil {
		a, err := s.plannedPath(ctx, query)
		if err == nil {
			return a, nil
		}
		s.logger.Warn("plan path failed, using tool flow", "error", err)
		span.AddEvent("fallback.tool_flow")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()
	resp, err := s.client.Generate(callCtx, &llm.GenerateRequest{
		Messages: []*message.Message{
			message.New(message.RoleSystem, toolSystemPrompt),
			message.New(message.RoleUser, query),
		},
		Tools:      s.registry.Defs(),
		ForceTools: true,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("completion provider: %w", err)
	}
	if resp == nil || resp.Message == nil {
		return Answer{}, fmt.Errorf("completion provider returned an empty reply")
	}

	if len(resp.Message.ToolCalls) > 0 {
		call := resp.Message.ToolCalls[0]
		span.SetAttributes(attribute.String("tool", call.Name))
		// A conceptual-sounding question answered by a data tool is worth
		// flagging for routing review.
		if call.Name != tools.ToolRAGSearch && s.router.ScoreRoute(query).RagScore > 0 {
			span.AddEvent("route.bypass_detected")
		}
		out, execErr := s.registry.Execute(ctx, call.Name, decodeArgs(call.Args, query))
		if execErr != nil {
			return Answer{}, fmt.Errorf("tool %s: %w", call.Name, execErr)
		}
		return s.answerFromTool(call.Name, out), nil
	}

	text := strings.TrimSpace(resp.Message.Text())
	if text == "" {
		return Answer{}, fmt.Errorf("completion provider returned neither a tool call nor text")
	}
	return Answer{
		Text:      padAnswerText(text),
		Citations: []Citation{{Source: "llm", Ref: s.client.Model()}},
		FollowUps: defaultFollowUps,
	}, nil
}

// plannedPath runs the plan-execute-validate loop: ask the provider for
// a structured plan, execute it, and accept the result only when any
// assembled chart passes validation.
func (s *Service) plannedPath(ctx context.Context, query string) (Answer, error) {
	plan, err := s.planner.BuildPlan(ctx, query, planner.ContextSummary{Tables: s.tableSummary()})
	if err != nil {
		return Answer{}, err
	}

	res := s.executor.ExecutePlan(plan)
	if res.DataPoints == 0 {
		return Answer{}, fmt.Errorf("plan produced no data")
	}
	if res.Chart != nil {
		if err := chart.Validate(res.Chart).Err(); err != nil {
			return Answer{}, fmt.Errorf("plan chart: %w", err)
		}
	}

	a := Answer{
		Text:      padAnswerText(res.Lead),
		Chart:     res.Chart,
		FollowUps: defaultFollowUps,
	}
	for _, id := range plan.Citations {
		a.Citations = append(a.Citations, Citation{Source: id, Ref: sectionTitle(id)})
	}
	if len(a.Citations) == 0 {
		a.Citations = []Citation{{Source: "system", Ref: "Strategy Copilot"}}
	}
	return a, nil
}

func (s *Service) tableSummary() map[string]int {
	summary := make(map[string]int)
	for _, name := range churn.TableNames() {
		if t, ok := s.dataset.Table(name); ok {
			summary[name] = len(t.Rows)
		}
	}
	return summary
}

// sectionTitle resolves a knowledge-base section id to its display
// title, falling back to the id itself.
func sectionTitle(id string) string {
	for _, s := range knowledge.Sections() {
		if s.ID == id {
			return s.Title
		}
	}
	return id
}

// keywordFallback pattern-matches the question against fixed substrings
// and dispatches to the matching tool, never guessing beyond them.
func (s *Service) keywordFallback(ctx context.Context, query string) (Answer, error) {
	q := strings.ToLower(query)
	var (
		name string
		args map[string]any
	)
	switch {
	case strings.Contains(q, "risk") && strings.Contains(q, "distribution"):
		name = tools.ToolRiskDistribution
	case strings.Contains(q, "arpu"):
		name = tools.ToolARPUImpact
		args = map[string]any{"churnDeltaPct": float64(-1)}
	case strings.Contains(q, "roi") || strings.Contains(q, "strateg"):
		name = tools.ToolROIByStrategy
	case strings.Contains(q, "cltv") || strings.Contains(q, "lifetime"):
		name = tools.ToolCLTV
	case strings.Contains(q, "driver") || strings.Contains(q, "importance"):
		name = tools.ToolFeatureImportance
	default:
		return Answer{
			Text:      "I need a more specific question to pick the right data. Try asking about risk distribution, churn drivers, strategy ROI, ARPU, or customer lifetime value.",
			Citations: []Citation{{Source: "system", Ref: "Strategy Copilot"}},
			FollowUps: defaultFollowUps,
		}, nil
	}

	out, err := s.registry.Execute(ctx, name, args)
	if err != nil {
		return Answer{}, fmt.Errorf("tool %s: %w", name, err)
	}
	return s.answerFromTool(name, out), nil
}

// answerFromTool wraps a tool output into an Answer, filling citations
// and follow-ups the tool did not supply.
func (s *Service) answerFromTool(name string, out *tools.Output) Answer {
	a := Answer{
		Text:      padAnswerText(out.Text),
		Chart:     out.Chart,
		FollowUps: defaultFollowUps,
	}
	for _, c := range out.Citations {
		a.Citations = append(a.Citations, Citation{Source: c.SectionID, Ref: c.Title})
	}
	if len(a.Citations) == 0 {
		a.Citations = []Citation{toolCitation(name)}
	}
	return a
}

// enrich appends retrieved narrative to a numeric answer. Failures are
// ignored; the numeric answer stands on its own.
func (s *Service) enrich(ctx context.Context, query string, a Answer) Answer {
	out, err := s.registry.Execute(ctx, tools.ToolRAGSearch, map[string]any{"query": query})
	if err != nil || strings.TrimSpace(out.Text) == "" || len(out.Citations) == 0 {
		return a
	}
	summary := summarizeContext(out.Text)
	if summary == noContextSummary {
		return a
	}
	a.Text = a.Text + " " + summary
	seen := make(map[string]bool, len(a.Citations))
	for _, c := range a.Citations {
		seen[c.Source] = true
	}
	for _, c := range out.Citations {
		if !seen[c.SectionID] {
			seen[c.SectionID] = true
			a.Citations = append(a.Citations, Citation{Source: c.SectionID, Ref: c.Title})
		}
	}
	return a
}

// errorAnswer is the fixed, schema-valid answer of last resort.
func (s *Service) errorAnswer(reason string) Answer {
	return Answer{
		Text: fmt.Sprintf("I could not answer that question (%s). Please try rephrasing, or pick one of the suggestions below.",
			strings.TrimSpace(reason)),
		Citations: []Citation{{Source: "system", Ref: "Strategy Copilot"}},
		FollowUps: defaultFollowUps,
	}
}

// padAnswerText guarantees the schema's minimum text length without
// changing the meaning of short tool replies.
func padAnswerText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= minAnswerText {
		return text
	}
	return text + " See the suggested follow-up questions for more detail."
}

func toolCitation(name string) Citation {
	switch name {
	case tools.ToolRiskDistribution:
		return Citation{Source: "risk-model", Ref: "Churn Risk Model"}
	case tools.ToolFeatureImportance:
		return Citation{Source: "model-drivers", Ref: "Model Drivers"}
	case tools.ToolROIByStrategy:
		return Citation{Source: "retention-strategies", Ref: "Retention Strategies"}
	case tools.ToolARPUImpact, tools.ToolCLTV:
		return Citation{Source: "business-economics", Ref: "Business Economics"}
	}
	return Citation{Source: "system", Ref: "Strategy Copilot"}
}

// decodeArgs parses model-supplied tool arguments, falling back to the
// raw query for tools that accept one.
func decodeArgs(raw, query string) map[string]any {
	args := decodeJSONArgs(raw)
	if args == nil {
		args = map[string]any{}
	}
	if _, ok := args["query"]; !ok {
		args["query"] = query
	}
	return args
}

const toolSystemPrompt = `You are the Strategy Copilot for a telecom churn dashboard.
Answer questions by invoking exactly one of the provided tools.
Use rag_search for conceptual or methodological questions and the data tools for numbers, comparisons, and charts.`

// Package tools exposes the deterministic data operations the copilot
// can invoke: risk breakdowns, driver rankings, ROI comparisons,
// financial projections, and a retrieval search. Tools never fail on
// empty data; they explain the condition in their text output instead.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/preston-fay/televantage-copilot/chart"
	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/retriever"
)

// Output is what every tool returns. Any subset of the fields may be
// set; Text is always set.
type Output struct {
	Table     *churn.Table         `json:"table,omitempty"`
	Chart     *chart.Chart         `json:"chart,omitempty"`
	Text      string               `json:"text"`
	Citations []retriever.Citation `json:"citations,omitempty"`
}

// Parameter describes one tool argument for the provider tool schema.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Tool is one callable data operation.
type Tool struct {
	Name        string
	Description string
	Parameters  []Parameter
	Handler     func(ctx context.Context, args map[string]any) (*Output, error)
}

// Execute validates required arguments and runs the handler.
func (t *Tool) Execute(ctx context.Context, args map[string]any) (*Output, error) {
	if t.Handler == nil {
		return nil, fmt.Errorf("tool %s has no handler", t.Name)
	}
	for _, p := range t.Parameters {
		if p.Required {
			if _, ok := args[p.Name]; !ok {
				return nil, fmt.Errorf("tool %s: missing required parameter %s", t.Name, p.Name)
			}
		}
	}
	return t.Handler(ctx, args)
}

// Def renders the tool as a provider-neutral definition.
func (t *Tool) Def() llm.ToolDef {
	properties := make(map[string]any, len(t.Parameters))
	required := make([]string, 0)
	for _, p := range t.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return llm.ToolDef{
		Name:        t.Name,
		Description: t.Description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

// Registry holds the copilot's tools. All operations are safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(tool *Tool) error {
	if tool == nil || tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return tool, nil
}

// List returns the tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Defs renders every tool as a provider-neutral definition, in
// registration order.
func (r *Registry) Defs() []llm.ToolDef {
	tools := r.List()
	defs := make([]llm.ToolDef, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, t.Def())
	}
	return defs
}

// Execute runs a tool by name.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Output, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return tool.Execute(ctx, args)
}

// Package llm defines the narrow contract the copilot has with hosted
// completion providers. A provider accepts a conversation plus an optional
// tool schema and replies with either free text or a tool invocation; the
// copilot core handles both shapes and never depends on a concrete SDK.
package llm

import (
	"context"

	"github.com/preston-fay/televantage-copilot/message"
)

// ToolDef describes one callable tool in provider-neutral JSON-schema form.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON schema object
}

// GenerateRequest bundles inputs for a non-streaming completion call.
type GenerateRequest struct {
	Messages   []*message.Message
	Tools      []ToolDef
	ForceTools bool // ask the provider to prefer invoking a tool
}

// GenerateResponse captures the provider reply.
type GenerateResponse struct {
	Message *message.Message
}

// Client is implemented by each completion provider adapter.
type Client interface {
	// Generate produces a reply for the conversation. The returned message
	// carries either Content (free text) or ToolCalls, possibly both.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	// Model reports the configured model name, for logging and citations.
	Model() string
}

package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/message"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultConfig returns default Gemini configuration.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		Temperature: 0.2,
	}
}

// Provider implements llm.Client for Google Gemini via the official genai SDK.
type Provider struct {
	config *Config
	client *genai.Client
}

var _ llm.Client = (*Provider)(nil)

// New creates a new Gemini provider. The client owns a connection pool and
// should be closed with Close when no longer needed.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Model reports the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// Generate implements llm.Client.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	model := p.client.GenerativeModel(p.config.Model)
	model.SetTemperature(p.config.Temperature)

	var systemText string
	parts := make([]genai.Part, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == message.RoleSystem {
			systemText += msg.Text() + "\n"
			continue
		}
		parts = append(parts, genai.Text(fmt.Sprintf("%s: %s", msg.Role, msg.Text())))
	}
	if systemText != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemText)}}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  convertSchema(t.Parameters),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		if req.ForceTools {
			model.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode: genai.FunctionCallingAny,
				},
			}
		}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini completion: no candidates returned")
	}

	var responseText string
	toolCalls := make([]message.ToolCall, 0)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			responseText += string(v)
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini completion: encode function args: %w", err)
			}
			toolCalls = append(toolCalls, message.ToolCall{
				Name: v.Name,
				Args: string(args),
			})
		}
	}

	responseMsg := message.New(message.RoleAssistant, responseText)
	if len(toolCalls) > 0 {
		responseMsg.ToolCalls = toolCalls
	}
	return &llm.GenerateResponse{Message: responseMsg}, nil
}

// convertSchema maps a JSON-schema object into the genai schema type. Only
// the subset the copilot tools use (flat objects of strings and numbers) is
// converted; anything else degrades to an untyped object.
func convertSchema(params map[string]any) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	props, ok := params["properties"].(map[string]any)
	if !ok {
		return schema
	}
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sub := &genai.Schema{}
		switch prop["type"] {
		case "number", "integer":
			sub.Type = genai.TypeNumber
		case "boolean":
			sub.Type = genai.TypeBoolean
		default:
			sub.Type = genai.TypeString
		}
		if desc, ok := prop["description"].(string); ok {
			sub.Description = desc
		}
		schema.Properties[name] = sub
	}
	if required, ok := params["required"].([]string); ok {
		schema.Required = required
	}
	return schema
}

package openai

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/message"
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default OpenAI configuration.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gpt-4o-mini",
		MaxTokens:   2000,
		Temperature: 0.2,
	}
}

// Provider implements llm.Client for OpenAI-compatible endpoints.
type Provider struct {
	config *Config
	client openaisdk.Client
}

var _ llm.Client = (*Provider)(nil)

// New creates a new OpenAI provider using the official SDK.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: openaisdk.NewClient(options...),
	}
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

	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			msgs = append(msgs, openaisdk.SystemMessage(msg.Text()))
		case message.RoleUser:
			msgs = append(msgs, openaisdk.UserMessage(msg.Text()))
		case message.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(msg.Text()))
		case message.RoleTool:
			msgs = append(msgs, openaisdk.ToolMessage(msg.Text(), msg.ToolID))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: msgs,
		Model:    openaisdk.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(p.config.MaxTokens)
	}

	if len(req.Tools) > 0 {
		tools := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, openaisdk.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: param.NewOpt(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			}))
		}
		params.Tools = tools
		if req.ForceTools {
			params.ToolChoice = openaisdk.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: param.NewOpt("required"),
			}
		}
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: no choices returned")
	}

	choice := completion.Choices[0]
	responseMsg := message.New(message.RoleAssistant, choice.Message.Content)
	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]message.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			calls = append(calls, message.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			})
		}
		responseMsg.ToolCalls = calls
	}

	return &llm.GenerateResponse{Message: responseMsg}, nil
}

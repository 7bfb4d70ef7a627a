package cli

import (
	"context"
	"fmt"

	"github.com/preston-fay/televantage-copilot/config"
	"github.com/preston-fay/televantage-copilot/embedding"
	geminiembed "github.com/preston-fay/televantage-copilot/embedding/gemini"
	openaiembed "github.com/preston-fay/televantage-copilot/embedding/openai"
	"github.com/preston-fay/televantage-copilot/llm"
	"github.com/preston-fay/televantage-copilot/llm/claude"
	"github.com/preston-fay/televantage-copilot/llm/gemini"
	"github.com/preston-fay/televantage-copilot/llm/openai"
)

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Provider, error) {
	e := cfg.Embedding
	if e.APIKey == "" {
		return nil, fmt.Errorf("embedding provider %s requires COPILOT_EMBEDDING_API_KEY", e.Provider)
	}
	switch e.Provider {
	case config.ProviderOpenAI:
		return openaiembed.New(e.APIKey, "", e.Model, 0), nil
	case config.ProviderGemini:
		return geminiembed.New(ctx, e.APIKey, e.Model, 0)
	}
	return nil, fmt.Errorf("unknown embedding provider %q", e.Provider)
}

// newLLM returns nil without error when no API key is configured; the
// copilot then runs in deterministic fallback mode.
func newLLM(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	l := cfg.LLM
	if !l.Enabled() {
		return nil, nil
	}
	switch l.Provider {
	case config.ProviderOpenAI:
		return openai.New(&openai.Config{APIKey: l.APIKey, BaseURL: l.BaseURL, Model: l.Model}), nil
	case config.ProviderClaude:
		return claude.New(&claude.Config{APIKey: l.APIKey, BaseURL: l.BaseURL, Model: l.Model}), nil
	case config.ProviderGemini:
		return gemini.New(ctx, &gemini.Config{APIKey: l.APIKey, Model: l.Model})
	}
	return nil, fmt.Errorf("unknown llm provider %q", l.Provider)
}

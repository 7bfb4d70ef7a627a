package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/preston-fay/televantage-copilot/embedding"
	"google.golang.org/api/option"
)

// Embedder implements embedding.Provider using the Google Generative AI
// embeddings API (text-embedding-004).
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
}

var _ embedding.Provider = (*Embedder)(nil)

// New creates a Gemini-backed embedder.
func New(ctx context.Context, apiKey, model string, dimension int) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini embeddings: API key not configured")
	}
	if model == "" {
		model = "text-embedding-004"
	}
	if dimension <= 0 {
		dimension = 768
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: create client: %w", err)
	}
	return &Embedder{client: client, model: model, dimension: dimension}, nil
}

// Close releases the underlying client.
func (e *Embedder) Close() error {
	return e.client.Close()
}

// Model reports the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// Dimension returns the number of embedding dimensions.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed converts text to a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("gemini embed: no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch converts multiple texts to embeddings, preserving order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := e.client.EmbeddingModel(e.model)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embed batch: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed batch: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

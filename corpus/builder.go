package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/preston-fay/televantage-copilot/chunking"
	"github.com/preston-fay/televantage-copilot/embedding"
	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/tokenizer"
)

// BuilderOptions controls corpus construction.
type BuilderOptions struct {
	BatchSize  int
	BatchDelay time.Duration
	Counter    tokenizer.Counter
}

// BuilderOption customizes the builder.
type BuilderOption func(*BuilderOptions)

// WithBatchSize sets how many chunks are embedded per provider call.
func WithBatchSize(n int) BuilderOption {
	return func(o *BuilderOptions) {
		if n > 0 {
			o.BatchSize = n
		}
	}
}

// WithBatchDelay sets the pause between embedding batches, to respect
// provider rate limits.
func WithBatchDelay(d time.Duration) BuilderOption {
	return func(o *BuilderOptions) {
		if d >= 0 {
			o.BatchDelay = d
		}
	}
}

// WithTokenCounter overrides the counter used for metadata token totals,
// e.g. a tiktoken encoding for exact model counts.
func WithTokenCounter(c tokenizer.Counter) BuilderOption {
	return func(o *BuilderOptions) {
		if c != nil {
			o.Counter = c
		}
	}
}

// Builder chunks a knowledge document and embeds every chunk, producing the
// persistable corpus. This is an offline batch process: any embedding
// failure aborts the whole build and no partial corpus is produced.
type Builder struct {
	chunker  *chunking.Chunker
	embedder embedding.Provider
	opts     BuilderOptions
	logger   *slog.Logger
}

// NewBuilder creates a corpus builder.
func NewBuilder(chunker *chunking.Chunker, embedder embedding.Provider, opts ...BuilderOption) *Builder {
	cfg := BuilderOptions{
		BatchSize:  16,
		BatchDelay: 200 * time.Millisecond,
		Counter:    tokenizer.Estimator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{
		chunker:  chunker,
		embedder: embedder,
		opts:     cfg,
		logger:   logging.WithComponent("corpus_builder"),
	}
}

// Build chunks every indexed section of the document and embeds the chunks
// in batches. Returns the corpus and its summary metadata.
func (b *Builder) Build(ctx context.Context, markdown string, sections []chunking.Section) (*Corpus, *Metadata, error) {
	if b.embedder == nil {
		return nil, nil, fmt.Errorf("corpus build: embedding provider not configured")
	}

	chunks := b.chunker.ProcessCorpus(markdown, sections)
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("corpus build: no chunks produced from %d sections", len(sections))
	}
	b.logger.Info("chunking complete", "sections", len(sections), "chunks", len(chunks))

	embedded := make([]EmbeddedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += b.opts.BatchSize {
		end := start + b.opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Text
		}
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("corpus build: embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, nil, fmt.Errorf("corpus build: expected %d vectors, got %d", len(batch), len(vectors))
		}
		for i, ch := range batch {
			embedded = append(embedded, EmbeddedChunk{Chunk: ch, Embedding: vectors[i]})
		}
		b.logger.Debug("embedded batch", "from", start, "to", end)

		if end < len(chunks) && b.opts.BatchDelay > 0 {
			select {
			case <-time.After(b.opts.BatchDelay):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}
	}

	now := time.Now().UTC()
	c := &Corpus{
		Version: Version,
		Created: now,
		Model:   b.embedder.Model(),
		Chunks:  embedded,
		Index:   sections,
	}

	totalTokens := 0
	for _, ch := range embedded {
		totalTokens += b.opts.Counter.CountTokens(ch.Text)
	}
	meta := &Metadata{
		Version:      Version,
		Created:      now,
		Model:        b.embedder.Model(),
		ChunkCount:   len(embedded),
		SectionCount: len(sections),
		TotalTokens:  totalTokens,
	}
	b.logger.Info("corpus built",
		"chunks", meta.ChunkCount,
		"sections", meta.SectionCount,
		"total_tokens", meta.TotalTokens,
		"model", meta.Model,
	)
	return c, meta, nil
}

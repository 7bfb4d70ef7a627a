// Package retriever answers free-text queries against the embedded
// knowledge corpus using cosine similarity over chunk embeddings.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/preston-fay/televantage-copilot/corpus"
	"github.com/preston-fay/televantage-copilot/embedding"
	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/pkg/telemetry"
	"github.com/preston-fay/televantage-copilot/vector"
)

// ErrNoResults indicates that no chunk cleared the similarity floor for
// the query.
var ErrNoResults = errors.New("retriever: no results above similarity threshold")

const (
	// DefaultTopK bounds the number of chunks returned per query.
	DefaultTopK = 6
	// DefaultMinScore is the cosine similarity floor below which chunks
	// are discarded.
	DefaultMinScore = 0.5
)

// Options filters and bounds a retrieval call. The zero value applies the
// package defaults.
type Options struct {
	TopK       int
	MinScore   float64
	SectionIDs []string
	Tags       []string
}

// Result is a corpus chunk scored against the query.
type Result struct {
	Chunk        corpus.EmbeddedChunk
	Score        float64
	SectionID    string
	SectionTitle string
}

// Citation points a reader back at a corpus section that informed an
// answer. Results from the same section collapse into one citation.
type Citation struct {
	SectionID string  `json:"sectionId"`
	Title     string  `json:"title"`
	BestScore float64 `json:"bestScore"`
}

// Retriever ranks corpus chunks by embedding similarity. The corpus is
// loaded lazily on the first query and cached; concurrent first callers
// share a single load.
type Retriever struct {
	loader   corpus.Loader
	embedder embedding.Provider
	logger   *slog.Logger

	mu      sync.Mutex
	loading chan struct{}
	corpus  *corpus.Corpus
	loadErr error
}

// New creates a retriever over the given corpus source.
func New(loader corpus.Loader, embedder embedding.Provider) *Retriever {
	return &Retriever{
		loader:   loader,
		embedder: embedder,
		logger:   logging.WithComponent("retriever"),
	}
}

// ensureCorpus returns the cached corpus, loading it on first use. When a
// load is already in flight, callers wait for it instead of starting
// another.
func (r *Retriever) ensureCorpus(ctx context.Context) (*corpus.Corpus, error) {
	for {
		r.mu.Lock()
		if r.corpus != nil {
			c := r.corpus
			r.mu.Unlock()
			return c, nil
		}
		if r.loading == nil {
			done := make(chan struct{})
			r.loading = done
			r.loadErr = nil
			r.mu.Unlock()

			c, err := r.loader.Load(ctx)
			r.mu.Lock()
			if err == nil {
				r.corpus = c
				r.logger.Info("corpus loaded", "chunks", len(c.Chunks), "model", c.Model)
			} else {
				r.loadErr = err
			}
			r.loading = nil
			close(done)
			r.mu.Unlock()
			return c, err
		}
		wait := r.loading
		r.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		r.mu.Lock()
		c, err := r.corpus, r.loadErr
		r.loadErr = nil
		r.mu.Unlock()
		if c != nil {
			return c, nil
		}
		if err != nil {
			return nil, err
		}
		// The in-flight load failed and another waiter consumed the
		// error. Retry the load ourselves.
	}
}

// ForceReload drops the cached corpus so the next query loads it fresh.
func (r *Retriever) ForceReload() {
	r.mu.Lock()
	r.corpus = nil
	r.loadErr = nil
	r.mu.Unlock()
}

// Retrieve embeds the query and returns the top matching chunks, best
// first. Returns ErrNoResults when nothing clears the similarity floor.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "retriever.retrieve")
	var err error
	defer func() { telemetry.End(span, err) }()

	if strings.TrimSpace(query) == "" {
		err = fmt.Errorf("retriever: empty query")
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}

	c, err := r.ensureCorpus(ctx)
	if err != nil {
		err = fmt.Errorf("retriever: load corpus: %w", err)
		return nil, err
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		err = fmt.Errorf("retriever: embed query: %w", err)
		return nil, err
	}

	results := make([]Result, 0, opts.TopK)
	for _, ch := range c.Chunks {
		if !r.chunkMatches(c, ch, opts) {
			continue
		}
		score := vector.CosineSimilarity(queryVec, ch.Embedding)
		if score < opts.MinScore {
			continue
		}
		title := ch.SectionID
		if section, ok := c.Section(ch.SectionID); ok {
			title = section.Title
		}
		results = append(results, Result{
			Chunk:        ch,
			Score:        score,
			SectionID:    ch.SectionID,
			SectionTitle: title,
		})
	}
	if len(results) == 0 {
		err = ErrNoResults
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	r.logger.Debug("retrieved chunks", "query_len", len(query), "results", len(results), "top_score", results[0].Score)
	return results, nil
}

func (r *Retriever) chunkMatches(c *corpus.Corpus, ch corpus.EmbeddedChunk, opts Options) bool {
	if len(opts.SectionIDs) > 0 && !containsFold(opts.SectionIDs, ch.SectionID) {
		return false
	}
	if len(opts.Tags) > 0 {
		section, ok := c.Section(ch.SectionID)
		if !ok {
			return false
		}
		matched := false
		for _, tag := range section.Tags {
			if containsFold(opts.Tags, tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// FormatContext renders results as a prompt context block. Each chunk is
// headed by its section reference and trailed by its relevance, with
// "---" separating chunks.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, fmt.Sprintf("[%s] %s\n%s\n(relevance: %.1f%%)",
			res.SectionID, res.SectionTitle, strings.TrimSpace(res.Chunk.Text), res.Score*100))
	}
	return strings.Join(parts, "\n---\n")
}

// Citations collapses results into one citation per section, keeping
// first-seen order and the best score per section.
func Citations(results []Result) []Citation {
	seen := make(map[string]int, len(results))
	out := make([]Citation, 0, len(results))
	for _, res := range results {
		if idx, ok := seen[res.SectionID]; ok {
			if res.Score > out[idx].BestScore {
				out[idx].BestScore = res.Score
			}
			continue
		}
		seen[res.SectionID] = len(out)
		out = append(out, Citation{
			SectionID: res.SectionID,
			Title:     res.SectionTitle,
			BestScore: res.Score,
		})
	}
	return out
}

// Package corpus defines the persisted knowledge-corpus artifact: embedded
// chunks plus a section index, built offline and read-only afterwards.
package corpus

import (
	"context"
	"time"

	"github.com/preston-fay/televantage-copilot/chunking"
)

// Version written into newly built corpus artifacts.
const Version = "1.0"

// EmbeddedChunk is a chunk plus its embedding vector. All embeddings within
// one corpus share the same dimensionality and model, recorded once at the
// corpus level.
type EmbeddedChunk struct {
	chunking.Chunk
	Embedding []float32 `json:"embedding"`
}

// Corpus is the persisted unit: every embedded chunk plus the section index
// for one knowledge document.
type Corpus struct {
	Version string             `json:"version"`
	Created time.Time          `json:"created"`
	Model   string             `json:"model"`
	Chunks  []EmbeddedChunk    `json:"chunks"`
	Index   []chunking.Section `json:"index"`
}

// Metadata is the sibling summary record persisted next to the corpus.
type Metadata struct {
	Version      string    `json:"version"`
	Created      time.Time `json:"created"`
	Model        string    `json:"model"`
	ChunkCount   int       `json:"chunk_count"`
	SectionCount int       `json:"section_count"`
	TotalTokens  int       `json:"total_tokens"`
}

// Section resolves a section-index entry by id.
func (c *Corpus) Section(id string) (chunking.Section, bool) {
	for _, s := range c.Index {
		if s.ID == id {
			return s, true
		}
	}
	return chunking.Section{}, false
}

// Loader supplies a corpus to the retriever. Implementations include the
// JSON artifact Store and in-memory fakes for tests.
type Loader interface {
	Load(ctx context.Context) (*Corpus, error)
}

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Store reads and writes the corpus artifact and its sibling metadata file
// at a well-known path.
type Store struct {
	path string
}

var _ Loader = (*Store)(nil)

// NewStore creates a store for the given artifact path, e.g.
// "data/knowledge_corpus.json".
func NewStore(path string) *Store {
	return &Store{path: path}
}

// MetadataPath derives the sibling metadata file path from the artifact
// path ("corpus.json" -> "corpus_meta.json").
func (s *Store) MetadataPath() string {
	if strings.HasSuffix(s.path, ".json") {
		return strings.TrimSuffix(s.path, ".json") + "_meta.json"
	}
	return s.path + ".meta"
}

// Load reads and decodes the corpus artifact.
func (s *Store) Load(ctx context.Context) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus artifact %s: %w", s.path, err)
	}
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode corpus artifact %s: %w", s.path, err)
	}
	if len(c.Chunks) == 0 {
		return nil, fmt.Errorf("corpus artifact %s contains no chunks", s.path)
	}
	return &c, nil
}

// Save writes the corpus artifact plus the sibling metadata file.
func (s *Store) Save(ctx context.Context, c *Corpus, meta *Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write corpus artifact %s: %w", s.path, err)
	}

	if meta != nil {
		metaData, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("encode corpus metadata: %w", err)
		}
		if err := os.WriteFile(s.MetadataPath(), metaData, 0o644); err != nil {
			return fmt.Errorf("write corpus metadata %s: %w", s.MetadataPath(), err)
		}
	}
	return nil
}

// Package chunking splits long-form knowledge documents into overlapping,
// token-bounded passages tagged with section metadata.
package chunking

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/tokenizer"
)

// Section is the metadata for one logical section of a source document.
// It doubles as the corpus section-index entry.
type Section struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// Chunk is a contiguous span of source text. StartOffset and EndOffset are
// best-effort character offsets into the original section text, intended as
// provenance hints rather than byte-exact spans.
type Chunk struct {
	ID          string `json:"id"`
	SectionID   string `json:"section_id"`
	Text        string `json:"text"`
	TokenCount  int    `json:"token_count"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// Options controls chunk sizing.
type Options struct {
	TargetTokens  int
	OverlapTokens int
}

// Option customizes the chunker.
type Option func(*Options)

// WithTargetTokens overrides the per-chunk token budget.
func WithTargetTokens(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.TargetTokens = n
		}
	}
}

// WithOverlapTokens configures the overlap budget carried between
// consecutive chunks.
func WithOverlapTokens(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.OverlapTokens = n
		}
	}
}

// Chunker splits section text into overlapping token-bounded chunks.
// Chunking is deterministic: identical inputs always produce identical
// boundaries, text, and token counts.
type Chunker struct {
	target  int
	overlap int
	logger  *slog.Logger
}

// New constructs a chunker with defaults suited to prose knowledge bases.
func New(opts ...Option) *Chunker {
	cfg := &Options{
		TargetTokens:  400,
		OverlapTokens: 60,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Chunker{
		target:  cfg.TargetTokens,
		overlap: cfg.OverlapTokens,
		logger:  logging.WithComponent("chunking"),
	}
}

// EstimateTokens approximates the token count of text via word count and a
// fixed word-to-token ratio. Empty text yields 0.
func EstimateTokens(text string) int {
	return tokenizer.Estimate(text)
}

// ChunkText splits section text into chunks. Paragraphs (blank-line
// separated) are greedily accumulated until the next one would exceed the
// target token budget; each closed chunk seeds the next with a sentence-level
// overlap so context survives the boundary. Text that fits the budget whole
// yields exactly one chunk equal to the trimmed input.
func (c *Chunker) ChunkText(text string, section Section) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if EstimateTokens(trimmed) <= c.target {
		return []Chunk{c.newChunk(section, 0, trimmed, strings.Index(text, trimmed))}
	}

	paragraphs := splitParagraphs(text)
	chunks := make([]Chunk, 0, 4)
	seq := 0

	var acc string
	accStart := 0
	for _, para := range paragraphs {
		candidate := para.text
		if acc != "" {
			candidate = acc + "\n\n" + para.text
		}

		if acc != "" && EstimateTokens(candidate) > c.target {
			chunks = append(chunks, c.newChunk(section, seq, acc, accStart))
			seq++

			seed := overlapSeed(acc, c.overlap)
			if seed != "" {
				acc = seed + "\n\n" + para.text
				// Offset drifts when the seed text is re-inserted; keep it
				// as a provenance hint, clamped to the section bounds.
				accStart = para.offset - len(seed)
				if accStart < 0 {
					accStart = 0
				}
			} else {
				acc = para.text
				accStart = para.offset
			}
			continue
		}

		if acc == "" {
			accStart = para.offset
		}
		acc = candidate
	}

	if strings.TrimSpace(acc) != "" {
		chunks = append(chunks, c.newChunk(section, seq, acc, accStart))
	}
	return chunks
}

// ProcessCorpus extracts and chunks every indexed section. Sections that
// fail to extract are skipped with a warning; the corpus is built from
// whatever sections succeed.
func (c *Chunker) ProcessCorpus(markdown string, sections []Section) []Chunk {
	chunks := make([]Chunk, 0, len(sections)*2)
	for _, section := range sections {
		text, ok := ExtractSection(markdown, section.ID, section.Title)
		if !ok {
			c.logger.Warn("section not found in source document, skipping",
				"section_id", section.ID, "title", section.Title)
			continue
		}
		chunks = append(chunks, c.ChunkText(text, section)...)
	}
	return chunks
}

func (c *Chunker) newChunk(section Section, seq int, text string, start int) Chunk {
	text = strings.TrimSpace(text)
	if start < 0 {
		start = 0
	}
	return Chunk{
		ID:          fmt.Sprintf("%s_chunk_%d", section.ID, seq),
		SectionID:   section.ID,
		Text:        text,
		TokenCount:  EstimateTokens(text),
		StartOffset: start,
		EndOffset:   start + len(text),
	}
}

type paragraph struct {
	text   string
	offset int
}

// splitParagraphs splits on blank-line boundaries, recording each
// paragraph's character offset in the source text.
func splitParagraphs(text string) []paragraph {
	var out []paragraph
	offset := 0
	for _, raw := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			if lead < 0 {
				lead = 0
			}
			out = append(out, paragraph{text: trimmed, offset: offset + lead})
		}
		offset += len(raw) + 2
	}
	return out
}

// overlapSeed walks backward through the closed chunk's sentences,
// accumulating until the overlap token budget is met or exceeded, and
// returns them in original order.
func overlapSeed(text string, overlapTokens int) string {
	if overlapTokens <= 0 {
		return ""
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	var picked []string
	tokens := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		picked = append([]string{sentences[i]}, picked...)
		tokens += EstimateTokens(sentences[i])
		if tokens >= overlapTokens {
			break
		}
	}
	return strings.TrimSpace(strings.Join(picked, " "))
}

// splitSentences splits on sentence-ending punctuation, keeping the
// terminator attached to its sentence.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

package knowledge

import (
	"strings"
	"testing"

	"github.com/preston-fay/televantage-copilot/chunking"
)

func TestEverySectionExtracts(t *testing.T) {
	doc := Document()
	for _, s := range Sections() {
		text, ok := chunking.ExtractSection(doc, s.ID, s.Title)
		if !ok {
			t.Fatalf("section %s failed to extract", s.ID)
		}
		if strings.TrimSpace(text) == "" {
			t.Fatalf("section %s extracted empty", s.ID)
		}
	}
}

func TestDocumentChunksCompletely(t *testing.T) {
	chunks := chunking.New().ProcessCorpus(Document(), Sections())
	if len(chunks) < len(Sections()) {
		t.Fatalf("expected at least one chunk per section, got %d chunks", len(chunks))
	}
	seen := make(map[string]bool)
	for _, c := range chunks {
		seen[c.SectionID] = true
	}
	for _, s := range Sections() {
		if !seen[s.ID] {
			t.Fatalf("no chunks for section %s", s.ID)
		}
	}
}

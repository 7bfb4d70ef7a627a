package chunking

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func sampleSection() Section {
	return Section{ID: "executive-summary", Title: "Executive Summary", Tags: []string{"business"}}
}

func longText(paragraphs int) string {
	var parts []string
	for i := 0; i < paragraphs; i++ {
		parts = append(parts, fmt.Sprintf(
			"Paragraph %d covers churn economics in detail. It explains contract mix, tenure effects and billing friction. Retention spend must target the month-to-month base first.", i))
	}
	return strings.Join(parts, "\n\n")
}

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	c := New(WithTargetTokens(400), WithOverlapTokens(50))
	text := "  A short section about churn.  "

	chunks := c.ChunkText(text, sampleSection())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A short section about churn." {
		t.Fatalf("expected trimmed input, got %q", chunks[0].Text)
	}
	if chunks[0].ID != "executive-summary_chunk_0" {
		t.Fatalf("unexpected chunk id %q", chunks[0].ID)
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	c := New()
	if chunks := c.ChunkText("   \n\n  ", sampleSection()); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestChunkTextSplitsAndOverlaps(t *testing.T) {
	c := New(WithTargetTokens(60), WithOverlapTokens(20))
	chunks := c.ChunkText(longText(6), sampleSection())

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		wantID := fmt.Sprintf("executive-summary_chunk_%d", i)
		if ch.ID != wantID {
			t.Fatalf("chunk %d: expected id %q, got %q", i, wantID, ch.ID)
		}
		if ch.TokenCount != EstimateTokens(ch.Text) {
			t.Fatalf("chunk %d: token count %d does not match estimate %d", i, ch.TokenCount, EstimateTokens(ch.Text))
		}
		if ch.SectionID != "executive-summary" {
			t.Fatalf("chunk %d: unexpected section id %q", i, ch.SectionID)
		}
	}

	// Overlap: the second chunk should start with sentences from the first.
	firstSentences := splitSentences(chunks[0].Text)
	last := firstSentences[len(firstSentences)-1]
	if !strings.Contains(chunks[1].Text, last) {
		t.Fatalf("expected chunk 1 to carry overlap sentence %q, got %q", last, chunks[1].Text)
	}

	// Every source paragraph survives, in order, in the concatenated chunks.
	joined := strings.Join(func() []string {
		var texts []string
		for _, ch := range chunks {
			texts = append(texts, ch.Text)
		}
		return texts
	}(), "\n\n")
	lastIdx := -1
	for i := 0; i < 6; i++ {
		marker := fmt.Sprintf("Paragraph %d covers", i)
		idx := strings.Index(joined, marker)
		if idx < 0 {
			t.Fatalf("paragraph %d missing from chunk output", i)
		}
		if idx <= lastIdx {
			t.Fatalf("paragraph %d out of order", i)
		}
		lastIdx = idx
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	c := New(WithTargetTokens(60), WithOverlapTokens(20))
	text := longText(5)
	section := sampleSection()

	a := c.ChunkText(text, section)
	b := c.ChunkText(text, section)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("chunking is not deterministic across repeated calls")
	}
}

func TestChunkTextOffsetsMonotonic(t *testing.T) {
	c := New(WithTargetTokens(60), WithOverlapTokens(20))
	chunks := c.ChunkText(longText(6), sampleSection())

	prev := -1
	for i, ch := range chunks {
		if ch.StartOffset < 0 || ch.EndOffset < ch.StartOffset {
			t.Fatalf("chunk %d: invalid offsets %d..%d", i, ch.StartOffset, ch.EndOffset)
		}
		if ch.StartOffset < prev {
			t.Fatalf("chunk %d: start offset went backwards", i)
		}
		prev = ch.StartOffset
	}
}

const sampleDoc = `# Churn Playbook

Intro paragraph.

## Executive Summary

Churn concentrates in month-to-month contracts.

High risk customers respond to contract conversion offers.

## Business Economics

ARPU and CLTV drive the retention budget.

## Model Drivers

Contract type dominates feature importance.
`

func TestExtractSectionByNormalizedID(t *testing.T) {
	text, ok := ExtractSection(sampleDoc, "executive-summary", "")
	if !ok {
		t.Fatal("expected section match by normalized id")
	}
	if !strings.Contains(text, "month-to-month contracts") {
		t.Fatalf("unexpected section text %q", text)
	}
	if strings.Contains(text, "ARPU and CLTV") {
		t.Fatal("section text leaked into next section")
	}
}

func TestExtractSectionByTitle(t *testing.T) {
	text, ok := ExtractSection(sampleDoc, "econ", "Business Economics")
	if !ok {
		t.Fatal("expected section match by title")
	}
	if !strings.Contains(text, "ARPU and CLTV") {
		t.Fatalf("unexpected section text %q", text)
	}
}

func TestExtractSectionMajorityWordFallback(t *testing.T) {
	text, ok := ExtractSection(sampleDoc, "sec3", "Key Model Drivers Overview")
	if !ok {
		t.Fatal("expected fallback match on majority title words")
	}
	if !strings.Contains(text, "feature importance") {
		t.Fatalf("unexpected section text %q", text)
	}
}

func TestExtractSectionNoMatch(t *testing.T) {
	if _, ok := ExtractSection(sampleDoc, "pricing-strategy", "Pricing Strategy"); ok {
		t.Fatal("expected no match for unknown section")
	}
}

func TestExtractSectionNoHeaders(t *testing.T) {
	doc := "Just one block of text without headers."
	text, ok := ExtractSection(doc, "anything", "Anything")
	if !ok || text != doc {
		t.Fatalf("expected whole document for headerless source, got ok=%v text=%q", ok, text)
	}
}

func TestProcessCorpusSkipsMissingSections(t *testing.T) {
	c := New(WithTargetTokens(400), WithOverlapTokens(40))
	sections := []Section{
		{ID: "executive-summary", Title: "Executive Summary"},
		{ID: "nonexistent-topic", Title: "Nonexistent Topic"},
	}

	chunks := c.ProcessCorpus(sampleDoc, sections)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from the surviving section")
	}
	for _, ch := range chunks {
		if ch.SectionID != "executive-summary" {
			t.Fatalf("unexpected section id %q", ch.SectionID)
		}
	}
}

package copilot

import (
	"strings"
	"testing"

	"github.com/preston-fay/televantage-copilot/retriever"
)

const sampleContext = `[business-economics] Business Economics
## Lifetime Value

**CLTV** is computed as [ARPU](docs/arpu.md) times margin over churn.
- It rises when churn falls.
(relevance: 91.4%)
---
[risk-model] Churn Risk Model
Risk scores come from the model.
(relevance: 62.0%)`

func TestSummarizeContextCleansMarkdown(t *testing.T) {
	got := summarizeContext(sampleContext)
	if strings.Contains(got, "**") || strings.Contains(got, "##") || strings.Contains(got, "](") {
		t.Fatalf("markdown not stripped: %q", got)
	}
	if strings.Contains(got, "relevance") {
		t.Fatalf("relevance marker not dropped: %q", got)
	}
	if strings.Contains(got, "[business-economics]") {
		t.Fatalf("section heading not dropped: %q", got)
	}
	if !strings.Contains(got, "CLTV is computed as ARPU times margin over churn.") {
		t.Fatalf("passage content lost: %q", got)
	}
	if strings.Contains(got, "Risk scores") {
		t.Fatalf("summary must come from the first passage only: %q", got)
	}
}

func TestSummarizeContextTruncates(t *testing.T) {
	long := strings.Repeat("strategy context sentence. ", 30)
	got := summarizeContext(long)
	if len([]rune(got)) > summaryMaxChars+1 {
		t.Fatalf("summary too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated summary needs an ellipsis: %q", got)
	}
}

func TestSummarizeContextEmpty(t *testing.T) {
	if got := summarizeContext(""); got != noContextSummary {
		t.Fatalf("empty context should give the fixed sentence, got %q", got)
	}
	if got := summarizeContext("(relevance: 50.0%)\n---\n"); got != noContextSummary {
		t.Fatalf("marker-only context should give the fixed sentence, got %q", got)
	}
}

func TestComposeCitationsDedupAndPlaceholder(t *testing.T) {
	in := []retriever.Citation{
		{SectionID: "risk-model", Title: "Churn Risk Model"},
		{SectionID: "segments", Title: "Customer Segments"},
		{SectionID: "risk-model", Title: "Churn Risk Model"},
	}
	got := composeCitations(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated citations, got %d", len(got))
	}
	if got[0].Source != "risk-model" || got[1].Source != "segments" {
		t.Fatalf("first-seen order lost: %+v", got)
	}

	empty := composeCitations(nil)
	if len(empty) != 1 || empty[0].Source != "system" || empty[0].Ref != "No relevant sources found" {
		t.Fatalf("empty input needs the system placeholder, got %+v", empty)
	}
}

func TestComposeFollowUps(t *testing.T) {
	in := []retriever.Citation{
		{SectionID: "risk-model", Title: "Churn Risk Model"},
		{SectionID: "business-economics", Title: "Business Economics"},
	}
	got := composeFollowUps(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 follow-ups, got %d: %v", len(got), got)
	}
	if got[0] != followUpsBySection["risk-model"][0] {
		t.Fatalf("first follow-up should come from the first cited section, got %q", got[0])
	}
	seen := make(map[string]bool)
	for _, f := range got {
		if seen[f] {
			t.Fatalf("duplicate follow-up %q", f)
		}
		seen[f] = true
	}
}

func TestComposeFollowUpsPadsFromDefaults(t *testing.T) {
	got := composeFollowUps(nil)
	if len(got) != 3 {
		t.Fatalf("defaults should fill to 3, got %v", got)
	}
	for i, f := range got {
		if f != defaultFollowUps[i] {
			t.Fatalf("expected default list, got %v", got)
		}
	}
}

func TestComposeGroundedAnswerIsValid(t *testing.T) {
	a := ComposeGroundedAnswer("what is cltv", sampleContext, []retriever.Citation{
		{SectionID: "business-economics", Title: "Business Economics"},
	})
	if err := a.Validate(); err != nil {
		t.Fatalf("composed answer must validate: %v", err)
	}
}

package copilot

import (
	"regexp"
	"strings"

	"github.com/preston-fay/televantage-copilot/retriever"
)

const (
	summaryMaxChars  = 300
	noContextSummary = "No relevant information was found in the strategy knowledge base for this question."
)

// followUpsBySection suggests next questions per knowledge-base section.
var followUpsBySection = map[string][]string{
	"executive-summary": {
		"What are the headline churn findings?",
		"Which customer group should we act on first?",
	},
	"risk-model": {
		"How is the churn risk score calculated?",
		"Show me the customer risk distribution",
		"What defines a critical-risk customer?",
	},
	"model-drivers": {
		"What are the top churn drivers?",
		"How does contract type affect churn?",
	},
	"business-economics": {
		"What is customer lifetime value?",
		"How does churn reduction affect ARPU?",
		"Explain the ARPU elasticity model",
	},
	"retention-strategies": {
		"Compare ROI across retention strategies",
		"Which strategy has the best net benefit?",
	},
	"segments": {
		"Which segment churns the most?",
		"Show me churn rate by segment",
	},
}

var defaultFollowUps = []string{
	"What are the top churn drivers?",
	"Show me the customer risk distribution",
	"Compare ROI across retention strategies",
}

var (
	relevanceLineRe = regexp.MustCompile(`(?m)^\s*\(relevance:.*\)\s*$`)
	sectionHeadRe   = regexp.MustCompile(`(?m)^\s*\[[^\]]+\][^\n]*$`)
	mdHeaderRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBoldItalicRe  = regexp.MustCompile(`(\*\*|__|\*|_)`)
	mdCodeRe        = regexp.MustCompile("`+")
	mdLinkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdListRe        = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	blankRunRe      = regexp.MustCompile(`\n{2,}`)
)

// ComposeGroundedAnswer builds an answer from retrieved context. The
// first passage becomes the summary; citations are deduplicated per
// section; follow-ups come from the cited sections' suggestion lists.
func ComposeGroundedAnswer(query, contextText string, citations []retriever.Citation) Answer {
	return Answer{
		Text:      summarizeContext(contextText),
		Citations: composeCitations(citations),
		FollowUps: composeFollowUps(citations),
	}
}

// summarizeContext extracts and cleans the first passage of a retrieved
// context block.
func summarizeContext(contextText string) string {
	passages := strings.Split(contextText, "---")
	var first string
	for _, p := range passages {
		cleaned := cleanPassage(p)
		if cleaned != "" {
			first = cleaned
			break
		}
	}
	if first == "" {
		return noContextSummary
	}
	if runes := []rune(first); len(runes) > summaryMaxChars {
		first = strings.TrimSpace(string(runes[:summaryMaxChars])) + "…"
	}
	return first
}

// cleanPassage drops citation and relevance marker lines and strips
// markdown formatting.
func cleanPassage(p string) string {
	p = relevanceLineRe.ReplaceAllString(p, "")
	p = sectionHeadRe.ReplaceAllString(p, "")
	p = mdLinkRe.ReplaceAllString(p, "$1")
	p = mdHeaderRe.ReplaceAllString(p, "")
	p = mdListRe.ReplaceAllString(p, "")
	p = mdCodeRe.ReplaceAllString(p, "")
	p = mdBoldItalicRe.ReplaceAllString(p, "")
	p = strings.ReplaceAll(p, `\`, "")
	p = blankRunRe.ReplaceAllString(p, "\n")
	return strings.TrimSpace(p)
}

func composeCitations(citations []retriever.Citation) []Citation {
	seen := make(map[string]bool, len(citations))
	out := make([]Citation, 0, len(citations))
	for _, c := range citations {
		if seen[c.SectionID] {
			continue
		}
		seen[c.SectionID] = true
		out = append(out, Citation{Source: c.SectionID, Ref: c.Title})
	}
	if len(out) == 0 {
		out = append(out, Citation{Source: "system", Ref: "No relevant sources found"})
	}
	return out
}

// composeFollowUps takes the first suggestion from each of up to three
// distinct cited sections, then pads from the default list.
func composeFollowUps(citations []retriever.Citation) []string {
	var out []string
	seen := make(map[string]bool)
	sections := make(map[string]bool)
	for _, c := range citations {
		if len(out) >= 3 {
			break
		}
		if sections[c.SectionID] {
			continue
		}
		sections[c.SectionID] = true
		candidates := followUpsBySection[c.SectionID]
		if len(candidates) == 0 {
			continue
		}
		if !seen[candidates[0]] {
			seen[candidates[0]] = true
			out = append(out, candidates[0])
		}
	}
	for _, f := range defaultFollowUps {
		if len(out) >= 3 {
			break
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

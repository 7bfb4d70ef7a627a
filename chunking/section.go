package chunking

import "strings"

// ExtractSection locates a section of a markdown document by matching the
// normalized section id or the supplied title against level-2 headers.
// Matching strategies, in order: substring match of the normalized id
// against header text; substring match of the title; a fallback requiring
// at least half (rounded up) of the title's words longer than 3 characters
// to appear in the header. Documents without any level-2 headers are
// treated as a single section. The bool reports whether any strategy
// matched.
func ExtractSection(markdown, sectionID, title string) (string, bool) {
	headers := findHeaders(markdown)
	if len(headers) == 0 {
		return strings.TrimSpace(markdown), true
	}

	normalized := normalizeSectionID(sectionID)
	for _, h := range headers {
		if normalized != "" && strings.Contains(strings.ToLower(h.text), normalized) {
			return sectionBody(markdown, h, headers), true
		}
	}

	if title != "" {
		lowTitle := strings.ToLower(title)
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h.text), lowTitle) {
				return sectionBody(markdown, h, headers), true
			}
		}
	}

	// Fallback: majority of the significant title words appear in the header.
	source := title
	if source == "" {
		source = normalized
	}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(source)) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	if len(words) > 0 {
		needed := (len(words) + 1) / 2
		for _, h := range headers {
			low := strings.ToLower(h.text)
			hits := 0
			for _, w := range words {
				if strings.Contains(low, w) {
					hits++
				}
			}
			if hits >= needed {
				return sectionBody(markdown, h, headers), true
			}
		}
	}

	return "", false
}

// normalizeSectionID turns hyphens and underscores into spaces and
// lowercases, so "executive-summary" matches "Executive Summary".
func normalizeSectionID(id string) string {
	id = strings.ReplaceAll(id, "-", " ")
	id = strings.ReplaceAll(id, "_", " ")
	return strings.TrimSpace(strings.ToLower(id))
}

type header struct {
	text  string
	start int // offset of the header line
	body  int // offset just past the header line
}

func findHeaders(markdown string) []header {
	var out []header
	offset := 0
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "### ") {
			out = append(out, header{
				text:  strings.TrimSpace(strings.TrimPrefix(line, "## ")),
				start: offset,
				body:  offset + len(line) + 1,
			})
		}
		offset += len(line) + 1
	}
	return out
}

// sectionBody returns the text between this header and the next one.
func sectionBody(markdown string, h header, headers []header) string {
	end := len(markdown)
	for _, other := range headers {
		if other.start > h.start {
			end = other.start
			break
		}
	}
	if h.body > len(markdown) {
		return ""
	}
	return strings.TrimSpace(markdown[h.body:end])
}

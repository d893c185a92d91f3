package response

import (
	"regexp"
	"strings"
)

var citationPattern = regexp.MustCompile(`\[([0-9a-fA-F-]+#\d+)\]`)

// verifyCitations checks every citation in text against the labels actually
// present in the context. Unresolved citations are stripped from the text;
// the caller applies a confidence penalty per stripped label.
func verifyCitations(text string, validLabels map[string]struct{}) (cleaned string, cited []string, stripped int) {
	seen := make(map[string]struct{})
	cleaned = citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		label := match[1 : len(match)-1]
		if _, ok := validLabels[label]; !ok {
			stripped++
			return ""
		}
		if _, dup := seen[label]; !dup {
			seen[label] = struct{}{}
			cited = append(cited, label)
		}
		return match
	})
	cleaned = collapseSpaces(cleaned)
	return cleaned, cited, stripped
}

// collapseSpaces tidies the holes left by stripped citations.
func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.ReplaceAll(s, " .", ".")
	s = strings.ReplaceAll(s, " ,", ",")
	return strings.TrimSpace(s)
}

var sentenceEnd = regexp.MustCompile(`[.!?]+[\s"')\]]*`)

// splitSentences is a rough sentence splitter for citation-coverage scoring,
// not a linguistic one.
func splitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		if s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

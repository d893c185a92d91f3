package chunker

import "strings"

// segment splits text into semantic pieces whose concatenation equals the
// input exactly: paragraph boundaries first, then sentence boundaries for
// paragraphs above limit, then a hard rune split for anything still too long.
// Delimiters stay attached to the preceding piece so nothing is lost.
func segment(text string, limit int) []string {
	var out []string
	for _, para := range splitAfter(text, "\n\n") {
		if len([]rune(para)) <= limit {
			out = append(out, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if len([]rune(sent)) <= limit {
				out = append(out, sent)
				continue
			}
			out = append(out, hardSplit(sent, limit)...)
		}
	}
	return out
}

// packSegments greedily merges consecutive segments up to limit runes each.
// A single oversized segment never reaches here (segment hard-splits them).
func packSegments(segments []string, limit int) []string {
	var out []string
	var current strings.Builder
	currentLen := 0

	for _, seg := range segments {
		segLen := len([]rune(seg))
		if currentLen > 0 && currentLen+segLen > limit {
			out = append(out, current.String())
			current.Reset()
			currentLen = 0
		}
		current.WriteString(seg)
		currentLen += segLen
	}
	if currentLen > 0 {
		out = append(out, current.String())
	}
	return out
}

// splitAfter is like strings.SplitAfter but merges a trailing empty piece
// into its predecessor so every piece is non-empty.
func splitAfter(s, sep string) []string {
	parts := strings.SplitAfter(s, sep)
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits after sentence-ending punctuation followed by a space
// or newline, keeping the delimiter with the sentence.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
			out = append(out, string(runes[start:i+2]))
			i++
			start = i + 1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func hardSplit(s string, limit int) []string {
	runes := []rune(s)
	var out []string
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

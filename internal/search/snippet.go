package search

import (
	"strings"
	"unicode/utf8"
)

const snippetWindow = 240

// buildSnippet returns a codepoint-bounded window of content centered on
// the first occurrence of any term in terms, with an ellipsis on any side
// that was elided. If no term is found, the first snippetWindow codepoints
// are returned. content is matched case-insensitively.
func buildSnippet(content string, terms []string) string {
	runeCount := utf8.RuneCountInString(content)
	if runeCount <= snippetWindow {
		return content
	}

	matchByte := -1
	lower := strings.ToLower(content)
	for _, t := range terms {
		if t == "" {
			continue
		}
		if i := strings.Index(lower, strings.ToLower(t)); i >= 0 {
			if matchByte < 0 || i < matchByte {
				matchByte = i
			}
		}
	}
	if matchByte < 0 {
		matchByte = 0
	}

	matchRune := utf8.RuneCountInString(content[:matchByte])

	half := snippetWindow / 2
	start := matchRune - half
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > runeCount {
		end = runeCount
		start = end - snippetWindow
		if start < 0 {
			start = 0
		}
	}

	runes := []rune(content)
	snippet := string(runes[start:end])

	if start > 0 {
		snippet = "…" + snippet
	}
	if end < runeCount {
		snippet = snippet + "…"
	}
	return snippet
}

package sections

import (
	"regexp"
	"strings"
)

// trailingMarker matches a bracketed path at the very end of the input,
// optionally followed by closing punctuation.
var trailingMarker = regexp.MustCompile(`\[([^\[\]]+)\][ \t]*[.!]?[ \t]*$`)

// targetWords introduce an explicit target, as in "... in [D1:DEFINITION]".
var targetWords = []string{"in", "into", "to", "under"}

// InlineTarget is a target marker written at the end of user content.
type InlineTarget struct {
	// Content is the input with the marker (and its preposition) removed.
	Content string

	// Marker is the normalised marker.
	Marker string

	// Directed is true when a preposition introduced the marker. A directed
	// target is always an explicit request; an undirected trailing bracket
	// may just be part of the content.
	Directed bool
}

// ExtractTrailingMarker finds a target marker at the end of text.
// It returns false when there is none or when nothing would remain as content.
func ExtractTrailingMarker(text string) (InlineTarget, bool) {
	text = strings.TrimSpace(text)
	loc := trailingMarker.FindStringSubmatchIndex(text)
	if loc == nil {
		return InlineTarget{}, false
	}

	marker := text[loc[2]:loc[3]]
	if !IsMarker(marker) {
		return InlineTarget{}, false
	}

	content := strings.TrimSpace(text[:loc[0]])
	directed := false
	lower := strings.ToLower(content)
	for _, w := range targetWords {
		if lower == w {
			content, directed = "", true
			break
		}
		if strings.HasSuffix(lower, " "+w) || strings.HasSuffix(lower, "\t"+w) || strings.HasSuffix(lower, "\n"+w) {
			content = strings.TrimSpace(content[:len(content)-len(w)])
			directed = true
			break
		}
	}
	content = strings.TrimRight(content, " \t,:;-")

	if content == "" {
		return InlineTarget{}, false
	}

	return InlineTarget{
		Content:  content,
		Marker:   NormalizeMarker(marker),
		Directed: directed,
	}, true
}

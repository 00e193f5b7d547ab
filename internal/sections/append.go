package sections

import (
	"fmt"
	"strings"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// Insertion describes where and what to insert to append to a section.
type Insertion struct {
	// Offset is the byte offset in the raw document.
	Offset int

	// Text is the exact text to insert at Offset.
	Text string
}

// PlanAppend computes the insertion that appends text to the section with
// the given marker. The text lands after the last non-blank character of
// the section, separated from existing content by a blank line, so any
// whitespace before the next marker is preserved. When a marker occurs more
// than once the last occurrence is used, matching Parse.
func PlanAppend(raw, marker, text string) (Insertion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Insertion{}, fmt.Errorf("%w: empty content", domain.ErrInvalidInput)
	}
	if len(Scan(text)) > 0 {
		return Insertion{}, fmt.Errorf("%w: content contains a section marker line", domain.ErrInvalidInput)
	}

	key := NormalizeMarker(marker)
	var span *Span
	spans := Scan(raw)
	for i := range spans {
		if spans[i].Marker == key {
			span = &spans[i]
		}
	}
	if span == nil {
		return Insertion{}, fmt.Errorf("%w: %s", domain.ErrMarkerNotFound, FormatMarker(key))
	}

	pos := span.BodyEnd
	for pos > span.BodyStart && isBlank(raw[pos-1]) {
		pos--
	}

	if pos > span.BodyStart {
		return Insertion{Offset: pos, Text: "\n\n" + text}, nil
	}

	// Empty section: place the text directly under the heading.
	insert := text + "\n"
	if span.BodyStart == len(raw) && !strings.HasSuffix(raw, "\n") {
		insert = "\n" + insert
	}
	return Insertion{Offset: span.BodyStart, Text: insert}, nil
}

// Append returns raw with text appended to the section with the given marker.
func Append(raw, marker, text string) (string, error) {
	ins, err := PlanAppend(raw, marker, text)
	if err != nil {
		return "", err
	}
	return raw[:ins.Offset] + ins.Text + raw[ins.Offset:], nil
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

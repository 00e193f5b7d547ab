// Package sections splits a research document into marker-delimited sections.
//
// A marker is a bracketed uppercase path such as "[D1:DEFINITION]" or
// "[TABLE 7]" at the start of a line. The text after it, on the same line and
// up to the next marker, is the section body. Text before the first marker is
// the preamble.
package sections

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// markerLine matches a heading line after trailing CR removal. Group 2 holds
// any body text written on the heading line itself.
var markerLine = regexp.MustCompile(`^[ \t]*\[([A-Z0-9][A-Z0-9 _:&/()'.,\-]*)\]([ \t].*)?$`)

// markerPath matches a bare marker path.
var markerPath = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 _:&/()'.,\-]*$`)

// Span locates a marker and its body by byte offsets in the raw document.
type Span struct {
	// Marker is the normalised marker path.
	Marker string

	// Line is the 1-based line number of the heading.
	Line int

	// HeadingStart is the offset of the first byte of the heading line.
	HeadingStart int

	// BodyStart is the offset just past the closing bracket when body text
	// follows on the heading line, otherwise just past the line terminator.
	BodyStart int

	// BodyEnd is the offset of the next heading line, or len(raw).
	BodyEnd int
}

// Result is a parsed document.
type Result struct {
	// Preamble is the trimmed text before the first marker.
	Preamble string

	// Sections lists unique sections in document order.
	Sections []domain.Section

	// Warnings lists non-fatal issues such as duplicate markers.
	Warnings []domain.ParseWarning
}

// Section returns the section with the given marker.
func (r *Result) Section(marker string) (domain.Section, bool) {
	key := NormalizeMarker(marker)
	for _, s := range r.Sections {
		if s.Marker == key {
			return s, true
		}
	}
	return domain.Section{}, false
}

// Scan returns every marker occurrence in document order, duplicates included.
// Line endings are left untouched so offsets address the raw text.
func Scan(raw string) []Span {
	var spans []Span

	offset := 0
	line := 0
	for offset <= len(raw) {
		line++

		var text string
		next := len(raw) + 1
		if end := strings.IndexByte(raw[offset:], '\n'); end >= 0 {
			text = raw[offset : offset+end]
			next = offset + end + 1
		} else {
			text = raw[offset:]
		}

		text = strings.TrimRight(text, "\r")
		if m := markerLine.FindStringSubmatchIndex(text); m != nil {
			if n := len(spans); n > 0 {
				spans[n-1].BodyEnd = offset
			}
			bodyStart := min(next, len(raw))
			if m[4] >= 0 && strings.TrimSpace(text[m[4]:m[5]]) != "" {
				bodyStart = offset + m[4]
			}
			spans = append(spans, Span{
				Marker:       NormalizeMarker(text[m[2]:m[3]]),
				Line:         line,
				HeadingStart: offset,
				BodyStart:    bodyStart,
			})
		}

		offset = next
	}

	if n := len(spans); n > 0 {
		spans[n-1].BodyEnd = len(raw)
	}
	return spans
}

// Parse splits raw into sections.
//
// A duplicate marker keeps its later occurrence and records a warning for
// each earlier one. Positions are assigned 0..n-1 over the kept sections.
// A document without markers yields domain.ErrNoMarkers.
func Parse(raw string) (*Result, error) {
	spans := Scan(raw)
	if len(spans) == 0 {
		return nil, fmt.Errorf("parse: %w", domain.ErrNoMarkers)
	}

	last := make(map[string]int, len(spans))
	for i, s := range spans {
		last[s.Marker] = i
	}

	result := &Result{
		Preamble: cleanBody(raw[:spans[0].HeadingStart]),
		Sections: make([]domain.Section, 0, len(last)),
	}

	for i, s := range spans {
		if winner := last[s.Marker]; winner != i {
			result.Warnings = append(result.Warnings, domain.ParseWarning{
				Marker:  s.Marker,
				Line:    s.Line,
				Message: fmt.Sprintf("duplicate marker ignored, superseded by line %d", spans[winner].Line),
			})
			continue
		}

		dom, kind := SplitMarker(s.Marker)
		result.Sections = append(result.Sections, domain.Section{
			Marker:   s.Marker,
			Domain:   dom,
			Kind:     kind,
			Position: len(result.Sections),
			Body:     cleanBody(raw[s.BodyStart:s.BodyEnd]),
		})
	}

	return result, nil
}

// SplitMarker returns the domain (prefix before the first colon) and the
// section kind. A marker without a colon has no domain.
func SplitMarker(marker string) (dom, kind string) {
	before, after, found := strings.Cut(marker, ":")
	if !found {
		return "", strings.TrimSpace(marker)
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// NormalizeMarker converts user or document input into the canonical marker
// form: brackets removed, upper case, inner whitespace collapsed.
func NormalizeMarker(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// IsMarker reports whether s (with or without brackets) is a well-formed marker.
func IsMarker(s string) bool {
	m := NormalizeMarker(s)
	return m != "" && markerPath.MatchString(m)
}

// FormatMarker renders a marker in its bracketed document form.
func FormatMarker(marker string) string {
	return "[" + marker + "]"
}

func cleanBody(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

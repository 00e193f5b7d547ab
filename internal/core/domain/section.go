package domain

import (
	"strconv"
	"strings"
)

// Section is a marker-delimited region of the research document.
// The document is the source of truth; sections are derived on every parse.
type Section struct {
	// Marker is the path inside the brackets, e.g. "D1:DEFINITION".
	Marker string

	// Domain is the marker prefix before the first colon, e.g. "D1".
	// Empty for markers without a colon.
	Domain string

	// Kind is the marker remainder after the first colon, e.g. "DEFINITION".
	// Equal to Marker when the marker has no domain.
	Kind string

	// Position is the 0-based order index of the section in the document.
	Position int

	// Body is the trimmed section text. It may be empty.
	Body string
}

// Heading returns the marker in its bracketed document form.
func (s Section) Heading() string {
	return "[" + s.Marker + "]"
}

// IsEmpty reports whether the section has no content.
func (s Section) IsEmpty() bool {
	return strings.TrimSpace(s.Body) == ""
}

// DomainOrDefault returns the section domain, or GeneralDomain when none is set.
func (s Section) DomainOrDefault() string {
	if s.Domain == "" {
		return GeneralDomain
	}
	return s.Domain
}

// GeneralDomain groups sections whose marker carries no domain prefix.
const GeneralDomain = "GENERAL"

// ParseWarning is a non-fatal issue found while parsing a document.
type ParseWarning struct {
	// Marker is the marker the warning refers to.
	Marker string

	// Line is the 1-based line number of the offending marker.
	Line int

	// Message describes the issue.
	Message string
}

// String formats the warning for display.
func (w ParseWarning) String() string {
	return "line " + strconv.Itoa(w.Line) + ": [" + w.Marker + "] " + w.Message
}

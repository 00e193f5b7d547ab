package domain

// GapStatus is the coverage status of a section.
type GapStatus string

// Available gap statuses.
const (
	// GapEmpty means the section has no content.
	GapEmpty GapStatus = "EMPTY"

	// GapIncomplete means the section has less content than the minimum.
	GapIncomplete GapStatus = "INCOMPLETE"

	// GapOK means the section meets the minimum content length.
	GapOK GapStatus = "OK"
)

// IsGap reports whether the status needs attention.
func (s GapStatus) IsGap() bool {
	return s == GapEmpty || s == GapIncomplete
}

// SectionGap is the status of a single section.
type SectionGap struct {
	Marker   string
	Domain   string
	Position int
	Status   GapStatus
	Length   int
}

// DomainSummary aggregates gap statuses for one domain.
type DomainSummary struct {
	// Domain is the domain prefix, or GeneralDomain.
	Domain string

	Total      int
	Empty      int
	Incomplete int
	OK         int
}

// PercentComplete returns the share of OK sections in percent.
func (d DomainSummary) PercentComplete() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.OK) * 100 / float64(d.Total)
}

// GapReport is the result of a gap analysis.
type GapReport struct {
	// Scope is the domain the analysis was limited to, empty for all.
	Scope string

	// MinContentLength is the threshold used for INCOMPLETE.
	MinContentLength int

	// Sections lists every analysed section in document order.
	Sections []SectionGap

	// Domains lists per-domain summaries in first-appearance order.
	Domains []DomainSummary

	// Totals aggregates all analysed sections.
	Totals DomainSummary
}

// Gaps returns only the sections that are EMPTY or INCOMPLETE.
func (r *GapReport) Gaps() []SectionGap {
	var gaps []SectionGap
	for _, s := range r.Sections {
		if s.Status.IsGap() {
			gaps = append(gaps, s)
		}
	}
	return gaps
}

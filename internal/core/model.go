package core

import (
	"strings"
	"time"
)

// Category identifies which analyzer produced a finding.
type Category string

const (
	CategoryHeader     Category = "header"
	CategoryURL        Category = "url"
	CategoryAttachment Category = "attachment"
)

// RiskLevel is the banded label derived from the total score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ParsedMessage is the structured form of one raw email message. It is
// built once by the ingest parser and treated as read-only by every
// analyzer for the rest of the run.
type ParsedMessage struct {
	// Headers maps lower-cased header names to their raw values in
	// original order. A name may repeat; mail systems append rather
	// than replace.
	Headers map[string][]string

	Subject    string
	From       string
	ReturnPath string
	ReplyTo    string

	BodyText string
	BodyHTML string

	Attachments []AttachmentRef
}

// Header returns the first raw value for a header name, or "".
func (m *ParsedMessage) Header(name string) string {
	values := m.Headers[normalizeHeaderName(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// HeaderValues returns every raw value for a header name in order.
func (m *ParsedMessage) HeaderValues(name string) []string {
	return m.Headers[normalizeHeaderName(name)]
}

func normalizeHeaderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AttachmentRef describes one decoded attachment. Content holds the raw
// bytes decoded from the transport encoding; it is scoped to the analysis
// run and must never be written to disk.
type AttachmentRef struct {
	Filename            string
	DeclaredContentType string
	Content             []byte
	Size                int64
}

// Finding is one discrete, weighted piece of evidence. Analyzers emit
// findings with Weight zero; the scoring engine fills in the configured
// weight when it builds the report.
type Finding struct {
	Category    Category `json:"category"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Weight      int      `json:"weight"`
}

// Metadata carries message identity alongside the verdict.
type Metadata struct {
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	ReturnPath string    `json:"return_path"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// AnalysisReport is the terminal output of one analysis run. It is never
// mutated after construction; ownership passes to whichever caller asked
// for the analysis.
type AnalysisReport struct {
	TotalScore int       `json:"total_score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Findings   []Finding `json:"findings"`
	Metadata   Metadata  `json:"metadata"`
}

package core

// MessageParser turns raw mail source into a ParsedMessage.
type MessageParser interface {
	// Parse decodes a raw message. It returns an error wrapping
	// ErrMalformedMessage only when the input cannot be decoded as mail
	// at all; structurally odd but decodable input parses fine.
	Parse(raw []byte) (*ParsedMessage, error)
}

// Analyzer is one detection pass over a parsed message. Implementations
// read only the message and the Policy they were constructed with, so a
// caller may run them concurrently if it wishes.
type Analyzer interface {
	// Category identifies the findings this analyzer produces.
	Category() Category

	// Analyze evaluates the message and returns zero or more findings.
	// It never fails: checks that cannot be evaluated degrade to
	// *_UNPARSEABLE findings.
	Analyze(msg *ParsedMessage) []Finding
}

// ReportSink persists a finished report and returns where it was written.
type ReportSink interface {
	Write(report *AnalysisReport) (string, error)
}

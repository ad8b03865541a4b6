package errs

import "fmt"

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// NotFound indicates the requested report does not exist (HTTP 404).
	NotFound
	// Unreachable indicates the target URL could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates the pipeline exceeded its deadline (HTTP 504).
	Timeout
	// EngineFailed indicates the audit engine could not be run, crashed,
	// or could not load the target (HTTP 502).
	EngineFailed
	// MalformedAudit indicates a required field was absent from the raw
	// audit document, usually an engine version mismatch (HTTP 500).
	MalformedAudit
	// RecommendationFailed indicates the language-generation call failed
	// or returned an empty completion (HTTP 502).
	RecommendationFailed
	// IncompleteReport indicates report assembly was invoked with a
	// missing required input; a caller bug, not a runtime condition.
	IncompleteReport
)

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by an upstream service
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

package audit

import (
	"context"
	"encoding/json"
)

// Engine defines the contract for any audit engine: load the URL, score
// it across the fixed category set, return the raw audit document. A
// single failed attempt surfaces immediately; engines never retry.
type Engine interface {
	Run(ctx context.Context, targetURL string) (*Result, error)
}

// Result carries one engine run: the typed document, the original JSON
// payload, and the HTML artifact when the engine produces one.
type Result struct {
	Document *Document
	RawJSON  json.RawMessage
	HTML     string
}

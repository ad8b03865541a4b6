package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sitehealth/audit-service/internal/platform/errs"
)

// PageSpeedRunner runs audits through a remote PageSpeed API instead of
// a local browser. The remote service returns the same raw audit
// document shape but no HTML artifact.
type PageSpeedRunner struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewPageSpeedRunner returns a runner that calls the given runPagespeed
// endpoint. The API key may be empty for unauthenticated quota.
func NewPageSpeedRunner(endpoint, apiKey string) *PageSpeedRunner {
	return &PageSpeedRunner{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Run audits targetURL through the remote API.
func (r *PageSpeedRunner) Run(ctx context.Context, targetURL string) (*Result, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine endpoint is not a valid URL.",
			Cause:   err,
		}
	}

	q := u.Query()
	q.Set("url", targetURL)
	if r.apiKey != "" {
		q.Set("key", r.apiKey)
	}
	for _, c := range Categories {
		// The API spells categories UPPER_SNAKE; the CLI spells them
		// lower-kebab.
		q.Add("category", strings.ToUpper(strings.ReplaceAll(c, "-", "_")))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "Could not build the audit engine request.",
			Cause:   err,
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine could not be reached.",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.AppError{
			Kind:           errs.EngineFailed,
			UpstreamStatus: resp.StatusCode,
			Message:        "The audit engine rejected the request.",
		}
	}

	// Raw documents for content-heavy pages run to tens of megabytes.
	const maxResponseBody = 100 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine response could not be read.",
			Cause:   err,
		}
	}

	var envelope struct {
		LighthouseResult json.RawMessage `json:"lighthouseResult"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.LighthouseResult) == 0 {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine returned a malformed document.",
			Cause:   err,
		}
	}

	doc, err := ParseDocument(envelope.LighthouseResult)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine returned a malformed document.",
			Cause:   err,
		}
	}

	return &Result{Document: doc, RawJSON: envelope.LighthouseResult}, nil
}

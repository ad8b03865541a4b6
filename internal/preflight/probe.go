// Package preflight verifies a submitted URL actually serves a page
// before an audit engine run is paid for it. The probe blocks requests
// into private networks, bounds redirects, and grabs the page title for
// the report list view.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sitehealth/audit-service/internal/platform/errs"
)

const (
	maxRedirects    = 5
	userAgent       = "SiteHealthBot/1.0"
	maxResponseBody = 2 << 20 // the title lives in <head>; 2 MB is plenty
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// Probe checks URL reachability with an SSRF-hardened HTTP client.
type Probe struct {
	client *http.Client
}

// New returns a Probe with a 10s timeout, a transport that refuses
// connections to private/reserved IP ranges, and redirect validation.
func New() *Probe {
	return &Probe{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext:         safeDialer().DialContext,
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Check validates the URL shape, fetches the page, and returns its
// title (possibly empty). Unreachable targets and error statuses fail
// with an Unreachable AppError so no audit is started for them.
func (p *Probe) Check(ctx context.Context, targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
			Cause:   err,
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only http and https URLs are supported.",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
			Cause:   err,
		}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &errs.AppError{
			Kind:    errs.Unreachable,
			Message: "The provided URL could not be reached. Check the address.",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: resp.StatusCode,
			Message:        "The provided URL returned an error status.",
		}
	}

	return pageTitle(io.LimitReader(resp.Body, maxResponseBody)), nil
}

// pageTitle scans the HTML stream for the first <title> text. Parse
// problems just yield an empty title; the probe has already proven
// reachability by this point.
func pageTitle(body io.Reader) string {
	z := html.NewTokenizer(body)
	var inTitle bool

	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""

		case html.StartTagToken:
			tn, _ := z.TagName()
			if string(tn) == "title" {
				inTitle = true
			}

		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(z.Text()))
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			if string(tn) == "title" {
				return ""
			}
		}
	}
}

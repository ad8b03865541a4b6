package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/sitehealth/audit-service/internal/platform/errs"
)

// testProbe uses the test server's client so the loopback-blocking
// dialer does not get in the way.
func testProbe(ts *httptest.Server) *Probe {
	return &Probe{client: ts.Client()}
}

func TestProbe_Check(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("User-Agent = %q, want %q", r.Header.Get("User-Agent"), userAgent)
		}
		_, _ = fmt.Fprint(w, `<!DOCTYPE html><html><head><title> Example Domain </title></head><body></body></html>`)
	}))
	defer ts.Close()

	title, err := testProbe(ts).Check(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "Example Domain" {
		t.Errorf("title = %q, want %q", title, "Example Domain")
	}
}

func TestProbe_Check_NoTitle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><p>no head here</p></body></html>`)
	}))
	defer ts.Close()

	title, err := testProbe(ts).Check(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "" {
		t.Errorf("title = %q, want empty", title)
	}
}

func TestProbe_Check_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := testProbe(ts).Check(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var appErr *errs.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *errs.AppError, got %T", err)
	}
	if appErr.Kind != errs.Unreachable {
		t.Errorf("Kind = %d, want %d (Unreachable)", appErr.Kind, errs.Unreachable)
	}
	if appErr.UpstreamStatus != http.StatusNotFound {
		t.Errorf("UpstreamStatus = %d, want %d", appErr.UpstreamStatus, http.StatusNotFound)
	}
}

func TestProbe_Check_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	client := ts.Client()
	ts.Close()

	_, err := (&Probe{client: client}).Check(context.Background(), url)
	var appErr *errs.AppError
	if !errors.As(err, &appErr) || appErr.Kind != errs.Unreachable {
		t.Errorf("expected Unreachable AppError, got %v", err)
	}
}

func TestProbe_Check_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "example.com"},
		{"no host", "https://"},
		{"unsupported scheme", "ftp://example.com"},
		{"garbage", "ht tp://bad url"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Check(context.Background(), tt.url)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var appErr *errs.AppError
			if !errors.As(err, &appErr) || appErr.Kind != errs.InvalidInput {
				t.Errorf("expected InvalidInput AppError, got %v", err)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "simple title",
			html:     `<html><head><title>Hello World</title></head></html>`,
			expected: "Hello World",
		},
		{
			name:     "empty title",
			html:     `<html><head><title></title></head></html>`,
			expected: "",
		},
		{
			name:     "missing title",
			html:     `<html><head></head><body></body></html>`,
			expected: "",
		},
		{
			name:     "whitespace trimmed",
			html:     "<html><head><title>\n  Spaced Out  \n</title></head></html>",
			expected: "Spaced Out",
		},
		{
			name:     "not html at all",
			html:     `{"json": true}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageTitle(strings.NewReader(tt.html)); got != tt.expected {
				t.Errorf("pageTitle = %q, want %q", got, tt.expected)
			}
		})
	}
}

func mustParseAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	addr, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("parse addr %q: %v", s, err)
	}
	return addr
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		addr    string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"10.0.0.5", true},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"100.64.0.1", true},
		{"198.18.0.1", true},
		{"::1", true},
		{"::ffff:127.0.0.1", true},
		{"93.184.216.34", false},
		{"2606:2800:220:1:248:1893:25c8:1946", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := isBlockedIP(mustParseAddr(t, tt.addr)); got != tt.blocked {
				t.Errorf("isBlockedIP(%s) = %v, want %v", tt.addr, got, tt.blocked)
			}
		})
	}
}

package audit

import (
	"strings"
	"testing"
)

const sampleDocument = `{
	"categories": {
		"performance": {"score": 0.93},
		"accessibility": {"score": null}
	},
	"audits": {
		"largest-contentful-paint": {
			"score": 0.91,
			"title": "Largest Contentful Paint",
			"numericValue": 2450.5
		},
		"resource-summary": {
			"score": null,
			"details": {
				"items": [
					{"resourceType": "script", "url": "https://example.com/app.js"},
					{"resourceType": "image"}
				]
			}
		}
	}
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s := doc.Categories["performance"]; s == nil || *s != 0.93 {
		t.Errorf("performance score = %v, want 0.93", s)
	}
	if s, ok := doc.Categories["accessibility"]; !ok || s != nil {
		t.Errorf("accessibility score = %v, want present and null", s)
	}

	lcp, ok := doc.Audits["largest-contentful-paint"]
	if !ok {
		t.Fatal("largest-contentful-paint check missing")
	}
	if lcp.Title != "Largest Contentful Paint" {
		t.Errorf("Title = %q", lcp.Title)
	}
	if lcp.NumericValue == nil || *lcp.NumericValue != 2450.5 {
		t.Errorf("NumericValue = %v, want 2450.5", lcp.NumericValue)
	}

	rs := doc.Audits["resource-summary"]
	if rs.Score != nil {
		t.Errorf("resource-summary score = %v, want nil", rs.Score)
	}
	if len(rs.Details.Items) != 2 {
		t.Fatalf("detail items = %d, want 2", len(rs.Details.Items))
	}
	if rs.Details.Items[0].ResourceType != "script" {
		t.Errorf("ResourceType = %q, want script", rs.Details.Items[0].ResourceType)
	}
}

func TestParseDocument_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json at all"},
		{"empty object", "{}"},
		{"no audits", `{"categories": {"performance": {"score": 1}}}`},
		{"no categories", `{"audits": {"viewport": {"score": 1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDocument([]byte(tt.data)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestParseDocument_ReExtractIsStable(t *testing.T) {
	first, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ParseDocument([]byte(strings.Clone(sampleDocument)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := first.Audits["largest-contentful-paint"]
	b := second.Audits["largest-contentful-paint"]
	if *a.NumericValue != *b.NumericValue || *a.Score != *b.Score {
		t.Error("re-parsing the same document yielded different values")
	}
}

package model

import (
	"encoding/json"
	"time"
)

// Report is the persisted outcome of one successful audit pipeline run.
// It is assembled once and never updated afterwards.
type Report struct {
	ID              string     `json:"id"`
	URL             string     `json:"url"`
	PageTitle       string     `json:"pageTitle,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Summary         Summary    `json:"summary"`
	Metrics         Metrics    `json:"metrics"`
	Recommendations string     `json:"recommendations"`
	FullReport      FullReport `json:"fullReport"`
}

// Summary holds the four category scores as integer percentages (0-100).
type Summary struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"bestPractices"`
	SEO           int `json:"seo"`
}

// Metrics is the normalized report body derived from the raw audit document.
type Metrics struct {
	CoreWebVitals CoreWebVitals      `json:"coreWebVitals"`
	Performance   PerformanceMetrics `json:"performance"`
	Accessibility Accessibility      `json:"accessibility"`
	SEO           SEO                `json:"seo"`
	BestPractices BestPractices      `json:"bestPractices"`
}

// MetricValue is a single measured vital or timing with its score.
type MetricValue struct {
	Value float64 `json:"value"`
	Score int     `json:"score"`
	Unit  string  `json:"unit"`
}

// CoreWebVitals are the five named page-load quality metrics.
type CoreWebVitals struct {
	LCP MetricValue `json:"lcp"`
	FID MetricValue `json:"fid"`
	CLS MetricValue `json:"cls"`
	FCP MetricValue `json:"fcp"`
	TTI MetricValue `json:"tti"`
}

// PerformanceMetrics holds the remaining timing metrics and the network
// resource breakdown.
type PerformanceMetrics struct {
	SpeedIndex        MetricValue    `json:"speedIndex"`
	TotalBlockingTime MetricValue    `json:"totalBlockingTime"`
	Resources         ResourceCounts `json:"resources"`
}

// ResourceCounts classifies network resources by declared type.
type ResourceCounts struct {
	Total      int `json:"total"`
	JavaScript int `json:"javascript"`
	CSS        int `json:"css"`
	Images     int `json:"images"`
	Fonts      int `json:"fonts"`
	Other      int `json:"other"`
}

// Issue is a failing or partially-failing check surfaced to the user.
// ElementsAffected is only populated for accessibility issues.
type Issue struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Impact           string `json:"impact"`
	ElementsAffected int    `json:"elementsAffected,omitempty"`
}

// Accessibility lists the failing accessibility checks.
type Accessibility struct {
	Issues []Issue `json:"issues"`
}

// SEO holds meta-tag, structured-data and mobile-friendliness findings.
type SEO struct {
	MetaTags       MetaTags       `json:"metaTags"`
	StructuredData StructuredData `json:"structuredData"`
	MobileFriendly bool           `json:"mobileFriendly"`
	Issues         []Issue        `json:"issues"`
}

// MetaTags counts the passing and failing meta-tag checks.
type MetaTags struct {
	Present int `json:"present"`
	Missing int `json:"missing"`
}

// StructuredData reports whether structured data was detected and its type.
type StructuredData struct {
	Present bool   `json:"present"`
	Type    string `json:"type"`
}

// BestPractices holds security and console findings.
type BestPractices struct {
	Security       Security `json:"security"`
	ConsoleErrors  int      `json:"consoleErrors"`
	DeprecatedAPIs int      `json:"deprecatedApis"`
	Issues         []Issue  `json:"issues"`
}

// Security reports HTTPS usage and security-header coverage.
type Security struct {
	HTTPS           bool            `json:"https"`
	SecurityHeaders SecurityHeaders `json:"securityHeaders"`
}

// SecurityHeaders counts present and missing security headers.
type SecurityHeaders struct {
	Present int `json:"present"`
	Missing int `json:"missing"`
}

// FullReport carries the original audit artifacts for download.
type FullReport struct {
	JSON json.RawMessage `json:"json"`
	HTML string          `json:"html,omitempty"`
}

// ReportListItem is the projection returned by the list endpoint.
type ReportListItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	PageTitle string    `json:"pageTitle,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

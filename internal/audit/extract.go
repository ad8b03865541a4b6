package audit

import (
	"math"
	"sort"
	"strings"

	"github.com/sitehealth/audit-service/internal/model"
)

// Check ids the extractor depends on structurally. A document missing
// any of these fails extraction with MalformedAudit.
const (
	checkLCP            = "largest-contentful-paint"
	checkFID            = "max-potential-fid"
	checkCLS            = "cumulative-layout-shift"
	checkFCP            = "first-contentful-paint"
	checkTTI            = "interactive"
	checkSpeedIndex     = "speed-index"
	checkTBT            = "total-blocking-time"
	checkResources      = "resource-summary"
	checkStructuredData = "structured-data"
	checkViewport       = "viewport"
	checkHTTPS          = "is-on-https"
	checkConsoleErrors  = "errors-in-console"
	checkDeprecations   = "deprecations"
)

// Check-id prefixes that scope issue scans and pass/fail counts to a
// category.
const (
	prefixAccessibility   = "accessibility-"
	prefixSEO             = "seo-"
	prefixBestPractices   = "best-practices-"
	prefixMeta            = "meta-"
	prefixSecurityHeaders = "security-headers-"
)

// Impact thresholds for issue severity tiers.
const (
	impactSeriousBelow  = 0.5
	impactModerateBelow = 0.9
)

// Extract normalizes a raw audit document into the summary percentages
// and the fixed metrics schema. It is pure: no I/O, no state, and the
// summary scores and any score embedded in the metrics derive from the
// same pass so they cannot disagree.
func Extract(doc *Document) (model.Summary, model.Metrics, error) {
	var (
		summary model.Summary
		metrics model.Metrics
	)

	perf, err := doc.requireCategoryScore("performance")
	if err != nil {
		return summary, metrics, err
	}
	a11y, err := doc.requireCategoryScore("accessibility")
	if err != nil {
		return summary, metrics, err
	}
	bp, err := doc.requireCategoryScore("best-practices")
	if err != nil {
		return summary, metrics, err
	}
	seo, err := doc.requireCategoryScore("seo")
	if err != nil {
		return summary, metrics, err
	}
	summary = model.Summary{
		Performance:   roundPct(perf),
		Accessibility: roundPct(a11y),
		BestPractices: roundPct(bp),
		SEO:           roundPct(seo),
	}

	vitals, err := extractVitals(doc)
	if err != nil {
		return summary, metrics, err
	}

	perfMetrics, err := extractPerformance(doc)
	if err != nil {
		return summary, metrics, err
	}

	seoMetrics, err := extractSEO(doc)
	if err != nil {
		return summary, metrics, err
	}

	bpMetrics, err := extractBestPractices(doc)
	if err != nil {
		return summary, metrics, err
	}

	metrics = model.Metrics{
		CoreWebVitals: vitals,
		Performance:   perfMetrics,
		Accessibility: model.Accessibility{
			Issues: issuesFor(doc, prefixAccessibility, true),
		},
		SEO:           seoMetrics,
		BestPractices: bpMetrics,
	}
	return summary, metrics, nil
}

func extractVitals(doc *Document) (model.CoreWebVitals, error) {
	var v model.CoreWebVitals
	var err error

	// lcp, fcp and tti arrive in milliseconds and are reported in
	// seconds; fid stays in milliseconds; cls is unitless.
	if v.LCP, err = secondsMetric(doc, checkLCP); err != nil {
		return v, err
	}
	if v.FID, err = millisMetric(doc, checkFID); err != nil {
		return v, err
	}
	if v.CLS, err = unitlessMetric(doc, checkCLS); err != nil {
		return v, err
	}
	if v.FCP, err = secondsMetric(doc, checkFCP); err != nil {
		return v, err
	}
	if v.TTI, err = secondsMetric(doc, checkTTI); err != nil {
		return v, err
	}
	return v, nil
}

func extractPerformance(doc *Document) (model.PerformanceMetrics, error) {
	var p model.PerformanceMetrics
	var err error

	if p.SpeedIndex, err = secondsMetric(doc, checkSpeedIndex); err != nil {
		return p, err
	}
	if p.TotalBlockingTime, err = millisMetric(doc, checkTBT); err != nil {
		return p, err
	}

	rc, err := doc.requireCheck(checkResources)
	if err != nil {
		return p, err
	}
	p.Resources = countResources(rc.Details.Items)
	return p, nil
}

// countResources buckets network resources by declared type. Anything
// outside the fixed mapping lands in Other, so the buckets always sum
// to Total.
func countResources(items []DetailItem) model.ResourceCounts {
	counts := model.ResourceCounts{Total: len(items)}
	for _, item := range items {
		switch item.ResourceType {
		case "script":
			counts.JavaScript++
		case "stylesheet":
			counts.CSS++
		case "image":
			counts.Images++
		case "font":
			counts.Fonts++
		default:
			counts.Other++
		}
	}
	return counts
}

func extractSEO(doc *Document) (model.SEO, error) {
	var s model.SEO

	sd, err := doc.requireCheck(checkStructuredData)
	if err != nil {
		return s, err
	}
	vp, err := doc.requireCheck(checkViewport)
	if err != nil {
		return s, err
	}

	s.MetaTags = model.MetaTags{
		Present: countChecksWithScore(doc, prefixMeta, 1),
		Missing: countChecksWithScore(doc, prefixMeta, 0),
	}
	s.StructuredData = model.StructuredData{
		Present: scoreEquals(sd.Score, 1),
		Type:    structuredDataType(sd.Details.Items),
	}
	s.MobileFriendly = scoreEquals(vp.Score, 1)
	s.Issues = issuesFor(doc, prefixSEO, false)
	return s, nil
}

func structuredDataType(items []DetailItem) string {
	if len(items) > 0 && items[0].Type != "" {
		return items[0].Type
	}
	return "None"
}

func extractBestPractices(doc *Document) (model.BestPractices, error) {
	var b model.BestPractices

	https, err := doc.requireCheck(checkHTTPS)
	if err != nil {
		return b, err
	}
	console, err := doc.requireCheck(checkConsoleErrors)
	if err != nil {
		return b, err
	}
	deprecations, err := doc.requireCheck(checkDeprecations)
	if err != nil {
		return b, err
	}

	b.Security = model.Security{
		HTTPS: scoreEquals(https.Score, 1),
		SecurityHeaders: model.SecurityHeaders{
			Present: countChecksWithScore(doc, prefixSecurityHeaders, 1),
			Missing: countChecksWithScore(doc, prefixSecurityHeaders, 0),
		},
	}
	b.ConsoleErrors = len(console.Details.Items)
	b.DeprecatedAPIs = len(deprecations.Details.Items)
	b.Issues = issuesFor(doc, prefixBestPractices, false)
	return b, nil
}

// issuesFor collects every check under the prefix with a non-null score
// below 1. Results are ordered by check id so downstream prompt
// construction is deterministic.
func issuesFor(doc *Document, prefix string, withElements bool) []model.Issue {
	issues := []model.Issue{}
	for id, check := range doc.Audits {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if check.Score == nil || *check.Score >= 1 {
			continue
		}
		issue := model.Issue{
			ID:     id,
			Title:  check.Title,
			Impact: impactFor(*check.Score),
		}
		if withElements {
			issue.ElementsAffected = len(check.Details.Items)
		}
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].ID < issues[j].ID })
	return issues
}

// impactFor derives the severity tier from a check score.
func impactFor(score float64) string {
	switch {
	case score < impactSeriousBelow:
		return "serious"
	case score < impactModerateBelow:
		return "moderate"
	default:
		return "minor"
	}
}

func countChecksWithScore(doc *Document, prefix string, want float64) int {
	var n int
	for id, check := range doc.Audits {
		if strings.HasPrefix(id, prefix) && scoreEquals(check.Score, want) {
			n++
		}
	}
	return n
}

func scoreEquals(s *float64, want float64) bool {
	return s != nil && *s == want
}

func secondsMetric(doc *Document, id string) (model.MetricValue, error) {
	c, err := doc.requireCheck(id)
	if err != nil {
		return model.MetricValue{}, err
	}
	return model.MetricValue{
		Value: round2(numeric(c) / 1000),
		Score: roundPct(scoreOrZero(c)),
		Unit:  "s",
	}, nil
}

func millisMetric(doc *Document, id string) (model.MetricValue, error) {
	c, err := doc.requireCheck(id)
	if err != nil {
		return model.MetricValue{}, err
	}
	return model.MetricValue{
		Value: round2(numeric(c)),
		Score: roundPct(scoreOrZero(c)),
		Unit:  "ms",
	}, nil
}

func unitlessMetric(doc *Document, id string) (model.MetricValue, error) {
	c, err := doc.requireCheck(id)
	if err != nil {
		return model.MetricValue{}, err
	}
	return model.MetricValue{
		Value: round2(numeric(c)),
		Score: roundPct(scoreOrZero(c)),
		Unit:  "",
	}, nil
}

func numeric(c Check) float64 {
	if c.NumericValue == nil {
		return 0
	}
	return *c.NumericValue
}

func scoreOrZero(c Check) float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}

// roundPct converts a [0,1] score to an integer percentage.
func roundPct(score float64) int {
	return int(math.Round(score * 100))
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package audit

import (
	"encoding/json"
	"fmt"

	"github.com/sitehealth/audit-service/internal/platform/errs"
)

// Categories every engine run is asked to score.
var Categories = []string{"performance", "accessibility", "best-practices", "seo"}

// Document is the parsed form of a raw audit document: the category
// rollup scores plus every individual check, keyed by check id. It is
// built once per engine run and read by the extractor.
type Document struct {
	Categories map[string]*float64
	Audits     map[string]Check
}

// Check is a single named audit test. Score is nil when the check was
// not applicable to the page.
type Check struct {
	Score        *float64
	Title        string
	NumericValue *float64
	Details      Details
}

// Details holds the optional structured detail items of a check.
type Details struct {
	Items []DetailItem
}

// DetailItem carries the two detail fields the extractor reads. All
// other per-item fields are ignored.
type DetailItem struct {
	ResourceType string `json:"resourceType"`
	Type         string `json:"type"`
}

type rawCategory struct {
	Score *float64 `json:"score"`
}

type rawCheck struct {
	Score        *float64 `json:"score"`
	Title        string   `json:"title"`
	NumericValue *float64 `json:"numericValue"`
	Details      *struct {
		Items []DetailItem `json:"items"`
	} `json:"details"`
}

type rawDocument struct {
	Categories map[string]rawCategory `json:"categories"`
	Audits     map[string]rawCheck    `json:"audits"`
}

// ParseDocument decodes a raw audit document into its typed form. A
// document without categories or audits maps is malformed.
func ParseDocument(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode audit document: %w", err)
	}
	if len(raw.Categories) == 0 || len(raw.Audits) == 0 {
		return nil, fmt.Errorf("audit document has no categories or audits")
	}

	doc := &Document{
		Categories: make(map[string]*float64, len(raw.Categories)),
		Audits:     make(map[string]Check, len(raw.Audits)),
	}
	for name, cat := range raw.Categories {
		doc.Categories[name] = cat.Score
	}
	for id, c := range raw.Audits {
		check := Check{
			Score:        c.Score,
			Title:        c.Title,
			NumericValue: c.NumericValue,
		}
		if c.Details != nil {
			check.Details.Items = c.Details.Items
		}
		doc.Audits[id] = check
	}
	return doc, nil
}

// requireCheck returns the named check or a MalformedAudit error when it
// is absent. The extractor never substitutes defaults for checks it
// depends on structurally.
func (d *Document) requireCheck(id string) (Check, error) {
	c, ok := d.Audits[id]
	if !ok {
		return Check{}, &errs.AppError{
			Kind:    errs.MalformedAudit,
			Message: fmt.Sprintf("audit document is missing the %q check", id),
		}
	}
	return c, nil
}

// requireCategoryScore returns the rollup score for a category, or a
// MalformedAudit error when the category is absent. A present but null
// score reads as zero.
func (d *Document) requireCategoryScore(name string) (float64, error) {
	s, ok := d.Categories[name]
	if !ok {
		return 0, &errs.AppError{
			Kind:    errs.MalformedAudit,
			Message: fmt.Sprintf("audit document is missing the %q category score", name),
		}
	}
	if s == nil {
		return 0, nil
	}
	return *s, nil
}

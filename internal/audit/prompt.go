package audit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sitehealth/audit-service/internal/model"
)

// promptTemplate is a versioned asset: any change alters every future
// recommendation, so edits are compatibility-sensitive.
const promptTemplate = `You are a web performance and accessibility expert.

Given the following Lighthouse audit summary and issues, generate:

1. A concise, high-level summary of the website's overall health (2-3 sentences).
2. For each category (Performance, Accessibility, Best Practices, SEO):
   - List the top 2-3 most critical issues (if any), each with a one-sentence, actionable fix.
   - If there are no major issues, state that clearly.

Lighthouse Summary:
Performance: {performance}/100
Accessibility: {accessibility}/100
Best Practices: {bestPractices}/100
SEO: {seo}/100

Issues:
{issues}

Respond in plain text, no Markdown or bullet points. Separate sections with blank lines.`

// IssueDigest groups the per-category issue lists embedded in the prompt.
type IssueDigest struct {
	Accessibility []model.Issue `json:"accessibility"`
	SEO           []model.Issue `json:"seo"`
	BestPractices []model.Issue `json:"bestPractices"`
}

// BuildPrompt renders the recommendation prompt from the summary scores
// and issue digest. Deterministic: equal input yields byte-identical
// output.
func BuildPrompt(summary model.Summary, issues IssueDigest) (string, error) {
	data, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal issue digest: %w", err)
	}

	r := strings.NewReplacer(
		"{performance}", strconv.Itoa(summary.Performance),
		"{accessibility}", strconv.Itoa(summary.Accessibility),
		"{bestPractices}", strconv.Itoa(summary.BestPractices),
		"{seo}", strconv.Itoa(summary.SEO),
		"{issues}", string(data),
	)
	return r.Replace(promptTemplate), nil
}

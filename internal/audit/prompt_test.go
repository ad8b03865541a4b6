package audit

import (
	"strings"
	"testing"

	"github.com/sitehealth/audit-service/internal/model"
)

func testDigest() IssueDigest {
	return IssueDigest{
		Accessibility: []model.Issue{
			{ID: "accessibility-contrast", Title: "Low contrast", Impact: "serious", ElementsAffected: 4},
		},
		SEO: []model.Issue{
			{ID: "seo-crawlable", Title: "Page is blocked from indexing", Impact: "moderate"},
		},
		BestPractices: []model.Issue{},
	}
}

func TestBuildPrompt_SubstitutesAllPlaceholders(t *testing.T) {
	summary := model.Summary{Performance: 93, Accessibility: 81, BestPractices: 100, SEO: 76}

	prompt, err := BuildPrompt(summary, testDigest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Performance: 93/100",
		"Accessibility: 81/100",
		"Best Practices: 100/100",
		"SEO: 76/100",
		`"accessibility-contrast"`,
		`"seo-crawlable"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	for _, leftover := range []string{"{performance}", "{accessibility}", "{bestPractices}", "{seo}", "{issues}"} {
		if strings.Contains(prompt, leftover) {
			t.Errorf("prompt still contains placeholder %q", leftover)
		}
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	summary := model.Summary{Performance: 50, Accessibility: 60, BestPractices: 70, SEO: 80}

	first, err := BuildPrompt(summary, testDigest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildPrompt(summary, testDigest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Error("same input produced different prompts")
	}
}

func TestBuildPrompt_EmptyDigest(t *testing.T) {
	prompt, err := BuildPrompt(model.Summary{}, IssueDigest{
		Accessibility: []model.Issue{},
		SEO:           []model.Issue{},
		BestPractices: []model.Issue{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(prompt, `"accessibility": []`) {
		t.Error("empty issue lists should serialize as empty arrays")
	}
}

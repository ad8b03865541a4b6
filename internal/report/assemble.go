package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sitehealth/audit-service/internal/model"
	"github.com/sitehealth/audit-service/internal/platform/errs"
)

// Assembler composes the immutable report entity from the pipeline
// outputs, stamping the id and creation timestamp at assembly time.
type Assembler struct {
	now   func() time.Time
	newID func() string
}

// NewAssembler returns an Assembler using wall-clock time and UUIDv4 ids.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now, newID: uuid.NewString}
}

// Assemble combines the extractor output, recommendation text and audit
// artifacts into a Report. Pure composition: the only failure mode is a
// missing required input, which is a caller bug, surfaced as
// IncompleteReport. The HTML artifact and page title are optional.
func (a *Assembler) Assemble(targetURL, pageTitle string, summary model.Summary, metrics model.Metrics, rawJSON json.RawMessage, htmlArtifact, recommendations string) (*model.Report, error) {
	switch {
	case targetURL == "":
		return nil, incomplete("url")
	case len(rawJSON) == 0:
		return nil, incomplete("raw audit document")
	case recommendations == "":
		return nil, incomplete("recommendation text")
	}

	return &model.Report{
		ID:              a.newID(),
		URL:             targetURL,
		PageTitle:       pageTitle,
		Timestamp:       a.now().UTC(),
		Summary:         summary,
		Metrics:         metrics,
		Recommendations: recommendations,
		FullReport: model.FullReport{
			JSON: rawJSON,
			HTML: htmlArtifact,
		},
	}, nil
}

func incomplete(field string) error {
	return &errs.AppError{
		Kind:    errs.IncompleteReport,
		Message: fmt.Sprintf("report assembly invoked without required %s", field),
	}
}

package report

import (
	"context"

	"github.com/sitehealth/audit-service/internal/model"
)

// Store is the document store reports are persisted in. Reports are
// written once and never updated.
type Store interface {
	Save(ctx context.Context, r *model.Report) error
	FindByID(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context) ([]model.ReportListItem, error)
}

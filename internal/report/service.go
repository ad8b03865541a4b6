package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sitehealth/audit-service/internal/audit"
	"github.com/sitehealth/audit-service/internal/model"
	"github.com/sitehealth/audit-service/internal/platform/errs"
	"github.com/sitehealth/audit-service/internal/platform/requestid"
	"github.com/sitehealth/audit-service/internal/preflight"
)

// stage names the pipeline steps for logging. Each request walks them
// strictly in order; any failure is terminal for that request and
// nothing is persisted.
type stage string

const (
	stageValidating     stage = "validating"
	stageAuditing       stage = "auditing"
	stageExtracting     stage = "extracting"
	stageBuildingPrompt stage = "building_prompt"
	stageRecommending   stage = "recommending"
	stageAssembling     stage = "assembling"
	stageSaving         stage = "saving"
)

// Service orchestrates the audit pipeline and report reads. Concurrent
// requests are independent; the only shared state is read-only
// configuration inside the collaborators.
type Service struct {
	engine      audit.Engine
	recommender audit.Recommender
	assembler   *Assembler
	store       Store
	probe       *preflight.Probe // nil disables the preflight check
	logger      *slog.Logger
}

// NewService wires the pipeline collaborators together.
func NewService(engine audit.Engine, recommender audit.Recommender, store Store, probe *preflight.Probe, logger *slog.Logger) *Service {
	return &Service{
		engine:      engine,
		recommender: recommender,
		assembler:   NewAssembler(),
		store:       store,
		probe:       probe,
		logger:      logger,
	}
}

// Generate runs the full pipeline for one URL: preflight, audit,
// extract, prompt, recommend, assemble, save.
func (s *Service) Generate(ctx context.Context, targetURL string) (*model.Report, error) {
	logger := s.logger.With("url", targetURL, "request_id", requestid.FromContext(ctx))

	var pageTitle string
	if s.probe != nil {
		title, err := s.probe.Check(ctx, targetURL)
		if err != nil {
			return nil, s.fail(ctx, logger, stageValidating, err)
		}
		pageTitle = title
	}

	logger.Info("starting audit", "stage", stageAuditing)
	res, err := s.engine.Run(ctx, targetURL)
	if err != nil {
		return nil, s.fail(ctx, logger, stageAuditing, err)
	}

	summary, metrics, err := audit.Extract(res.Document)
	if err != nil {
		return nil, s.fail(ctx, logger, stageExtracting, err)
	}

	prompt, err := audit.BuildPrompt(summary, audit.IssueDigest{
		Accessibility: metrics.Accessibility.Issues,
		SEO:           metrics.SEO.Issues,
		BestPractices: metrics.BestPractices.Issues,
	})
	if err != nil {
		return nil, s.fail(ctx, logger, stageBuildingPrompt, err)
	}

	recommendations, err := s.recommender.Recommend(ctx, prompt)
	if err != nil {
		return nil, s.fail(ctx, logger, stageRecommending, err)
	}

	rep, err := s.assembler.Assemble(targetURL, pageTitle, summary, metrics, res.RawJSON, res.HTML, recommendations)
	if err != nil {
		return nil, s.fail(ctx, logger, stageAssembling, err)
	}

	if err := s.store.Save(ctx, rep); err != nil {
		return nil, s.fail(ctx, logger, stageSaving, err)
	}

	logger.Info("report generated",
		"report_id", rep.ID,
		"performance", rep.Summary.Performance,
		"accessibility", rep.Summary.Accessibility,
		"best_practices", rep.Summary.BestPractices,
		"seo", rep.Summary.SEO,
	)
	return rep, nil
}

// GetByID loads a full report.
func (s *Service) GetByID(ctx context.Context, id string) (*model.Report, error) {
	return s.store.FindByID(ctx, id)
}

// List returns the report projections for the overview view.
func (s *Service) List(ctx context.Context) ([]model.ReportListItem, error) {
	return s.store.List(ctx)
}

// HTML returns the stored HTML artifact of a report. Reports produced
// by the remote engine have none.
func (s *Service) HTML(ctx context.Context, id string) (string, error) {
	rep, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rep.FullReport.HTML == "" {
		return "", &errs.AppError{Kind: errs.NotFound, Message: "HTML report not found."}
	}
	return rep.FullReport.HTML, nil
}

// RawJSON returns the stored raw audit document of a report.
func (s *Service) RawJSON(ctx context.Context, id string) ([]byte, error) {
	rep, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rep.FullReport.JSON) == 0 {
		return nil, &errs.AppError{Kind: errs.NotFound, Message: "JSON report not found."}
	}
	return rep.FullReport.JSON, nil
}

func (s *Service) fail(ctx context.Context, logger *slog.Logger, st stage, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &errs.AppError{
			Kind:    errs.Timeout,
			Message: "Report generation timed out. The target URL may be slow to respond.",
			Cause:   err,
		}
	}

	attrs := []any{"stage", st, "error", err}
	var appErr *errs.AppError
	if errors.As(err, &appErr) && appErr.UpstreamStatus != 0 {
		attrs = append(attrs, "upstream_status", appErr.UpstreamStatus)
	}
	logger.Error("pipeline failed", attrs...)
	return err
}

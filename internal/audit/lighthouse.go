package audit

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sitehealth/audit-service/internal/platform/errs"
)

// chromeFlags passed to the headless browser the engine drives.
const chromeFlags = "--headless --no-sandbox --disable-gpu"

// LighthouseRunner runs audits through the lighthouse CLI and a local
// headless Chrome. Each run writes its JSON and HTML artifacts to a
// private temp directory that is removed on every exit path; the
// subprocess itself is killed when ctx is cancelled.
type LighthouseRunner struct {
	binPath string
	logger  *slog.Logger
}

// NewLighthouseRunner returns a runner that executes the given
// lighthouse binary.
func NewLighthouseRunner(binPath string, logger *slog.Logger) *LighthouseRunner {
	return &LighthouseRunner{binPath: binPath, logger: logger}
}

// Run audits targetURL and returns the raw audit document plus the HTML
// report artifact.
func (r *LighthouseRunner) Run(ctx context.Context, targetURL string) (*Result, error) {
	dir, err := os.MkdirTemp("", "audit-run-*")
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "Could not prepare a working directory for the audit engine.",
			Cause:   err,
		}
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.logger.Warn("failed to remove audit work dir", "dir", dir, "error", rmErr)
		}
	}()

	outPath := filepath.Join(dir, "report")
	cmd := exec.CommandContext(ctx, r.binPath, targetURL,
		"--output", "json",
		"--output", "html",
		"--output-path", outPath,
		"--only-categories", strings.Join(Categories, ","),
		"--chrome-flags="+chromeFlags,
		"--quiet",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Info("starting lighthouse audit", "url", targetURL)
	if err := cmd.Run(); err != nil {
		r.logger.Error("lighthouse run failed", "url", targetURL, "error", err, "stderr", stderr.String())
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine failed to audit the target URL.",
			Cause:   err,
		}
	}

	return readArtifacts(dir)
}

// readArtifacts loads the report files the CLI writes next to outPath:
// report.report.json (required) and report.report.html (optional).
func readArtifacts(dir string) (*Result, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "report.report.json")) //nolint:gosec // private temp dir
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine did not produce a JSON report.",
			Cause:   err,
		}
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.EngineFailed,
			Message: "The audit engine returned a malformed document.",
			Cause:   err,
		}
	}

	// The HTML artifact is best-effort; reports remain usable without it.
	html, _ := os.ReadFile(filepath.Join(dir, "report.report.html")) //nolint:gosec // private temp dir

	return &Result{Document: doc, RawJSON: raw, HTML: string(html)}, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sitehealth/audit-service/internal/audit"
	"github.com/sitehealth/audit-service/internal/platform/config"
	"github.com/sitehealth/audit-service/internal/platform/logger"
	"github.com/sitehealth/audit-service/internal/platform/middleware"
	"github.com/sitehealth/audit-service/internal/preflight"
	"github.com/sitehealth/audit-service/internal/report"
	"github.com/sitehealth/audit-service/internal/store/sqlite"
)

func main() {
	app := &cli.App{
		Name:  "audit-service",
		Usage: "web-page audit and report service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: runServe,
			},
			{
				Name:      "audit",
				Usage:     "audit a single URL, persist the report, and print it as JSON",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip-recommendations",
						Usage: "do not call the recommendation service",
					},
				},
				Action: runAudit,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runServe(_ *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := newService(cfg, store, nil, log)
	transport := report.NewTransport(svc, cfg.AuditTimeout(), log)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.Origins())(handler)
	handler = middleware.Logging(log)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", server.Addr, "engine", cfg.Engine)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func runAudit(c *cli.Context) error {
	targetURL := c.Args().First()
	if targetURL == "" {
		return errors.New("usage: audit-service audit <url>")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var recommender audit.Recommender
	if c.Bool("skip-recommendations") {
		recommender = skippedRecommender{}
	}
	svc := newService(cfg, store, recommender, log)

	ctx, cancel := context.WithTimeout(c.Context, cfg.AuditTimeout())
	defer cancel()

	rep, err := svc.Generate(ctx, targetURL)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// newService builds the pipeline from config. A non-nil recommender
// overrides the configured one.
func newService(cfg config.Config, store report.Store, recommender audit.Recommender, log *slog.Logger) *report.Service {
	var engine audit.Engine
	switch cfg.Engine {
	case config.EnginePageSpeed:
		engine = audit.NewPageSpeedRunner(cfg.PageSpeedEndpoint, cfg.PageSpeedAPIKey)
	default:
		engine = audit.NewLighthouseRunner(cfg.LighthousePath, log)
	}

	if recommender == nil {
		recommender = audit.NewOpenAIClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	var probe *preflight.Probe
	if cfg.PreflightEnabled {
		probe = preflight.New()
	}

	return report.NewService(engine, recommender, store, probe, log)
}

// skippedRecommender stands in for the recommendation service when the
// operator explicitly opts out on the command line.
type skippedRecommender struct{}

func (skippedRecommender) Recommend(context.Context, string) (string, error) {
	return "(recommendations skipped)", nil
}

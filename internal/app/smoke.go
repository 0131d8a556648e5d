package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/bookcart-smoke/internal/config"
	"github.com/samvad-hq/bookcart-smoke/internal/domain"
	"github.com/samvad-hq/bookcart-smoke/internal/logger"
	"github.com/samvad-hq/bookcart-smoke/internal/smoke"
	"github.com/samvad-hq/bookcart-smoke/internal/storage"
	"github.com/samvad-hq/bookcart-smoke/pkg/bookcart"
	"github.com/samvad-hq/bookcart-smoke/pkg/endpoints"
	"github.com/samvad-hq/bookcart-smoke/pkg/httpclient"
	"github.com/samvad-hq/bookcart-smoke/pkg/publishers"
)

// Smoke is the smoke-test runtime. It owns the runner, the run history store
// and the report publishers.
type Smoke struct {
	cfg    *config.Config
	runner *smoke.Runner
	fanout *publishers.Fanout
	store  storage.Store
	log    logger.Logger
}

// NewSmoke builds the runtime from config files.
func NewSmoke(ctx context.Context, cfg *config.Config, log logger.Logger) (*Smoke, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	apiCfg, err := endpoints.Load(cfg.APIConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}
	if err := apiCfg.Require(bookcart.Operations...); err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}
	templates := make(map[string]string, len(bookcart.Operations))
	for _, name := range apiCfg.Names() {
		templates[name], _ = apiCfg.Template(name)
	}
	log.InfoObj("api config loaded", "api_config", map[string]any{
		"file":      apiCfg.Source(),
		"base_url":  apiCfg.BaseURL(),
		"endpoints": templates,
	})

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	client := bookcart.New(apiCfg,
		bookcart.WithHTTPClient(httpClient),
		bookcart.WithLogger(log),
	)

	opts := smoke.DefaultOptions()
	opts.Password = cfg.TestPassword
	opts.CheckDuplicateRegister = cfg.CheckDuplicateRegister
	opts.StorefrontURL = cfg.StorefrontURL
	runner := smoke.NewRunner(client, httpClient, opts, log)

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		RunTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"run_ttl_seconds":          int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Smoke{
		cfg:    cfg,
		runner: runner,
		fanout: fanout,
		store:  store,
		log:    log,
	}, nil
}

// buildFanout loads the optional publishers file. An empty path disables
// publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.InfoObj("no publishers file configured; reports stay local", "publishers_meta", map[string]any{"count": 0})
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes one smoke run, then records and publishes its report. The
// returned error is the run's own failure; recording problems are only
// logged.
func (s *Smoke) Run(ctx context.Context) (domain.RunReport, error) {
	if s == nil || s.runner == nil {
		return domain.RunReport{}, fmt.Errorf("smoke runtime is not initialized")
	}

	s.log.InfoObj("smoke run starting", "smoke_meta", map[string]any{
		"api_config":       s.cfg.APIConfigFile,
		"publishers_count": s.fanout.Size(),
	})

	report, runErr := s.runner.Run(ctx)

	meta := map[string]any{
		"run_id":      report.RunID,
		"username":    report.Username,
		"steps":       len(report.Steps),
		"elapsed_ms":  report.Duration().Milliseconds(),
		"passed":      report.Passed,
		"failed_step": "",
	}
	if step, failed := report.FailedStep(); failed {
		meta["failed_step"] = step.Name
	}
	if runErr != nil {
		meta["error"] = runErr.Error()
		s.log.ErrorObj("smoke run failed", "smoke_result", meta)
	} else {
		s.log.InfoObj("smoke run passed", "smoke_result", meta)
	}

	s.record(ctx, report)
	return report, runErr
}

// Watch runs the smoke suite every interval until ctx is cancelled. Failed
// runs are logged and recorded; the loop keeps going.
func (s *Smoke) Watch(ctx context.Context, interval time.Duration) error {
	if s == nil || s.runner == nil {
		return fmt.Errorf("smoke runtime is not initialized")
	}
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}

	s.log.InfoObj("smoke loop starting", "smoke_state", map[string]any{
		"interval":         interval.String(),
		"publishers_count": s.fanout.Size(),
	})

	_, _ = s.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoObj("smoke loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			_, _ = s.Run(ctx)
		}
	}
}

// History returns up to limit stored reports, newest first.
func (s *Smoke) History(limit int) ([]domain.RunReport, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("smoke runtime is not initialized")
	}
	return s.store.RecentRuns(limit)
}

// Report returns the stored report for runID. ok is false when the run is
// unknown, expired or the store is disabled.
func (s *Smoke) Report(runID string) (domain.RunReport, bool, error) {
	if s == nil || s.store == nil {
		return domain.RunReport{}, false, fmt.Errorf("smoke runtime is not initialized")
	}
	return s.store.Run(runID)
}

func (s *Smoke) record(ctx context.Context, report domain.RunReport) {
	if report.RunID == "" {
		return
	}
	if err := s.store.SaveRun(report); err != nil {
		s.log.ErrorObj("run report save failed", "error", map[string]any{
			"run_id": report.RunID,
			"error":  err.Error(),
		})
	}

	n, err := s.fanout.Publish(ctx, publishers.NewEvent(report))
	if err != nil {
		s.log.ErrorObj("run report publish failed", "error", map[string]any{
			"run_id":    report.RunID,
			"delivered": n,
			"error":     err.Error(),
		})
		return
	}
	if n > 0 {
		s.log.InfoObj("run report published", "publish_meta", map[string]any{
			"run_id":    report.RunID,
			"delivered": n,
		})
	}
}

// Close releases the store and publisher clients.
func (s *Smoke) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err)
	}
}

// Package app provides application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jobrunner/csiaudit/internal/adapters/metrics"
	"github.com/jobrunner/csiaudit/internal/adapters/report"
	"github.com/jobrunner/csiaudit/internal/adapters/spatialite"
	"github.com/jobrunner/csiaudit/internal/adapters/storage"
	"github.com/jobrunner/csiaudit/internal/adapters/watcher"
	"github.com/jobrunner/csiaudit/internal/application"
	"github.com/jobrunner/csiaudit/internal/config"
	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/input"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Storage      output.ObjectStorage // nil when the input is audited in place
	Fetcher      *application.DatasetFetcher
	Loader       *spatialite.Loader
	Inspector    *spatialite.Inspector
	AuditService input.AuditService
	Publisher    input.ReportPublisher
	Writer       *report.FileWriter
	Metrics      *metrics.Collector

	metricsCollector output.MetricsCollector
}

// RunResult describes one completed audit run.
type RunResult struct {
	Report *domain.Report
	Files  []string
	Fetch  application.FetchStats
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(metrics.DefaultNamespace)
		app.metricsCollector = app.Metrics
	} else {
		app.metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize storage adapter
	if cfg.Storage.Remote() {
		store, err := initStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		app.Storage = store
		app.Fetcher = application.NewDatasetFetcher(
			store,
			app.metricsCollector,
			logger,
			application.DatasetFetcherConfig{
				CacheDir:    cfg.Storage.CacheDir,
				Concurrency: cfg.Storage.Concurrency,
			},
		)
	}

	// Initialize dataset access
	app.Loader = spatialite.NewLoader(
		spatialite.LoaderConfig{ShapefileCharset: cfg.Dataset.ShapefileCharset},
		logger,
	)
	inspector, err := spatialite.NewInspector(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing geometry inspector: %w", err)
	}
	app.Inspector = inspector

	// Initialize audit service
	app.AuditService = application.NewAuditService(
		app.Loader,
		app.Inspector,
		app.metricsCollector,
		logger,
		application.AuditServiceConfig{
			Readiness:     cfg.Readiness.Domain(),
			ZeroAsMissing: cfg.Audit.ZeroAsMissing,
		},
	)

	// Initialize report output
	app.Writer = report.NewFileWriter(cfg.Output.Dir)
	app.Publisher = application.NewPublisher(
		app.Writer,
		logger,
		application.PublisherConfig{
			Narrative:   cfg.Output.Narrative,
			YAMLSummary: cfg.Output.YAMLSummary,
			TopMissing:  cfg.Audit.TopMissing,
		},
	)

	return app, nil
}

// Analyze runs one audit and writes its report files.
func (a *App) Analyze(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	inputPath := a.Config.Input
	if a.Fetcher != nil {
		dir, stats, err := a.Fetcher.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching datasets: %w", err)
		}
		inputPath = dir
		result.Fetch = stats
	}

	rep, err := a.AuditService.Run(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	result.Report = rep

	files, err := a.Publisher.Publish(ctx, rep)
	result.Files = files
	if err != nil {
		return result, err
	}

	a.flushMetrics(ctx, rep.GeneratedAt)
	return result, nil
}

// Watch runs an audit, then re-runs it whenever dataset files below the
// watched directory settle after a change. It returns when ctx is canceled.
func (a *App) Watch(ctx context.Context) error {
	root, err := a.watchRoot()
	if err != nil {
		return err
	}

	if _, err := a.Analyze(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		a.Logger.Error("initial audit failed", "error", err)
	}

	w, err := watcher.New(
		watcher.Config{
			Root:     root,
			Debounce: a.Config.Watch.Debounce,
		},
		a.handleFileEvents,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("initializing file watcher: %w", err)
	}

	a.Logger.Info("watching for dataset changes", "root", root, "debounce", a.Config.Watch.Debounce)
	return w.Run(ctx)
}

// Close releases the geometry inspector.
func (a *App) Close() error {
	if a.Inspector != nil {
		return a.Inspector.Close()
	}
	return nil
}

// handleFileEvents re-runs the audit after a settled batch of changes.
func (a *App) handleFileEvents(ctx context.Context, events []watcher.Event) error {
	for _, e := range events {
		a.Logger.Debug("file event", "path", e.Path, "operation", e.Operation.String())
	}

	result, err := a.Analyze(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info("audit refreshed",
		"run_id", result.Report.RunID,
		"files", len(result.Files),
	)
	return nil
}

// watchRoot returns the directory whose changes trigger a new run.
func (a *App) watchRoot() (string, error) {
	switch {
	case a.Config.Storage.Type != "local":
		return "", &domain.ConfigError{
			Field:   "storage.type",
			Message: fmt.Sprintf("watch needs a local source, got %s", a.Config.Storage.Type),
		}
	case a.Config.Storage.Local.Path != "":
		return a.Config.Storage.Local.Path, nil
	default:
		return a.Config.Input, nil
	}
}

// flushMetrics exports the run's metrics. Export failures are logged only.
func (a *App) flushMetrics(ctx context.Context, finished time.Time) {
	if a.Metrics == nil {
		return
	}
	a.Metrics.MarkRun(finished)

	if a.Config.Metrics.Textfile != "" {
		path := MetricsTextfilePath(a.Config.Output.Dir, a.Config.Metrics.Textfile)
		if err := a.Metrics.WriteTextfile(path); err != nil {
			a.Logger.Warn("failed to write metrics", "path", path, "error", err)
		}
	}

	if a.Config.Metrics.PushgatewayURL != "" {
		if err := a.Metrics.Push(ctx, a.Config.Metrics.PushgatewayURL, a.Config.Metrics.Job); err != nil {
			a.Logger.Warn("failed to push metrics", "url", a.Config.Metrics.PushgatewayURL, "error", err)
		}
	}
}

// MetricsTextfilePath resolves a relative textfile path against the output directory.
func MetricsTextfilePath(outputDir, textfile string) string {
	if filepath.IsAbs(textfile) {
		return textfile
	}
	return filepath.Join(outputDir, textfile)
}

// IsInputError returns true if err means the input could not be audited at all.
func IsInputError(err error) bool {
	var inputErr *domain.InputError
	return errors.As(err, &inputErr)
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch output.StorageType(cfg.Type) {
	case output.StorageTypeLocal:
		return storage.NewLocalStorage(cfg.Local.Path), nil

	case output.StorageTypeS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case output.StorageTypeAzure:
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case output.StorageTypeHTTP:
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Package main provides the entry point for the csiaudit command.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/csiaudit/internal/adapters/report"
	"github.com/jobrunner/csiaudit/internal/app"
	"github.com/jobrunner/csiaudit/internal/application"
	"github.com/jobrunner/csiaudit/internal/config"
	"github.com/jobrunner/csiaudit/internal/domain"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "csiaudit",
	Short: "csiaudit - CSI vector dataset completeness and 3D-readiness audit",
	Long: `csiaudit audits municipal CSI vector datasets (Shapefiles and GeoPackages).

For every layer it reports geometry validity and per-field missing values,
and it evaluates whether the volumetric-unit layer carries the elevation
attributes needed for 3D extrusion.

Outputs (in --output):
  - summary_layers.csv             one row per discovered layer
  - summary_unita_volumetrica.csv  3D readiness, when the layer is found
  - report.md                      narrative, with --write-report-md
  - summary.yaml                   machine-readable summary, with --write-yaml

Datasets can also be fetched from a network share, AWS S3, Azure Blob
Storage or an HTTP index before the audit.`,
	SilenceUsage: true,
	RunE:         runAnalyze,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the audit whenever dataset files change",
	RunE:  runWatch,
}

var showCmd = &cobra.Command{
	Use:   "show [report.md]",
	Short: "Render a generated report in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var osmCmd = &cobra.Command{
	Use:   "osm-counts",
	Short: "Count OpenStreetMap buildings with height tags in a bounding box",
	RunE:  runOSMCounts,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("csiaudit %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (json, text)")
	flags.String("output", "output", "output directory")

	// Audit flags
	flags.String("input", "", "directory with Shapefiles/GeoPackages, or a single .shp/.gpkg")
	flags.String("uv-layer-name", domain.DefaultReadinessLayer, "volumetric-unit layer evaluated for 3D readiness")
	flags.Bool("write-report-md", false, "also write report.md")
	flags.Bool("write-yaml", false, "also write summary.yaml")
	flags.String("field-eave", domain.DefaultEaveField, "eave elevation field")
	flags.String("field-ground", domain.DefaultGroundField, "ground elevation field")
	flags.String("field-height", domain.DefaultHeightField, "building height field")
	flags.StringSlice("zero-as-missing", nil, "additional fields where 0 counts as missing")
	flags.Int("top-missing", application.DefaultTopMissing, "fields listed per layer in report.md")

	// Storage flags
	flags.String("storage-type", "local", "dataset source (local, s3, azure, http)")
	flags.String("storage-path", "", "directory snapshotted into the cache before the audit")
	flags.String("cache-dir", "./.csiaudit-cache", "download directory for fetched datasets")

	// Metrics flags
	flags.Bool("metrics", false, "write Prometheus metrics after each run")

	// Watch flags
	watchCmd.Flags().Duration("debounce", 2*time.Second, "quiet period before a change triggers a run")

	// Show flags
	showCmd.Flags().Int("width", 100, "word wrap width")
	showCmd.Flags().Bool("plain", false, "print the Markdown source without styling")

	// OSM flags
	osmCmd.Flags().String("bbox", "45.08,7.68,45.10,7.71", "bounding box as south,west,north,east")
	osmCmd.Flags().String("area", "c7_bbox", "area label written to the summary")
	osmCmd.Flags().String("overpass-url", "https://overpass-api.de/api/interpreter", "Overpass interpreter endpoint")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("output.dir", flags.Lookup("output"))
	_ = viper.BindPFlag("input", flags.Lookup("input"))
	_ = viper.BindPFlag("readiness.layer", flags.Lookup("uv-layer-name"))
	_ = viper.BindPFlag("output.narrative", flags.Lookup("write-report-md"))
	_ = viper.BindPFlag("output.yaml_summary", flags.Lookup("write-yaml"))
	_ = viper.BindPFlag("readiness.fields.eave", flags.Lookup("field-eave"))
	_ = viper.BindPFlag("readiness.fields.ground", flags.Lookup("field-ground"))
	_ = viper.BindPFlag("readiness.fields.height", flags.Lookup("field-height"))
	_ = viper.BindPFlag("audit.zero_as_missing", flags.Lookup("zero-as-missing"))
	_ = viper.BindPFlag("audit.top_missing", flags.Lookup("top-missing"))
	_ = viper.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local.path", flags.Lookup("storage-path"))
	_ = viper.BindPFlag("storage.cache_dir", flags.Lookup("cache-dir"))
	_ = viper.BindPFlag("metrics.enabled", flags.Lookup("metrics"))
	_ = viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
	_ = viper.BindPFlag("osm.bbox", osmCmd.Flags().Lookup("bbox"))
	_ = viper.BindPFlag("osm.area", osmCmd.Flags().Lookup("area"))
	_ = viper.BindPFlag("osm.url", osmCmd.Flags().Lookup("overpass-url"))

	rootCmd.AddCommand(watchCmd, showCmd, osmCmd, versionCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditApp, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = auditApp.Close() }()

	result, err := auditApp.Analyze(ctx)
	if result != nil {
		for _, f := range result.Files {
			fmt.Printf("Wrote %s\n", f)
		}
	}
	if err != nil {
		return err
	}

	if result.Report.UnitResult == nil {
		fmt.Printf("Layer %s not found; 3D readiness was not evaluated.\n", cfg.Readiness.Layer)
	}
	return nil
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditApp, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = auditApp.Close() }()

	if err := auditApp.Watch(ctx); err != nil {
		return err
	}
	logger.Info("watch stopped")
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(false)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.Output.Dir, application.NarrativeFile)
	if len(args) == 1 {
		path = args[0]
	}

	doc, err := os.ReadFile(path) //#nosec G304 -- path is chosen by the user
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	width, _ := cmd.Flags().GetInt("width")
	plain, _ := cmd.Flags().GetBool("plain")
	out, err := report.RenderMarkdown(doc, width, plain)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runOSMCounts(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := app.RunSurvey(ctx, cfg, logger)
	if err != nil {
		return err
	}

	c := result.Counts
	fmt.Printf("%s: %d buildings, %d with height, %d with levels\n", c.Area, c.Total, c.WithHeight, c.WithLevels)
	fmt.Printf("Wrote %s\n", result.File)
	return nil
}

// loadConfig loads and validates the configuration and sets up logging.
func loadConfig(needsInput bool) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if needsInput {
		if err := cfg.ValidateInput(); err != nil {
			return nil, nil, err
		}
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"version", version,
		"input", cfg.Input,
		"output", cfg.Output.Dir,
		"storage_type", cfg.Storage.Type,
	)
	return cfg, logger, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// AuditServiceConfig holds audit configuration.
type AuditServiceConfig struct {
	Readiness     domain.ReadinessConfig
	ZeroAsMissing []string // Generic fields where 0 counts as missing
}

// AuditService runs the completeness and 3D-readiness audit over a dataset input.
type AuditService struct {
	loader    output.DatasetLoader
	inspector output.GeometryInspector
	metrics   output.MetricsCollector
	logger    *slog.Logger
	config    AuditServiceConfig

	now   func() time.Time
	newID func() string
}

// NewAuditService creates a new audit service.
func NewAuditService(
	loader output.DatasetLoader,
	inspector output.GeometryInspector,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	config AuditServiceConfig,
) *AuditService {
	return &AuditService{
		loader:    loader,
		inspector: inspector,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run audits every layer under inputPath. Layers that cannot be opened or
// read are recorded as skipped; Run fails only when the input cannot be
// resolved, no layer could be opened, or ctx is canceled.
func (s *AuditService) Run(ctx context.Context, inputPath string) (*domain.Report, error) {
	runID := s.newID()
	logger := s.logger.With("run_id", runID)
	logger.Info("starting audit", "input", inputPath, "readiness_layer", s.config.Readiness.LayerName)

	sources, err := s.loader.Discover(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	builder := NewReportBuilder(runID, inputPath, s.config.Readiness, s.now())
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.auditSource(ctx, logger, src, builder); err != nil {
			return nil, err
		}
	}

	report := builder.Build()
	if report.AuditedCount() == 0 {
		return nil, &domain.InputError{Path: inputPath, Err: domain.ErrNoLayers}
	}

	if r := report.UnitResult; r != nil {
		if pct, ok := r.ReadyPercent(); ok {
			s.metrics.SetReadyRatio(pct / 100)
		}
	} else {
		logger.Warn("readiness layer not found, skipping 3D readiness",
			"layer", s.config.Readiness.LayerName)
	}

	logger.Info("audit completed",
		"layers", len(report.Layers),
		"audited", report.AuditedCount(),
		"skipped", report.SkippedCount(),
		"features", report.TotalFeatures(),
	)

	return report, nil
}

// auditSource opens one dataset file and audits each of its layers.
// Only context cancellation is returned; everything else is a skipped outcome.
func (s *AuditService) auditSource(ctx context.Context, logger *slog.Logger, src domain.Source, builder *ReportBuilder) error {
	logger.Debug("opening dataset", "path", src.Path, "driver", src.Driver)

	ds, err := s.loader.Open(ctx, src)
	if err != nil {
		s.skip(logger, builder, sourceLayer(src), &domain.LayerError{Source: src.Name, Err: err})
		return ctx.Err()
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Warn("failed to close dataset", "path", src.Path, "error", err)
		}
	}()

	names, err := ds.LayerNames(ctx)
	if err != nil {
		s.skip(logger, builder, sourceLayer(src), &domain.LayerError{Source: src.Name, Err: err})
		return ctx.Err()
	}

	for _, name := range names {
		if err := s.auditLayer(ctx, logger, ds, src, name, builder); err != nil {
			return err
		}
	}
	return nil
}

// auditLayer streams one layer through the auditors in a single pass.
func (s *AuditService) auditLayer(
	ctx context.Context,
	logger *slog.Logger,
	ds output.Dataset,
	src domain.Source,
	name string,
	builder *ReportBuilder,
) error {
	start := time.Now()
	placeholder := domain.Layer{Name: name, Source: src.Name, Driver: src.Driver}

	reader, err := ds.OpenLayer(ctx, name)
	if err != nil {
		s.skip(logger, builder, placeholder, &domain.LayerError{Source: src.Name, Layer: name, Err: err})
		return ctx.Err()
	}
	defer func() { _ = reader.Close() }()

	layer := reader.Layer()
	readiness := s.config.Readiness

	var evaluator *ReadinessEvaluator
	zeroAsMissing := append([]string(nil), s.config.ZeroAsMissing...)
	if name == readiness.LayerName {
		if builder.HasReadiness() {
			logger.Warn("readiness layer found again, keeping the first one",
				"layer", name, "source", src.Name)
		} else {
			evaluator = NewReadinessEvaluator(layer, readiness.Fields)
			for _, rf := range readiness.Fields.Roles() {
				zeroAsMissing = append(zeroAsMissing, rf.Field)
			}
		}
	}

	geomAuditor := NewGeometryAuditor(name, s.inspector, logger)
	attrAuditor := NewAttributeAuditor(layer, zeroAsMissing...)

	var scanned int64
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := reader.Record()
		geomAuditor.Observe(ctx, rec.Geometry)
		attrAuditor.Observe(rec)
		if evaluator != nil {
			evaluator.Observe(rec)
		}
		scanned++
	}
	if err := reader.Err(); err != nil {
		s.skip(logger, builder, layer, &domain.LayerError{Source: src.Name, Layer: name, Err: err})
		return ctx.Err()
	}

	if scanned != layer.FeatureCount {
		logger.Warn("feature count differs from records read",
			"layer", name, "declared", layer.FeatureCount, "read", scanned)
		layer.FeatureCount = scanned
	}

	geom := geomAuditor.Result()
	builder.AddOutcome(domain.Audited(layer, geom, attrAuditor.Result()))
	if evaluator != nil {
		builder.SetReadiness(evaluator.Result())
	}

	s.metrics.IncLayers(string(domain.OutcomeAudited))
	s.metrics.AddFeatures(scanned)
	s.metrics.AddGeometries("valid", geom.ValidCount)
	s.metrics.AddGeometries("invalid", geom.InvalidCount)
	s.metrics.AddGeometries("empty", geom.EmptyCount)
	s.metrics.ObserveLayerDuration(string(layer.Driver), time.Since(start))

	logger.Info("layer audited",
		"layer", name,
		"source", src.Name,
		"features", scanned,
		"invalid", geom.InvalidCount,
		"empty", geom.EmptyCount,
		"readiness", evaluator != nil,
	)
	return nil
}

func (s *AuditService) skip(logger *slog.Logger, builder *ReportBuilder, layer domain.Layer, err error) {
	logger.Warn("skipping layer", "layer", layer.Name, "source", layer.Source, "reason", err)
	builder.AddOutcome(domain.Skipped(layer, err))
	s.metrics.IncLayers(string(domain.OutcomeSkipped))
}

// sourceLayer names the layer row for a dataset that could not be opened.
func sourceLayer(src domain.Source) domain.Layer {
	name := src.Name
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	return domain.Layer{Name: name, Source: src.Name, Driver: src.Driver}
}

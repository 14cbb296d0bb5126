// Package application contains the application services.
package application

import (
	"context"
	"log/slog"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// unknownGeometryType labels valid geometries the inspector could not name.
const unknownGeometryType domain.GeometryType = "UNKNOWN"

// GeometryAuditor classifies the geometries of one layer as valid, invalid or empty.
type GeometryAuditor struct {
	inspector output.GeometryInspector
	logger    *slog.Logger
	audit     domain.GeometryAudit
}

// NewGeometryAuditor creates an auditor for the named layer.
func NewGeometryAuditor(layerName string, inspector output.GeometryInspector, logger *slog.Logger) *GeometryAuditor {
	return &GeometryAuditor{
		inspector: inspector,
		logger:    logger,
		audit: domain.GeometryAudit{
			LayerName:  layerName,
			TypeCounts: make(map[domain.GeometryType]int64),
		},
	}
}

// Observe classifies one geometry. A failing inspection counts the
// geometry as invalid; Observe itself never fails.
func (a *GeometryAuditor) Observe(ctx context.Context, geom *domain.Geometry) {
	if geom.IsNull() {
		a.audit.EmptyCount++
		return
	}

	check, err := a.inspector.Inspect(ctx, geom)
	switch {
	case err != nil:
		a.audit.InvalidCount++
		a.logger.Debug("geometry check failed, counting as invalid",
			"layer", a.audit.LayerName,
			"error", err,
		)
	case check.Empty:
		a.audit.EmptyCount++
	case !check.Valid:
		a.audit.InvalidCount++
	default:
		label := check.Type
		if label == "" {
			label = unknownGeometryType
		}
		a.audit.ValidCount++
		a.audit.TypeCounts[label]++
	}
}

// Result returns the classification so far.
func (a *GeometryAuditor) Result() domain.GeometryAudit {
	out := a.audit
	out.TypeCounts = make(map[domain.GeometryType]int64, len(a.audit.TypeCounts))
	for k, v := range a.audit.TypeCounts {
		out.TypeCounts[k] = v
	}
	return out
}

// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// AuditService defines the primary port for dataset completeness audits.
type AuditService interface {
	// Run audits every layer found under the input path.
	Run(ctx context.Context, inputPath string) (*domain.Report, error)
}

// ReportPublisher defines the primary port for persisting an audit report.
type ReportPublisher interface {
	// Publish writes the report artifacts and returns the written paths.
	Publish(ctx context.Context, report *domain.Report) ([]string, error)
}

// BuildingSurvey defines the primary port for OpenStreetMap building coverage counts.
type BuildingSurvey interface {
	// Survey counts buildings, buildings with height and buildings with levels.
	Survey(ctx context.Context, area string, bbox domain.BoundingBox) (domain.BuildingCounts, error)
}

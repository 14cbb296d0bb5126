package application

import (
	"time"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// ReportBuilder collects layer outcomes in discovery order and at most one
// readiness result. Nothing is emitted before Build.
type ReportBuilder struct {
	report domain.Report
}

// NewReportBuilder starts a report for one run.
func NewReportBuilder(runID, inputPath string, readiness domain.ReadinessConfig, generatedAt time.Time) *ReportBuilder {
	return &ReportBuilder{
		report: domain.Report{
			RunID:       runID,
			InputPath:   inputPath,
			GeneratedAt: generatedAt,
			Readiness:   readiness,
		},
	}
}

// AddOutcome records a layer outcome.
func (b *ReportBuilder) AddOutcome(o domain.LayerOutcome) {
	b.report.AddLayer(o)
}

// SetReadiness records the volumetric-unit evaluation. It returns false and
// keeps the first result if one was already recorded.
func (b *ReportBuilder) SetReadiness(r domain.ReadinessResult) bool {
	if b.report.UnitResult != nil {
		return false
	}
	b.report.UnitResult = &r
	return true
}

// HasReadiness returns true once a readiness result was recorded.
func (b *ReportBuilder) HasReadiness() bool {
	return b.report.UnitResult != nil
}

// Build returns the finished report.
func (b *ReportBuilder) Build() *domain.Report {
	out := b.report
	out.Layers = append([]domain.LayerOutcome(nil), b.report.Layers...)
	return &out
}

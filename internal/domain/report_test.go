package domain

import (
	"errors"
	"testing"
)

func TestReportCounts(t *testing.T) {
	report := &Report{}
	report.AddLayer(Audited(Layer{Name: "a", FeatureCount: 10}, GeometryAudit{}, AttributeAudit{}))
	report.AddLayer(Skipped(Layer{Name: "b", FeatureCount: 99}, errors.New("corrupt")))
	report.AddLayer(Audited(Layer{Name: "c", FeatureCount: 5}, GeometryAudit{}, AttributeAudit{}))

	if got := report.AuditedCount(); got != 2 {
		t.Errorf("AuditedCount() = %d, want 2", got)
	}
	if got := report.SkippedCount(); got != 1 {
		t.Errorf("SkippedCount() = %d, want 1", got)
	}
	if got := report.TotalFeatures(); got != 15 {
		t.Errorf("TotalFeatures() = %d, want 15", got)
	}
	if report.HasUnitResult() {
		t.Error("HasUnitResult() = true without a readiness result")
	}

	skipped := report.Layers[1]
	if !skipped.IsSkipped() || skipped.SkipReason != "corrupt" {
		t.Errorf("skipped outcome = %+v", skipped)
	}
}

package application

import (
	"strings"
	"testing"

	"github.com/jobrunner/csiaudit/internal/domain"
)

func TestRenderNarrative(t *testing.T) {
	doc := string(RenderNarrative(sampleReport(), 5))

	wantContains := []string{
		"# CSI Data Quality Report",
		"- Input path: `/data`",
		"- Generated: 2024-05-17T09:30:00Z",
		"## Overview",
		"| 3 | 2 | 1 | 210 |",
		"## Geometry validity",
		"| roads | 10 | 8 | 1 | 1 | 80.00 | LINESTRING:6; MULTILINESTRING:2 |",
		"## Attribute completeness (top 5 fields by missing values)",
		"| NAME | 3 | 30.00 |",
		"## Skipped layers",
		"- `bad` (bad.shp):",
		"## 3D readiness",
		"**0.00%** of 200 records are 3D-ready",
		"| eave | QT_GRONDA | value missing where null or 0 | 50 | 25.00 |",
		"| height | ALTEZZA_VO | field not present | - | - |",
		"Zero values in `QT_GRONDA`, `QT_SUOLO`, `ALTEZZA_VO` are treated as missing",
		"Field `ALTEZZA_VO` is not present in the layer schema",
	}
	for _, want := range wantContains {
		if !strings.Contains(doc, want) {
			t.Errorf("narrative missing %q\n%s", want, doc)
		}
	}

	if strings.Contains(doc, "Layers without a CRS") {
		t.Error("narrative flags a missing CRS although every audited layer has one")
	}

	// Fields without missing values are not ranked.
	if strings.Contains(doc, "| WIDTH |") {
		t.Error("narrative lists WIDTH although it has no missing values")
	}
}

func TestRenderNarrativeTopN(t *testing.T) {
	report := &domain.Report{InputPath: "/data"}
	report.AddLayer(domain.Audited(
		domain.Layer{Name: "l", FeatureCount: 10},
		domain.GeometryAudit{ValidCount: 10},
		domain.AttributeAudit{Fields: []domain.FieldMissing{
			{Field: "A", Missing: 1},
			{Field: "B", Missing: 5},
			{Field: "C", Missing: 3},
		}},
	))

	doc := string(RenderNarrative(report, 2))
	if !strings.Contains(doc, "| B | 5 |") || !strings.Contains(doc, "| C | 3 |") {
		t.Errorf("narrative missing top fields:\n%s", doc)
	}
	if strings.Contains(doc, "| A | 1 |") {
		t.Errorf("narrative lists more than 2 fields:\n%s", doc)
	}
	if strings.Index(doc, "| B |") > strings.Index(doc, "| C |") {
		t.Error("fields not ordered by missing count")
	}
}

func TestRenderNarrativeWithoutReadinessLayer(t *testing.T) {
	report := &domain.Report{
		InputPath: "/data",
		Readiness: domain.ReadinessConfig{LayerName: domain.DefaultReadinessLayer},
	}
	report.AddLayer(domain.Audited(domain.Layer{Name: "roads"}, domain.GeometryAudit{}, domain.AttributeAudit{}))

	doc := string(RenderNarrative(report, 0))
	if !strings.Contains(doc, "Layer `020101_UNITA_VOLUMETRICA` was not found") {
		t.Errorf("narrative does not explain the missing layer:\n%s", doc)
	}
	if strings.Contains(doc, "## Skipped layers") {
		t.Error("narrative has a skipped section without skipped layers")
	}
	if !strings.Contains(doc, "top 5 fields") {
		t.Error("topN < 1 did not fall back to the default")
	}
}

func TestRenderNarrativeMissingCRS(t *testing.T) {
	report := &domain.Report{InputPath: "/data"}
	report.AddLayer(domain.Audited(domain.Layer{Name: "roads", CRS: "EPSG:32632"}, domain.GeometryAudit{}, domain.AttributeAudit{}))
	report.AddLayer(domain.Audited(domain.Layer{Name: "rivers"}, domain.GeometryAudit{}, domain.AttributeAudit{}))
	report.AddLayer(domain.Skipped(domain.Layer{Name: "bad"}, domain.ErrUnsupportedInput))

	doc := string(RenderNarrative(report, 0))
	if !strings.Contains(doc, "Layers without a CRS: `rivers`.") {
		t.Errorf("narrative does not list the layer without CRS:\n%s", doc)
	}
}

func TestRenderNarrativeCompleteSchema(t *testing.T) {
	report := &domain.Report{InputPath: "/data"}
	report.AddLayer(domain.Audited(unitLayer(), domain.GeometryAudit{}, domain.AttributeAudit{}))
	report.UnitResult = &domain.ReadinessResult{
		LayerName:    domain.DefaultReadinessLayer,
		TotalRecords: 4,
		ReadyCount:   4,
		Fields: []domain.FieldStatus{
			{Role: domain.RoleEave, Field: domain.DefaultEaveField, Present: true},
			{Role: domain.RoleGround, Field: domain.DefaultGroundField, Present: true},
			{Role: domain.RoleHeight, Field: domain.DefaultHeightField, Present: true},
		},
	}

	doc := string(RenderNarrative(report, 0))
	if strings.Contains(doc, "schema gap") {
		t.Errorf("narrative reports a schema gap for a complete schema:\n%s", doc)
	}
	if !strings.Contains(doc, "**100.00%** of 4 records are 3D-ready") {
		t.Errorf("narrative readiness headline wrong:\n%s", doc)
	}
}

func TestMdCell(t *testing.T) {
	if got := mdCell("a|b"); got != `a\|b` {
		t.Errorf("mdCell = %q", got)
	}
}

package application

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jobrunner/csiaudit/internal/domain"
)

func sampleReport() *domain.Report {
	b := NewReportBuilder("run-1", "/data", domain.ReadinessConfig{
		LayerName: domain.DefaultReadinessLayer,
		Fields:    domain.DefaultReadinessFields(),
	}, fixedTime)

	roads := domain.Layer{
		Name:         "roads",
		Source:       "roads.gpkg",
		Driver:       domain.DriverGeoPackage,
		CRS:          "EPSG:32632",
		FeatureCount: 10,
		Fields:       []domain.Field{{Name: "NAME"}, {Name: "WIDTH"}},
	}
	b.AddOutcome(domain.Audited(roads,
		domain.GeometryAudit{
			LayerName:    "roads",
			TypeCounts:   map[domain.GeometryType]int64{domain.GeomMultiLineString: 2, domain.GeomLineString: 6},
			ValidCount:   8,
			InvalidCount: 1,
			EmptyCount:   1,
		},
		domain.AttributeAudit{
			LayerName: "roads",
			Fields:    []domain.FieldMissing{{Field: "NAME", Missing: 3}, {Field: "WIDTH", Missing: 0}},
		},
	))
	b.AddOutcome(domain.Skipped(
		domain.Layer{Name: "bad", Source: "bad.shp", Driver: domain.DriverShapefile},
		&domain.LayerError{Source: "bad.shp", Err: domain.ErrUnsupportedInput},
	))

	unit := unitLayer()
	unit.Fields = unit.Fields[:3]
	unit.FeatureCount = 200
	b.AddOutcome(domain.Audited(unit,
		domain.GeometryAudit{TypeCounts: map[domain.GeometryType]int64{domain.GeomPolygon: 200}, ValidCount: 200},
		domain.AttributeAudit{Fields: []domain.FieldMissing{{Field: "ID"}, {Field: "QT_GRONDA", Missing: 50}, {Field: "QT_SUOLO", Missing: 1}}},
	))
	b.SetReadiness(domain.ReadinessResult{
		LayerName:    unit.Name,
		Source:       unit.Source,
		TotalRecords: 200,
		ReadyCount:   0,
		Fields: []domain.FieldStatus{
			{Role: domain.RoleEave, Field: "QT_GRONDA", Present: true, Missing: 50},
			{Role: domain.RoleGround, Field: "QT_SUOLO", Present: true, Missing: 1},
			{Role: domain.RoleHeight, Field: "ALTEZZA_VO", Present: false},
		},
	})
	return b.Build()
}

func TestLayersTable(t *testing.T) {
	table := LayersTable(sampleReport())

	if len(table.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Header) {
			t.Errorf("row %d has %d columns, header has %d", i, len(row), len(table.Header))
		}
	}

	want := []string{
		"roads", "roads.gpkg", "GPKG", "audited", "",
		"10", "EPSG:32632", "2", "LINESTRING:6; MULTILINESTRING:2",
		"1", "1", "8", "NAME:3; WIDTH:0",
	}
	if diff := cmp.Diff(want, table.Rows[0]); diff != "" {
		t.Errorf("roads row mismatch (-want +got):\n%s", diff)
	}

	skipped := table.Rows[1]
	if skipped[3] != "skipped" || !strings.Contains(skipped[4], "input format") {
		t.Errorf("skipped row = %v", skipped)
	}
	for _, cell := range skipped[5:] {
		if cell != "" {
			t.Errorf("skipped row carries audit value %q", cell)
		}
	}
}

func TestUnitTable(t *testing.T) {
	table, ok := UnitTable(sampleReport())
	if !ok {
		t.Fatal("UnitTable ok = false")
	}

	wantHeader := []string{
		"layer_name", "source", "total_records", "ready_count", "ready_pct",
		"QT_GRONDA_status", "QT_GRONDA_missing", "QT_GRONDA_missing_pct",
		"QT_SUOLO_status", "QT_SUOLO_missing", "QT_SUOLO_missing_pct",
		"ALTEZZA_VO_status", "ALTEZZA_VO_missing", "ALTEZZA_VO_missing_pct",
		"note",
	}
	if diff := cmp.Diff(wantHeader, table.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	wantRow := []string{
		domain.DefaultReadinessLayer, "020101_UNITA_VOLUMETRICA.shp", "200", "0", "0.00",
		"present", "50", "25.00",
		"present", "1", "0.50",
		"not_present", "", "",
		domain.ReadinessNote,
	}
	if len(table.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(table.Rows))
	}
	if diff := cmp.Diff(wantRow, table.Rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitTableEmptyLayer(t *testing.T) {
	report := &domain.Report{UnitResult: &domain.ReadinessResult{
		LayerName: "uv",
		Fields:    []domain.FieldStatus{{Role: domain.RoleEave, Field: "E", Present: true}},
	}}
	table, ok := UnitTable(report)
	if !ok {
		t.Fatal("UnitTable ok = false")
	}
	if got := table.Rows[0][4]; got != "" {
		t.Errorf("ready_pct = %q for zero records, want empty", got)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		part, total int64
		want        string
	}{
		{19, 100, "19.00"},
		{1, 3, "33.33"},
		{2, 3, "66.67"},
		{0, 5, "0.00"},
		{5, 5, "100.00"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.part, tt.total); got != tt.want {
			t.Errorf("FormatPercent(%d, %d) = %q, want %q", tt.part, tt.total, got, tt.want)
		}
	}
}

package spatialite

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jobrunner/csiaudit/internal/domain"
)

func TestQuoting(t *testing.T) {
	if got := quoteIdent(`my "layer"`); got != `"my ""layer"""` {
		t.Errorf("quoteIdent = %s", got)
	}
	if got := quoteLiteral("/data/l'aquila/uv"); got != "'/data/l''aquila/uv'" {
		t.Errorf("quoteLiteral = %s", got)
	}
}

func TestAttributeFields(t *testing.T) {
	columns := []column{
		{Name: "fid", Type: "INTEGER", PrimaryKey: true},
		{Name: "geom", Type: "MULTIPOLYGON"},
		{Name: "NAME", Type: "TEXT"},
		{Name: "QT_GRONDA", Type: "REAL"},
	}
	want := []domain.Field{{Name: "NAME", Type: "TEXT"}, {Name: "QT_GRONDA", Type: "REAL"}}
	if diff := cmp.Diff(want, attributeFields(columns, "geom")); diff != "" {
		t.Errorf("attributeFields mismatch (-want +got):\n%s", diff)
	}
}

func TestShapeFields(t *testing.T) {
	columns := []column{
		{Name: "PKUID", Type: "INTEGER", PrimaryKey: true},
		{Name: "Geometry", Type: "BLOB"},
		{Name: "QT_SUOLO", Type: "DOUBLE"},
		{Name: "ALTEZZA_VO", Type: "DOUBLE"},
	}
	want := []domain.Field{{Name: "QT_SUOLO", Type: "DOUBLE"}, {Name: "ALTEZZA_VO", Type: "DOUBLE"}}
	if diff := cmp.Diff(want, shapeFields(columns)); diff != "" {
		t.Errorf("shapeFields mismatch (-want +got):\n%s", diff)
	}
}

func TestCRSFromOrganization(t *testing.T) {
	tests := []struct {
		org  string
		id   int64
		want string
	}{
		{"EPSG", 32632, "EPSG:32632"},
		{"epsg", 4326, "epsg:4326"},
		{"NONE", -1, ""},
		{"NONE", 0, ""},
		{"", 0, ""},
	}
	for _, tt := range tests {
		if got := CRSFromOrganization(tt.org, tt.id); got != tt.want {
			t.Errorf("CRSFromOrganization(%q, %d) = %q, want %q", tt.org, tt.id, got, tt.want)
		}
	}
}

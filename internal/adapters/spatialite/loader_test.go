package spatialite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jobrunner/csiaudit/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderDiscoverDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b/020101_UNITA_VOLUMETRICA.shp",
		"b/020101_UNITA_VOLUMETRICA.dbf",
		"b/020101_UNITA_VOLUMETRICA.shx",
		"a/roads.gpkg",
		"a/notes.txt",
		"c/EDIFICI.SHP",
		"z.gpkg",
	} {
		touch(t, filepath.Join(dir, name))
	}

	sources, err := NewLoader(LoaderConfig{}, testLogger()).Discover(context.Background(), dir)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []domain.Source{
		{Path: filepath.Join(dir, "a/roads.gpkg"), Name: "roads.gpkg", Driver: domain.DriverGeoPackage},
		{Path: filepath.Join(dir, "b/020101_UNITA_VOLUMETRICA.shp"), Name: "020101_UNITA_VOLUMETRICA.shp", Driver: domain.DriverShapefile},
		{Path: filepath.Join(dir, "c/EDIFICI.SHP"), Name: "EDIFICI.SHP", Driver: domain.DriverShapefile},
		{Path: filepath.Join(dir, "z.gpkg"), Name: "z.gpkg", Driver: domain.DriverGeoPackage},
	}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderDiscoverSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "city.gpkg")
	touch(t, path)

	sources, err := NewLoader(LoaderConfig{}, testLogger()).Discover(context.Background(), path)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(sources) != 1 || sources[0].Driver != domain.DriverGeoPackage {
		t.Errorf("Discover() = %+v", sources)
	}
}

func TestLoaderDiscoverErrors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "readme.txt")
	touch(t, txt)

	loader := NewLoader(LoaderConfig{}, testLogger())

	_, err := loader.Discover(context.Background(), filepath.Join(dir, "missing"))
	if !errors.Is(err, domain.ErrInputNotFound) {
		t.Errorf("missing input: error = %v, want ErrInputNotFound", err)
	}

	_, err = loader.Discover(context.Background(), txt)
	if !errors.Is(err, domain.ErrUnsupportedInput) {
		t.Errorf("text file: error = %v, want ErrUnsupportedInput", err)
	}

	sources, err := loader.Discover(context.Background(), t.TempDir())
	if err != nil || len(sources) != 0 {
		t.Errorf("empty dir: sources = %v, err = %v", sources, err)
	}
}

func TestLoaderOpenShapefileMissingMembers(t *testing.T) {
	dir := t.TempDir()
	shp := filepath.Join(dir, "roads.shp")
	touch(t, shp)
	touch(t, filepath.Join(dir, "roads.shx"))

	_, err := NewLoader(LoaderConfig{}, testLogger()).Open(context.Background(), newSource(shp, domain.DriverShapefile))
	if !errors.Is(err, domain.ErrInputNotFound) {
		t.Errorf("Open error = %v, want ErrInputNotFound for a missing .dbf", err)
	}
}

func TestLoaderOpenUnknownDriver(t *testing.T) {
	_, err := NewLoader(LoaderConfig{}, testLogger()).Open(context.Background(), domain.Source{Path: "x.kml", Driver: "KML"})
	if !errors.Is(err, domain.ErrUnsupportedInput) {
		t.Errorf("Open error = %v, want ErrUnsupportedInput", err)
	}
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		path   string
		want   domain.Driver
		wantOK bool
	}{
		{"/data/a.shp", domain.DriverShapefile, true},
		{"/data/A.SHP", domain.DriverShapefile, true},
		{"/data/a.gpkg", domain.DriverGeoPackage, true},
		{"/data/a.dbf", "", false},
		{"/data/a", "", false},
	}
	for _, tt := range tests {
		got, ok := DriverFor(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DriverFor(%q) = %q, %v, want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLayerNameFor(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"simple filename", "/data/roads.shp", "roads"},
		{"csi layer", "/data/csi/020101_UNITA_VOLUMETRICA.shp", "020101_UNITA_VOLUMETRICA"},
		{"relative path", "data/test.gpkg", "test"},
		{"multiple dots", "/data/test.backup.gpkg", "test.backup"},
		{"with spaces", "/data/my layer.shp", "my layer"},
		{"no extension", "/data/testfile", "testfile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LayerNameFor(tt.path); got != tt.want {
				t.Errorf("LayerNameFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

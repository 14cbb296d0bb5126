package spatialite

import (
	"net/url"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGeoPackageDSN(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("expects POSIX paths")
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain", "/data/roads.gpkg", "file:///data/roads.gpkg?mode=ro"},
		{"query and fragment characters", "/data/a?b#c.gpkg", "file:///data/a%3Fb%23c.gpkg?mode=ro"},
		{"space", "/data/my data.gpkg", "file:///data/my%20data.gpkg?mode=ro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geoPackageDSN(tt.path)
			if err != nil {
				t.Fatalf("geoPackageDSN(%q) error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("geoPackageDSN(%q) = %q, want %q", tt.path, got, tt.want)
			}

			u, err := url.Parse(got)
			if err != nil {
				t.Fatalf("parsing %q: %v", got, err)
			}
			if u.Path != tt.path || u.Query().Get("mode") != "ro" {
				t.Errorf("parsed DSN = path %q mode %q, want %q ro", u.Path, u.Query().Get("mode"), tt.path)
			}
		})
	}
}

func TestGeoPackageDSNRelative(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("expects POSIX paths")
	}

	got, err := geoPackageDSN("roads.gpkg")
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs("roads.gpkg")
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Scheme != "file" || u.Path != abs {
		t.Errorf("geoPackageDSN(roads.gpkg) = %q, want file URI for %s", got, abs)
	}
}

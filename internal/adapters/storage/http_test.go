package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jobrunner/csiaudit/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/index.txt", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "csi" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("# CSI export\n\ncity.gpkg\nuv/UV.shp\nuv/UV.dbf\n/uv/UV.shx\nnotes.pdf\n"))
	})
	mux.HandleFunc("/data/city.gpkg", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("gpkg-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStorageList(t *testing.T) {
	srv := newTestServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL + "/data/", Username: "csi", Password: "secret"})

	objects, err := storage.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var keys []string
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	want := []string{"city.gpkg", "uv/UV.shp", "uv/UV.dbf", "uv/UV.shx"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("List() keys mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPStorageListUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL + "/data"})

	if _, err := storage.List(context.Background()); err == nil {
		t.Error("List() without credentials succeeded")
	}
}

func TestHTTPStorageDownload(t *testing.T) {
	srv := newTestServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL + "/data"})
	dest := filepath.Join(t.TempDir(), "cache", "city.gpkg")

	if err := storage.Download(context.Background(), "city.gpkg", dest); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "gpkg-bytes" {
		t.Errorf("content = %q", data)
	}

	if err := storage.Download(context.Background(), "missing.gpkg", dest+".2"); err == nil {
		t.Error("Download() of a missing file succeeded")
	}
	if _, err := os.Stat(dest + ".2"); !errors.Is(err, os.ErrNotExist) {
		t.Error("failed download left a file behind")
	}
}

func TestHTTPStorageUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPStorage(HTTPConfig{BaseURL: url}).List(context.Background())
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("List() error = %v, want ErrStorageUnavailable", err)
	}
}

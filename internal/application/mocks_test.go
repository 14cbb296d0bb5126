package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// geom builds a geometry whose blob tells mockInspector how to classify it.
func geom(kind string) *domain.Geometry {
	return &domain.Geometry{Blob: []byte(kind)}
}

// mockInspector implements output.GeometryInspector for testing.
// Blobs are read as "valid:<TYPE>", "invalid", "empty" or "error".
type mockInspector struct{}

func (m *mockInspector) Inspect(_ context.Context, g *domain.Geometry) (domain.GeometryCheck, error) {
	s := string(g.Blob)
	switch {
	case s == "empty":
		return domain.GeometryCheck{Empty: true}, nil
	case s == "invalid":
		return domain.GeometryCheck{Valid: false, Type: domain.GeomPolygon}, nil
	case s == "error":
		return domain.GeometryCheck{}, errors.New("malformed blob")
	case strings.HasPrefix(s, "valid:"):
		return domain.GeometryCheck{Valid: true, Type: domain.GeometryType(strings.TrimPrefix(s, "valid:"))}, nil
	}
	return domain.GeometryCheck{Valid: true}, nil
}

// mockLayer is the content of one layer served by mockDataset.
type mockLayer struct {
	layer   domain.Layer
	records []domain.Record
	openErr error
	readErr error // Returned by Err after all records were served
}

// mockDataset implements output.Dataset for testing.
type mockDataset struct {
	layers   []mockLayer
	namesErr error
	closed   bool
}

func (m *mockDataset) LayerNames(_ context.Context) ([]string, error) {
	if m.namesErr != nil {
		return nil, m.namesErr
	}
	names := make([]string, len(m.layers))
	for i, l := range m.layers {
		names[i] = l.layer.Name
	}
	return names, nil
}

func (m *mockDataset) OpenLayer(_ context.Context, name string) (output.LayerReader, error) {
	for _, l := range m.layers {
		if l.layer.Name != name {
			continue
		}
		if l.openErr != nil {
			return nil, l.openErr
		}
		return &mockReader{layer: l.layer, records: l.records, err: l.readErr, pos: -1}, nil
	}
	return nil, domain.ErrLayerNotFound
}

func (m *mockDataset) Close() error {
	m.closed = true
	return nil
}

// mockReader implements output.LayerReader for testing.
type mockReader struct {
	layer   domain.Layer
	records []domain.Record
	err     error
	pos     int
}

func (m *mockReader) Layer() domain.Layer { return m.layer }

func (m *mockReader) Next() bool {
	if m.pos+1 >= len(m.records) {
		return false
	}
	m.pos++
	return true
}

func (m *mockReader) Record() domain.Record { return m.records[m.pos] }

func (m *mockReader) Err() error { return m.err }

func (m *mockReader) Close() error { return nil }

// mockLoader implements output.DatasetLoader for testing.
type mockLoader struct {
	sources     []domain.Source
	datasets    map[string]*mockDataset // keyed by Source.Path
	discoverErr error
	openErr     map[string]error
}

func (m *mockLoader) Discover(_ context.Context, _ string) ([]domain.Source, error) {
	if m.discoverErr != nil {
		return nil, m.discoverErr
	}
	return m.sources, nil
}

func (m *mockLoader) Open(_ context.Context, src domain.Source) (output.Dataset, error) {
	if err := m.openErr[src.Path]; err != nil {
		return nil, err
	}
	ds, ok := m.datasets[src.Path]
	if !ok {
		return nil, domain.ErrInputNotFound
	}
	return ds, nil
}

// mockWriter implements output.ReportWriter in memory.
type mockWriter struct {
	mu      sync.Mutex
	tables  map[string]domain.Table
	docs    map[string][]byte
	yaml    map[string]any
	removed []string
	failOn  string
}

func newMockWriter() *mockWriter {
	return &mockWriter{
		tables: make(map[string]domain.Table),
		docs:   make(map[string][]byte),
		yaml:   make(map[string]any),
	}
}

func (m *mockWriter) WriteTable(_ context.Context, name string, table domain.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == m.failOn {
		return &domain.WriteError{Path: name, Err: errors.New("disk full")}
	}
	m.tables[name] = table
	return nil
}

func (m *mockWriter) WriteDocument(_ context.Context, name string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == m.failOn {
		return &domain.WriteError{Path: name, Err: errors.New("disk full")}
	}
	m.docs[name] = body
	return nil
}

func (m *mockWriter) WriteYAML(_ context.Context, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == m.failOn {
		return &domain.WriteError{Path: name, Err: errors.New("disk full")}
	}
	m.yaml[name] = v
	return nil
}

func (m *mockWriter) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == m.failOn {
		return &domain.WriteError{Path: name, Err: errors.New("permission denied")}
	}
	m.removed = append(m.removed, name)
	return nil
}

func (m *mockWriter) Path(name string) string {
	return "out/" + name
}

// mockCounter implements output.BuildingCounter for testing.
type mockCounter struct {
	counts  map[string]int64 // keyed by a substring of the query
	queries []string
	err     error
}

func (m *mockCounter) Count(_ context.Context, query string) (int64, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return 0, m.err
	}
	// Longest match wins so that a building filter does not shadow height.
	var best string
	for k := range m.counts {
		if strings.Contains(query, k) && len(k) > len(best) {
			best = k
		}
	}
	return m.counts[best], nil
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	mu          sync.Mutex
	objects     []output.StorageObject
	downloadErr map[string]error
	listErr     error
	downloaded  []string
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, key, dest string) error {
	if err := m.downloadErr[key]; err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return err
	}
	if err := os.WriteFile(dest, []byte(key), 0600); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloaded = append(m.downloaded, key)
	return nil
}

func (m *mockStorage) GetReader(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

// recordingMetrics implements output.MetricsCollector and keeps what it saw.
type recordingMetrics struct {
	output.NoOpMetrics
	mu         sync.Mutex
	layers     map[string]int
	features   int64
	readyRatio float64
	storageOps map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		layers:     make(map[string]int),
		storageOps: make(map[string]int),
		readyRatio: -1,
	}
}

func (m *recordingMetrics) IncLayers(status string) { m.layers[status]++ }

func (m *recordingMetrics) AddFeatures(n int64) { m.features += n }

func (m *recordingMetrics) SetReadyRatio(r float64) { m.readyRatio = r }

func (m *recordingMetrics) IncStorageOperations(op string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.storageOps[op+":ok"]++
		return
	}
	m.storageOps[op+":error"]++
}

var fixedTime = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

// unitLayer returns a volumetric-unit layer with the default elevation fields.
func unitLayer(extra ...domain.Field) domain.Layer {
	fields := []domain.Field{
		{Name: "ID", Type: "INTEGER"},
		{Name: domain.DefaultEaveField, Type: "REAL"},
		{Name: domain.DefaultGroundField, Type: "REAL"},
		{Name: domain.DefaultHeightField, Type: "REAL"},
	}
	return domain.Layer{
		Name:           domain.DefaultReadinessLayer,
		Source:         "020101_UNITA_VOLUMETRICA.shp",
		Driver:         domain.DriverShapefile,
		GeometryColumn: "Geometry",
		CRS:            "WGS 84 / UTM zone 32N",
		Fields:         append(fields, extra...),
	}
}

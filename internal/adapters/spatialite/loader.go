package spatialite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// DefaultShapefileCharset is the DBF encoding assumed when none is configured.
const DefaultShapefileCharset = "UTF-8"

// LoaderConfig holds dataset loading options.
type LoaderConfig struct {
	ShapefileCharset string // DBF attribute encoding passed to VirtualShape
}

// Loader implements output.DatasetLoader for GeoPackage and Shapefile inputs.
type Loader struct {
	config LoaderConfig
	logger *slog.Logger
}

// NewLoader creates a new dataset loader.
func NewLoader(config LoaderConfig, logger *slog.Logger) *Loader {
	if config.ShapefileCharset == "" {
		config.ShapefileCharset = DefaultShapefileCharset
	}
	return &Loader{config: config, logger: logger}
}

// Discover resolves the input into dataset files. A directory is walked
// recursively and its .shp and .gpkg files are returned sorted by path.
func (l *Loader) Discover(_ context.Context, input string) ([]domain.Source, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.InputError{Path: input, Err: domain.ErrInputNotFound}
		}
		return nil, &domain.InputError{Path: input, Err: err}
	}

	if !info.IsDir() {
		driver, ok := DriverFor(input)
		if !ok {
			return nil, &domain.InputError{Path: input, Err: domain.ErrUnsupportedInput}
		}
		return []domain.Source{newSource(input, driver)}, nil
	}

	var sources []domain.Source
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if driver, ok := DriverFor(path); ok {
			sources = append(sources, newSource(path, driver))
		}
		return nil
	})
	if err != nil {
		return nil, &domain.InputError{Path: input, Err: err}
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	l.logger.Debug("discovered datasets", "input", input, "count", len(sources))
	return sources, nil
}

// Open opens a dataset file.
func (l *Loader) Open(ctx context.Context, src domain.Source) (output.Dataset, error) {
	switch src.Driver {
	case domain.DriverGeoPackage:
		return openGeoPackage(ctx, src)
	case domain.DriverShapefile:
		return openShapefile(ctx, src, l.config.ShapefileCharset)
	}
	return nil, fmt.Errorf("%w: driver %q", domain.ErrUnsupportedInput, src.Driver)
}

// DriverFor maps a file extension to a dataset driver.
func DriverFor(path string) (domain.Driver, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return domain.DriverShapefile, true
	case ".gpkg":
		return domain.DriverGeoPackage, true
	}
	return "", false
}

// LayerNameFor returns the file name without its extension.
func LayerNameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newSource(path string, driver domain.Driver) domain.Source {
	return domain.Source{
		Path:   path,
		Name:   filepath.Base(path),
		Driver: driver,
	}
}

package spatialite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// shapeGeometryColumn is the geometry column VirtualShape exposes.
const shapeGeometryColumn = "Geometry"

// shapefile is a Shapefile mounted as a VirtualShape table in a private
// in-memory database. It holds exactly one layer named after the file stem.
type shapefile struct {
	db    *sql.DB
	src   domain.Source
	layer string
	crs   string
}

func openShapefile(ctx context.Context, src domain.Source, charset string) (*shapefile, error) {
	base := strings.TrimSuffix(src.Path, filepath.Ext(src.Path))

	// VirtualShape silently mounts an empty table when a member is missing.
	for _, ext := range []string{".shx", ".dbf"} {
		if _, ok := siblingFile(base, ext); !ok {
			return nil, fmt.Errorf("%w: missing %s for %s", domain.ErrInputNotFound, ext, src.Name)
		}
	}

	db, err := openMemoryDB(ctx)
	if err != nil {
		return nil, &domain.InputError{Path: src.Path, Err: err}
	}

	layer := LayerNameFor(src.Path)
	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE %s USING VirtualShape(%s, %s, -1)",
		quoteIdent(layer), quoteLiteral(base), quoteLiteral(charset)) //#nosec G201 -- identifier and literals are quoted
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mounting %s: %w", src.Name, err)
	}

	crs := ""
	if prj, ok := siblingFile(base, ".prj"); ok {
		data, err := os.ReadFile(prj) //#nosec G304 -- sibling of a discovered dataset
		if err == nil {
			crs = CRSFromPRJ(string(data))
		}
	}

	return &shapefile{db: db, src: src, layer: layer, crs: crs}, nil
}

// LayerNames returns the single layer of the Shapefile.
func (s *shapefile) LayerNames(_ context.Context) ([]string, error) {
	return []string{s.layer}, nil
}

// OpenLayer loads the DBF schema and starts a scan over the shapes.
func (s *shapefile) OpenLayer(ctx context.Context, name string) (output.LayerReader, error) {
	if name != s.layer {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrLayerNotFound, name, s.src.Name)
	}

	layer := domain.Layer{
		Name:           s.layer,
		Source:         s.src.Name,
		Driver:         domain.DriverShapefile,
		GeometryColumn: shapeGeometryColumn,
		CRS:            s.crs,
	}

	columns, err := tableColumns(ctx, s.db, s.layer)
	if err != nil {
		return nil, err
	}
	layer.Fields = shapeFields(columns)

	if err := countFeatures(ctx, s.db, &layer); err != nil {
		return nil, err
	}

	return openLayerReader(ctx, s.db, layer)
}

// Close drops the in-memory database.
func (s *shapefile) Close() error {
	return s.db.Close()
}

// shapeFields drops the PKUID and Geometry columns VirtualShape adds.
func shapeFields(columns []column) []domain.Field {
	fields := make([]domain.Field, 0, len(columns))
	for _, c := range columns {
		if c.Name == "PKUID" || c.Name == shapeGeometryColumn {
			continue
		}
		fields = append(fields, domain.Field{Name: c.Name, Type: c.Type})
	}
	return fields
}

// siblingFile finds base+ext with either a lower- or upper-case extension.
func siblingFile(base, ext string) (string, bool) {
	for _, candidate := range []string{base + ext, base + strings.ToUpper(ext)} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

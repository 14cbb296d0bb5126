package spatialite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// geoPackage is an open GeoPackage file.
type geoPackage struct {
	db  *sql.DB
	src domain.Source
}

func openGeoPackage(ctx context.Context, src domain.Source) (*geoPackage, error) {
	dsn, err := geoPackageDSN(src.Path)
	if err != nil {
		return nil, &domain.InputError{Path: src.Path, Err: err}
	}
	db, err := openDB(ctx, dsn)
	if err != nil {
		return nil, &domain.InputError{Path: src.Path, Err: err}
	}
	return &geoPackage{db: db, src: src}, nil
}

// geoPackageDSN builds a read-only SQLite URI for path. The path is
// percent-encoded so that '?' and '#' in file names stay part of the path.
func geoPackageDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/data on Windows
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro"}
	return u.String(), nil
}

// LayerNames returns the feature tables registered in gpkg_contents.
func (g *geoPackage) LayerNames(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT table_name
		FROM gpkg_contents
		WHERE data_type = 'features'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("reading gpkg_contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning layer name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// OpenLayer loads the layer metadata and starts a scan over its rows.
func (g *geoPackage) OpenLayer(ctx context.Context, name string) (output.LayerReader, error) {
	layer := domain.Layer{
		Name:   name,
		Source: g.src.Name,
		Driver: domain.DriverGeoPackage,
	}

	var org sql.NullString
	var orgID sql.NullInt64
	err := g.db.QueryRowContext(ctx, `
		SELECT g.column_name, s.organization, s.organization_coordsys_id
		FROM gpkg_geometry_columns g
		LEFT JOIN gpkg_spatial_ref_sys s ON g.srs_id = s.srs_id
		WHERE g.table_name = ?
	`, name).Scan(&layer.GeometryColumn, &org, &orgID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s has no geometry column", domain.ErrLayerNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading geometry column: %w", err)
	}
	layer.CRS = CRSFromOrganization(org.String, orgID.Int64)

	columns, err := tableColumns(ctx, g.db, name)
	if err != nil {
		return nil, err
	}
	layer.Fields = attributeFields(columns, layer.GeometryColumn)

	if err := countFeatures(ctx, g.db, &layer); err != nil {
		return nil, err
	}

	return openLayerReader(ctx, g.db, layer)
}

// Close closes the database handle.
func (g *geoPackage) Close() error {
	return g.db.Close()
}

// CRSFromOrganization formats a gpkg_spatial_ref_sys entry as "ORG:ID".
// The undefined systems (srs_id 0 and -1) and "NONE" yield an empty string.
func CRSFromOrganization(org string, id int64) string {
	if org == "" || id <= 0 || org == "NONE" || org == "none" {
		return ""
	}
	return fmt.Sprintf("%s:%d", org, id)
}

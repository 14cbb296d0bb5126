package spatialite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// errUndecodable is returned for blobs SpatiaLite cannot decode.
var errUndecodable = errors.New("geometry blob cannot be decoded")

// Inspector implements output.GeometryInspector on a private in-memory
// SpatiaLite database. CastAutomagic accepts both GeoPackage and
// SpatiaLite blobs, so one inspector serves both drivers.
type Inspector struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewInspector opens the in-memory database and prepares the check.
func NewInspector(ctx context.Context) (*Inspector, error) {
	db, err := openMemoryDB(ctx)
	if err != nil {
		return nil, err
	}

	stmt, err := db.PrepareContext(ctx, `
		SELECT ST_IsEmpty(g), ST_IsValid(g), GeometryType(g)
		FROM (SELECT CastAutomagic(?) AS g)
		WHERE g IS NOT NULL
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("preparing geometry check: %w", err)
	}

	return &Inspector{db: db, stmt: stmt}, nil
}

// Inspect classifies a non-null geometry blob.
func (i *Inspector) Inspect(ctx context.Context, geom *domain.Geometry) (domain.GeometryCheck, error) {
	if geom.IsNull() {
		return domain.GeometryCheck{Empty: true}, nil
	}
	if IsEmptyGeoPackageBlob(geom.Blob) {
		return domain.GeometryCheck{Empty: true}, nil
	}

	var (
		empty sql.NullInt64
		valid sql.NullInt64
		gtype sql.NullString
	)
	err := i.stmt.QueryRowContext(ctx, geom.Blob).Scan(&empty, &valid, &gtype)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeometryCheck{}, errUndecodable
	}
	if err != nil {
		return domain.GeometryCheck{}, fmt.Errorf("checking geometry: %w", err)
	}

	return domain.GeometryCheck{
		Empty: empty.Valid && empty.Int64 == 1,
		// ST_IsValid yields -1 when the check itself fails.
		Valid: valid.Valid && valid.Int64 == 1,
		Type:  domain.NormalizeGeometryType(gtype.String),
	}, nil
}

// Close releases the in-memory database.
func (i *Inspector) Close() error {
	_ = i.stmt.Close()
	return i.db.Close()
}

// IsEmptyGeoPackageBlob reports whether b is a GeoPackage geometry whose
// header carries the empty flag (bit 4 of the flags byte).
func IsEmptyGeoPackageBlob(b []byte) bool {
	if len(b) < 4 || b[0] != 'G' || b[1] != 'P' {
		return false
	}
	return b[3]&0x10 != 0
}

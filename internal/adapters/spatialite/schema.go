package spatialite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// column is one row of PRAGMA table_info.
type column struct {
	Name       string
	Type       string
	PrimaryKey bool
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]column, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("reading schema of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []column
	for rows.Next() {
		var (
			cid     int
			c       column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning schema of %s: %w", table, err)
		}
		c.PrimaryKey = pk > 0
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, table)
	}
	return columns, nil
}

// attributeFields drops the geometry column and the integer feature id,
// leaving the attribute schema.
func attributeFields(columns []column, geometryColumn string) []domain.Field {
	fields := make([]domain.Field, 0, len(columns))
	for _, c := range columns {
		if strings.EqualFold(c.Name, geometryColumn) {
			continue
		}
		if c.PrimaryKey && strings.EqualFold(c.Type, "INTEGER") {
			continue
		}
		fields = append(fields, domain.Field{Name: c.Name, Type: c.Type})
	}
	return fields
}

func countFeatures(ctx context.Context, db *sql.DB, layer *domain.Layer) error {
	query := "SELECT COUNT(*) FROM " + quoteIdent(layer.Name) //#nosec G202 -- identifier is quoted
	if err := db.QueryRowContext(ctx, query).Scan(&layer.FeatureCount); err != nil {
		return fmt.Errorf("counting features of %s: %w", layer.Name, err)
	}
	return nil
}

// quoteIdent quotes an SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral quotes an SQLite string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

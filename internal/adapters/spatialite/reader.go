package spatialite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// layerReader streams the rows of one layer as records.
// The geometry is returned as stored; the inspector decodes it.
type layerReader struct {
	layer  domain.Layer
	rows   *sql.Rows
	record domain.Record
	err    error
}

func openLayerReader(ctx context.Context, db *sql.DB, layer domain.Layer) (*layerReader, error) {
	cols := make([]string, 0, len(layer.Fields)+1)
	cols = append(cols, quoteIdent(layer.GeometryColumn))
	for _, f := range layer.Fields {
		cols = append(cols, quoteIdent(f.Name))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(layer.Name)) //#nosec G201 -- identifiers are quoted
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", layer.Name, err)
	}

	return &layerReader{layer: layer, rows: rows}, nil
}

func (r *layerReader) Layer() domain.Layer {
	return r.layer
}

func (r *layerReader) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}

	values := make([]any, len(r.layer.Fields)+1)
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = fmt.Errorf("scanning %s: %w", r.layer.Name, err)
		return false
	}

	r.record = domain.Record{Values: values[1:]}
	if blob, ok := values[0].([]byte); ok && len(blob) > 0 {
		r.record.Geometry = &domain.Geometry{Blob: blob}
	}
	return true
}

func (r *layerReader) Record() domain.Record {
	return r.record
}

func (r *layerReader) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *layerReader) Close() error {
	return r.rows.Close()
}

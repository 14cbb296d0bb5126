package output

import (
	"context"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// ReportWriter defines the secondary port for persisting report artifacts.
type ReportWriter interface {
	// WriteTable writes a table as CSV under the given file name.
	WriteTable(ctx context.Context, name string, table domain.Table) error

	// WriteDocument writes raw bytes under the given file name.
	WriteDocument(ctx context.Context, name string, body []byte) error

	// WriteYAML marshals v as YAML under the given file name.
	WriteYAML(ctx context.Context, name string, v any) error

	// Remove deletes a file written by an earlier run. A missing file is not an error.
	Remove(ctx context.Context, name string) error

	// Path returns the full path for a file name.
	Path(name string) string
}

// BuildingCounter defines the secondary port for OpenStreetMap count queries.
type BuildingCounter interface {
	// Count runs an Overpass QL "out count" query and returns the total.
	Count(ctx context.Context, query string) (int64, error)
}

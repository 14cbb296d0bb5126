package output

import (
	"context"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// DatasetLoader defines the secondary port for discovering and opening vector datasets.
type DatasetLoader interface {
	// Discover resolves an input path into dataset files, in sorted order.
	Discover(ctx context.Context, input string) ([]domain.Source, error)

	// Open opens a dataset file. The caller must Close it.
	Open(ctx context.Context, src domain.Source) (Dataset, error)
}

// Dataset is an open vector dataset holding one or more layers.
type Dataset interface {
	// LayerNames returns the feature layers in discovery order.
	LayerNames(ctx context.Context) ([]string, error)

	// OpenLayer opens a single-pass reader over a layer. The caller must Close it.
	OpenLayer(ctx context.Context, name string) (LayerReader, error)

	// Close releases the dataset handle.
	Close() error
}

// LayerReader is a forward-only cursor over the records of one layer.
// It follows the database/sql.Rows contract: call Next before every Record,
// check Err once Next returns false.
type LayerReader interface {
	// Layer returns the layer metadata loaded when the reader was opened.
	Layer() domain.Layer

	// Next advances to the next record.
	Next() bool

	// Record returns the current record.
	Record() domain.Record

	// Err returns the error, if any, that stopped iteration.
	Err() error

	// Close releases the reader.
	Close() error
}

// GeometryInspector defines the secondary port for geometry validity checks.
type GeometryInspector interface {
	// Inspect classifies a non-null geometry.
	Inspect(ctx context.Context, geom *domain.Geometry) (domain.GeometryCheck, error)
}

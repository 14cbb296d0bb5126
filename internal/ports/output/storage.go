// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"
	"io"
	"path"
	"strings"
)

// ObjectStorage defines the secondary port for remote dataset sources.
type ObjectStorage interface {
	// List returns all dataset files in the storage.
	List(ctx context.Context) ([]StorageObject, error)

	// Download downloads a dataset file to the local filesystem.
	Download(ctx context.Context, key string, dest string) error

	// GetReader returns a reader for the given object.
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)
}

// StorageObject represents a file in object storage.
type StorageObject struct {
	Key          string // Object key/path
	Size         int64  // Size in bytes
	LastModified int64  // Unix timestamp
	ETag         string // Content hash
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
	StorageTypeHTTP  StorageType = "http"
	StorageTypeLocal StorageType = "local"
)

// datasetExtensions lists GeoPackage files and every Shapefile member
// needed to open a layer (geometry, index, attributes, projection, codepage).
var datasetExtensions = map[string]bool{
	".gpkg": true,
	".shp":  true,
	".shx":  true,
	".dbf":  true,
	".prj":  true,
	".cpg":  true,
}

// IsDatasetFile reports whether a key or path names a dataset file or Shapefile member.
func IsDatasetFile(key string) bool {
	return datasetExtensions[strings.ToLower(path.Ext(key))]
}

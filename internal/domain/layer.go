package domain

// Driver identifies the on-disk format a layer was read from.
type Driver string

// Supported dataset drivers.
const (
	DriverShapefile  Driver = "ESRI Shapefile"
	DriverGeoPackage Driver = "GPKG"
)

// Source is a dataset file discovered under the audit input.
type Source struct {
	Path   string // File path
	Name   string // Base file name
	Driver Driver // Format of the file
}

// Layer represents a feature layer as loaded from a dataset.
type Layer struct {
	Name           string  // Layer name (table name or shapefile stem)
	Source         string  // Base name of the file the layer was read from
	Driver         Driver  // Dataset driver
	GeometryColumn string  // Name of the geometry column
	CRS            string  // CRS identifier, empty when unknown
	FeatureCount   int64   // Number of features
	Fields         []Field // Attribute fields in schema order
}

// FieldCount returns the number of attribute fields.
func (l *Layer) FieldCount() int {
	return len(l.Fields)
}

// FieldNames returns the attribute field names in schema order.
func (l *Layer) FieldNames() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldIndex returns the position of a field in the schema, or -1.
func (l *Layer) FieldIndex(name string) int {
	for i := range l.Fields {
		if l.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// HasCRS returns true if the layer carries a CRS identifier.
func (l *Layer) HasCRS() bool {
	return l.CRS != ""
}

// Field is an attribute column of a layer.
type Field struct {
	Name string // Column name
	Type string // Declared type (INTEGER, REAL, TEXT, ...)
}

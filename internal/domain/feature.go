package domain

import (
	"strconv"
	"strings"
)

// Record is a single feature read from a layer: geometry plus attribute values.
type Record struct {
	Geometry *Geometry // nil when the feature has no geometry
	Values   []any     // Attribute values in schema order; nil entries are nulls
}

// Value returns the attribute at index i. Out-of-range indices read as null.
func (r *Record) Value(i int) any {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// Geometry holds an encoded geometry blob as returned by the dataset driver.
type Geometry struct {
	Blob []byte // SpatiaLite internal geometry blob
}

// IsNull returns true if the geometry carries no bytes at all.
func (g *Geometry) IsNull() bool {
	return g == nil || len(g.Blob) == 0
}

// NumericValue converts an attribute value to float64.
// Strings are parsed; unparseable text and nulls report ok=false.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case []byte:
		return parseNumeric(string(n))
	case string:
		return parseNumeric(n)
	}
	return 0, false
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// GeometryType represents the type label of a geometry.
type GeometryType string

// Geometry type constants.
const (
	GeomPoint              GeometryType = "POINT"
	GeomLineString         GeometryType = "LINESTRING"
	GeomPolygon            GeometryType = "POLYGON"
	GeomMultiPoint         GeometryType = "MULTIPOINT"
	GeomMultiLineString    GeometryType = "MULTILINESTRING"
	GeomMultiPolygon       GeometryType = "MULTIPOLYGON"
	GeomGeometryCollection GeometryType = "GEOMETRYCOLLECTION"
)

// NormalizeGeometryType upper-cases a type label and strips dimension suffixes
// such as " Z", " M" or " ZM" ("POLYGON Z" becomes "POLYGON").
func NormalizeGeometryType(label string) GeometryType {
	label = strings.ToUpper(strings.TrimSpace(label))
	if idx := strings.IndexByte(label, ' '); idx > 0 {
		label = label[:idx]
	}
	return GeometryType(label)
}

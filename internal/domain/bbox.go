package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is a WGS84 (EPSG:4326) query window in Overpass order.
type BoundingBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

// ParseBoundingBox parses "south,west,north,east".
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: want south,west,north,east, got %q", ErrInvalidBoundingBox, s)
	}

	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: %q is not a number", ErrInvalidBoundingBox, p)
		}
		vals[i] = v
	}

	b := BoundingBox{South: vals[0], West: vals[1], North: vals[2], East: vals[3]}
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// Validate checks WGS84 ranges and corner ordering.
func (b BoundingBox) Validate() error {
	for _, lat := range []float64{b.South, b.North} {
		if lat < -90 || lat > 90 {
			return &ValidationError{
				Field:      "latitude",
				Value:      lat,
				Constraint: "[-90, 90]",
				Message:    "latitude must be between -90 and 90",
			}
		}
	}
	for _, lon := range []float64{b.West, b.East} {
		if lon < -180 || lon > 180 {
			return &ValidationError{
				Field:      "longitude",
				Value:      lon,
				Constraint: "[-180, 180]",
				Message:    "longitude must be between -180 and 180",
			}
		}
	}
	if b.South >= b.North || b.West >= b.East {
		return fmt.Errorf("%w: south/west must be below north/east", ErrInvalidBoundingBox)
	}
	return nil
}

// String returns the Overpass filter form "south,west,north,east".
func (b BoundingBox) String() string {
	return fmt.Sprintf("%s,%s,%s,%s",
		formatCoord(b.South), formatCoord(b.West),
		formatCoord(b.North), formatCoord(b.East))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BuildingCounts summarizes OpenStreetMap building coverage inside a bounding box.
type BuildingCounts struct {
	Area       string
	BBox       BoundingBox
	Total      int64
	WithHeight int64
	WithLevels int64
	Date       string // YYYY-MM-DD
}

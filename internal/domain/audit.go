package domain

import "sort"

// GeometryCheck is the outcome of inspecting one geometry.
type GeometryCheck struct {
	Empty bool         // No coordinates
	Valid bool         // Passed the topology validity test
	Type  GeometryType // Type label, set for non-empty geometries
}

// GeometryAudit is the per-layer geometry classification.
type GeometryAudit struct {
	LayerName    string
	TypeCounts   map[GeometryType]int64 // Valid geometries per type label
	EmptyCount   int64
	InvalidCount int64
	ValidCount   int64
}

// Total returns the number of geometries classified.
func (a *GeometryAudit) Total() int64 {
	return a.EmptyCount + a.InvalidCount + a.ValidCount
}

// ValidPercent returns the share of valid geometries over featureCount.
func (a *GeometryAudit) ValidPercent(featureCount int64) (float64, bool) {
	return Percent(a.ValidCount, featureCount)
}

// SortedTypes returns the tallied type labels in lexical order.
func (a *GeometryAudit) SortedTypes() []GeometryType {
	types := make([]GeometryType, 0, len(a.TypeCounts))
	for t := range a.TypeCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// FieldMissing is the missing-value tally for one field.
type FieldMissing struct {
	Field   string
	Missing int64
}

// AttributeAudit is the per-layer attribute completeness result.
type AttributeAudit struct {
	LayerName string
	Fields    []FieldMissing // Schema order
}

// TopMissing returns up to n fields with the highest missing counts,
// skipping fields with no missing values. Ties keep schema order.
func (a *AttributeAudit) TopMissing(n int) []FieldMissing {
	ranked := make([]FieldMissing, 0, len(a.Fields))
	for _, f := range a.Fields {
		if f.Missing > 0 {
			ranked = append(ranked, f)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Missing > ranked[j].Missing })
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Percent returns part/total*100. ok is false when total is zero.
func Percent(part, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return float64(part) * 100 / float64(total), true
}

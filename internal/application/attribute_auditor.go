package application

import (
	"math"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// AttributeAuditor tallies missing values per field of one layer.
type AttributeAuditor struct {
	layerName string
	fields    []string
	sentinel  []bool
	missing   []int64
}

// NewAttributeAuditor creates an auditor over the layer schema. Fields named
// in zeroAsMissing also count a numeric zero as missing; all other fields
// only count nulls.
func NewAttributeAuditor(layer domain.Layer, zeroAsMissing ...string) *AttributeAuditor {
	zero := make(map[string]bool, len(zeroAsMissing))
	for _, f := range zeroAsMissing {
		zero[f] = true
	}

	names := layer.FieldNames()
	sentinel := make([]bool, len(names))
	for i, name := range names {
		sentinel[i] = zero[name]
	}

	return &AttributeAuditor{
		layerName: layer.Name,
		fields:    names,
		sentinel:  sentinel,
		missing:   make([]int64, len(names)),
	}
}

// Observe counts the missing values of one record.
func (a *AttributeAuditor) Observe(rec domain.Record) {
	for i := range a.fields {
		if IsMissingValue(rec.Value(i), a.sentinel[i]) {
			a.missing[i]++
		}
	}
}

// Result returns the per-field tallies in schema order.
func (a *AttributeAuditor) Result() domain.AttributeAudit {
	fields := make([]domain.FieldMissing, len(a.fields))
	for i, name := range a.fields {
		fields[i] = domain.FieldMissing{Field: name, Missing: a.missing[i]}
	}
	return domain.AttributeAudit{
		LayerName: a.layerName,
		Fields:    fields,
	}
}

// IsMissingValue reports whether v is null or a floating-point NaN, or a
// numeric zero when the field uses zero as its sentinel. Blank text is a value.
func IsMissingValue(v any, zeroSentinel bool) bool {
	switch n := v.(type) {
	case nil:
		return true
	case float64:
		if math.IsNaN(n) {
			return true
		}
	case float32:
		if math.IsNaN(float64(n)) {
			return true
		}
	}
	if !zeroSentinel {
		return false
	}
	f, ok := domain.NumericValue(v)
	return ok && f == 0
}

package application

import (
	"math"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// ReadinessEvaluator decides, record by record, whether the volumetric-unit
// layer carries the elevations needed for 3D extrusion.
//
// The municipal source systems write 0 when an elevation was never measured,
// so zero, null and non-numeric values all count as missing.
type ReadinessEvaluator struct {
	index  []int // Schema position per role, -1 when the field is not declared
	result domain.ReadinessResult
}

// NewReadinessEvaluator creates an evaluator for the layer and field mapping.
func NewReadinessEvaluator(layer domain.Layer, fields domain.ReadinessFields) *ReadinessEvaluator {
	roles := fields.Roles()
	e := &ReadinessEvaluator{
		index: make([]int, len(roles)),
		result: domain.ReadinessResult{
			LayerName: layer.Name,
			Source:    layer.Source,
			Fields:    make([]domain.FieldStatus, len(roles)),
		},
	}

	for i, rf := range roles {
		idx := layer.FieldIndex(rf.Field)
		e.index[i] = idx
		e.result.Fields[i] = domain.FieldStatus{
			Role:    rf.Role,
			Field:   rf.Field,
			Present: idx >= 0,
		}
	}

	return e
}

// Observe evaluates one record and reports whether it is 3D-ready.
func (e *ReadinessEvaluator) Observe(rec domain.Record) bool {
	e.result.TotalRecords++

	ready := true
	for i, idx := range e.index {
		if idx < 0 {
			// Schema gap: tracked by FieldStatus.Present, not per record.
			ready = false
			continue
		}
		if IsMissingElevation(rec.Value(idx)) {
			e.result.Fields[i].Missing++
			ready = false
		}
	}

	if ready {
		e.result.ReadyCount++
	}
	return ready
}

// Result returns the evaluation so far.
func (e *ReadinessEvaluator) Result() domain.ReadinessResult {
	out := e.result
	out.Fields = append([]domain.FieldStatus(nil), e.result.Fields...)
	return out
}

// IsMissingElevation reports whether an elevation value is unusable:
// null, not a number, or zero.
func IsMissingElevation(v any) bool {
	f, ok := domain.NumericValue(v)
	return !ok || f == 0 || math.IsNaN(f)
}

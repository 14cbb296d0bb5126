package domain

import "time"

// OutcomeStatus tells whether a layer was audited or skipped.
type OutcomeStatus string

// Layer outcome states.
const (
	OutcomeAudited OutcomeStatus = "audited"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// LayerOutcome is the per-layer result of an audit run.
type LayerOutcome struct {
	Layer      Layer
	Status     OutcomeStatus
	SkipReason string
	Geometry   GeometryAudit
	Attributes AttributeAudit
}

// Audited returns a successful outcome.
func Audited(layer Layer, geom GeometryAudit, attrs AttributeAudit) LayerOutcome {
	return LayerOutcome{
		Layer:      layer,
		Status:     OutcomeAudited,
		Geometry:   geom,
		Attributes: attrs,
	}
}

// Skipped returns an outcome for a layer that could not be read.
func Skipped(layer Layer, err error) LayerOutcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return LayerOutcome{
		Layer:      layer,
		Status:     OutcomeSkipped,
		SkipReason: reason,
	}
}

// IsSkipped returns true if the layer was not audited.
func (o *LayerOutcome) IsSkipped() bool {
	return o.Status == OutcomeSkipped
}

// Report is the complete result of one audit run.
type Report struct {
	RunID       string
	InputPath   string
	GeneratedAt time.Time
	Readiness   ReadinessConfig
	Layers      []LayerOutcome   // Discovery order
	UnitResult  *ReadinessResult // nil when the volumetric-unit layer was not found
}

// AddLayer appends a layer outcome.
func (r *Report) AddLayer(o LayerOutcome) {
	r.Layers = append(r.Layers, o)
}

// AuditedCount returns the number of layers that were read successfully.
func (r *Report) AuditedCount() int {
	n := 0
	for i := range r.Layers {
		if !r.Layers[i].IsSkipped() {
			n++
		}
	}
	return n
}

// SkippedCount returns the number of layers that were skipped.
func (r *Report) SkippedCount() int {
	return len(r.Layers) - r.AuditedCount()
}

// TotalFeatures sums the feature counts of audited layers.
func (r *Report) TotalFeatures() int64 {
	var total int64
	for i := range r.Layers {
		if !r.Layers[i].IsSkipped() {
			total += r.Layers[i].Layer.FeatureCount
		}
	}
	return total
}

// HasUnitResult returns true if the volumetric-unit layer was evaluated.
func (r *Report) HasUnitResult() bool {
	return r.UnitResult != nil
}

package domain

import "fmt"

// Default volumetric-unit layer and elevation fields of the municipal CSI data.
const (
	DefaultReadinessLayer = "020101_UNITA_VOLUMETRICA"
	DefaultEaveField      = "QT_GRONDA"
	DefaultGroundField    = "QT_SUOLO"
	DefaultHeightField    = "ALTEZZA_VO"
)

// ReadinessNote is the caveat attached to every readiness summary.
const ReadinessNote = "3D readiness treats 0 elevation values as missing."

// Role names an elevation attribute used for 3D extrusion.
type Role string

// Elevation roles in reporting order.
const (
	RoleEave   Role = "eave"
	RoleGround Role = "ground"
	RoleHeight Role = "height"
)

// ReadinessFields maps each elevation role to a field name.
type ReadinessFields struct {
	Eave   string
	Ground string
	Height string
}

// DefaultReadinessFields returns the CSI field names.
func DefaultReadinessFields() ReadinessFields {
	return ReadinessFields{
		Eave:   DefaultEaveField,
		Ground: DefaultGroundField,
		Height: DefaultHeightField,
	}
}

// RoleField pairs a role with its configured field name.
type RoleField struct {
	Role  Role
	Field string
}

// Roles returns the configured fields in reporting order.
func (f ReadinessFields) Roles() []RoleField {
	return []RoleField{
		{Role: RoleEave, Field: f.Eave},
		{Role: RoleGround, Field: f.Ground},
		{Role: RoleHeight, Field: f.Height},
	}
}

// Validate checks that all three roles name distinct, non-empty fields.
func (f ReadinessFields) Validate() error {
	seen := make(map[string]Role, 3)
	for _, rf := range f.Roles() {
		if rf.Field == "" {
			return &ValidationError{
				Field:      "readiness.fields." + string(rf.Role),
				Value:      rf.Field,
				Constraint: "non-empty",
				Message:    "field name is required",
			}
		}
		if other, dup := seen[rf.Field]; dup {
			return &ValidationError{
				Field:      "readiness.fields." + string(rf.Role),
				Value:      rf.Field,
				Constraint: "distinct",
				Message:    fmt.Sprintf("already used for role %s", other),
			}
		}
		seen[rf.Field] = rf.Role
	}
	return nil
}

// ReadinessConfig selects the volumetric-unit layer and its elevation fields.
type ReadinessConfig struct {
	LayerName string
	Fields    ReadinessFields
}

// FieldStatus reports how one elevation field fared across the layer.
type FieldStatus struct {
	Role    Role
	Field   string
	Present bool  // Declared in the layer schema
	Missing int64 // Null, non-numeric or zero values; always 0 when not present
}

// StatusLabel returns "present" or "not_present".
func (s FieldStatus) StatusLabel() string {
	if s.Present {
		return "present"
	}
	return "not_present"
}

// ReadinessResult is the 3D-readiness evaluation of the volumetric-unit layer.
type ReadinessResult struct {
	LayerName    string
	Source       string
	TotalRecords int64
	ReadyCount   int64
	Fields       []FieldStatus // Role order
}

// ReadyPercent returns the share of 3D-ready records.
func (r *ReadinessResult) ReadyPercent() (float64, bool) {
	return Percent(r.ReadyCount, r.TotalRecords)
}

// SchemaComplete returns true if every configured field is declared by the layer.
func (r *ReadinessResult) SchemaComplete() bool {
	for _, f := range r.Fields {
		if !f.Present {
			return false
		}
	}
	return true
}

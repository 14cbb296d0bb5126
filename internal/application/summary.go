package application

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// Output file names.
const (
	SummaryLayersFile = "summary_layers.csv"
	SummaryUnitFile   = "summary_unita_volumetrica.csv"
	NarrativeFile     = "report.md"
	SummaryYAMLFile   = "summary.yaml"
)

// LayersTable builds the all-layers summary: one row per discovered layer.
func LayersTable(report *domain.Report) domain.Table {
	table := domain.Table{
		Header: []string{
			"layer_name", "source", "driver", "status", "skip_reason",
			"feature_count", "crs", "field_count", "geometry_types",
			"empty_geometries", "invalid_geometries", "valid_geometries",
			"missing_values",
		},
	}

	for i := range report.Layers {
		o := &report.Layers[i]
		row := []string{
			o.Layer.Name,
			o.Layer.Source,
			string(o.Layer.Driver),
			string(o.Status),
			o.SkipReason,
		}

		if o.IsSkipped() {
			row = append(row, "", "", "", "", "", "", "", "")
			table.AddRow(row)
			continue
		}

		row = append(row,
			strconv.FormatInt(o.Layer.FeatureCount, 10),
			o.Layer.CRS,
			strconv.Itoa(o.Layer.FieldCount()),
			formatTypeCounts(&o.Geometry),
			strconv.FormatInt(o.Geometry.EmptyCount, 10),
			strconv.FormatInt(o.Geometry.InvalidCount, 10),
			strconv.FormatInt(o.Geometry.ValidCount, 10),
			formatMissing(&o.Attributes),
		)
		table.AddRow(row)
	}

	return table
}

// UnitTable builds the volumetric-unit summary. ok is false when the layer
// was not found, in which case no table must be written.
func UnitTable(report *domain.Report) (domain.Table, bool) {
	r := report.UnitResult
	if r == nil {
		return domain.Table{}, false
	}

	header := []string{"layer_name", "source", "total_records", "ready_count", "ready_pct"}
	row := []string{
		r.LayerName,
		r.Source,
		strconv.FormatInt(r.TotalRecords, 10),
		strconv.FormatInt(r.ReadyCount, 10),
		FormatPercent(r.ReadyCount, r.TotalRecords),
	}

	for _, f := range r.Fields {
		header = append(header, f.Field+"_status", f.Field+"_missing", f.Field+"_missing_pct")
		if !f.Present {
			row = append(row, f.StatusLabel(), "", "")
			continue
		}
		row = append(row,
			f.StatusLabel(),
			strconv.FormatInt(f.Missing, 10),
			FormatPercent(f.Missing, r.TotalRecords),
		)
	}

	header = append(header, "note")
	row = append(row, domain.ReadinessNote)

	return domain.Table{Header: header, Rows: [][]string{row}}, true
}

// FormatPercent renders part/total as a two-decimal percentage, or an
// empty string when total is zero.
func FormatPercent(part, total int64) string {
	pct, ok := domain.Percent(part, total)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.2f", pct)
}

func formatTypeCounts(a *domain.GeometryAudit) string {
	types := a.SortedTypes()
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s:%d", t, a.TypeCounts[t]))
	}
	return strings.Join(parts, "; ")
}

func formatMissing(a *domain.AttributeAudit) string {
	parts := make([]string, 0, len(a.Fields))
	for _, f := range a.Fields {
		parts = append(parts, fmt.Sprintf("%s:%d", f.Field, f.Missing))
	}
	return strings.Join(parts, "; ")
}

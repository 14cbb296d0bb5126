package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// DefaultTopMissing is the number of fields listed per layer in the narrative.
const DefaultTopMissing = 5

// RenderNarrative renders the Markdown report document.
func RenderNarrative(report *domain.Report, topN int) []byte {
	if topN < 1 {
		topN = DefaultTopMissing
	}

	var b strings.Builder

	b.WriteString("# CSI Data Quality Report\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))
	if report.RunID != "" {
		fmt.Fprintf(&b, "- Run ID: `%s`\n", report.RunID)
	}
	fmt.Fprintf(&b, "- Input path: `%s`\n\n", report.InputPath)

	writeOverview(&b, report)
	writeGeometry(&b, report)
	writeCompleteness(&b, report, topN)
	writeSkipped(&b, report)
	writeReadiness(&b, report)

	return []byte(b.String())
}

func writeOverview(b *strings.Builder, report *domain.Report) {
	b.WriteString("## Overview\n\n")
	b.WriteString("| Layers discovered | Layers audited | Layers skipped | Total features |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	fmt.Fprintf(b, "| %d | %d | %d | %d |\n\n",
		len(report.Layers), report.AuditedCount(), report.SkippedCount(), report.TotalFeatures())
}

func writeGeometry(b *strings.Builder, report *domain.Report) {
	b.WriteString("## Geometry validity\n\n")
	if report.AuditedCount() == 0 {
		b.WriteString("No layer could be audited.\n\n")
		return
	}

	b.WriteString("| Layer | Features | Valid | Invalid | Empty | Valid % | Types |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|\n")
	for i := range report.Layers {
		o := &report.Layers[i]
		if o.IsSkipped() {
			continue
		}
		fmt.Fprintf(b, "| %s | %d | %d | %d | %d | %s | %s |\n",
			mdCell(o.Layer.Name),
			o.Layer.FeatureCount,
			o.Geometry.ValidCount,
			o.Geometry.InvalidCount,
			o.Geometry.EmptyCount,
			percentOrNA(o.Geometry.ValidCount, o.Layer.FeatureCount),
			mdCell(formatTypeCounts(&o.Geometry)),
		)
	}
	b.WriteString("\n")

	var noCRS []string
	for i := range report.Layers {
		o := &report.Layers[i]
		if !o.IsSkipped() && !o.Layer.HasCRS() {
			noCRS = append(noCRS, "`"+o.Layer.Name+"`")
		}
	}
	if len(noCRS) > 0 {
		fmt.Fprintf(b, "Layers without a CRS: %s. Coordinates cannot be placed without one.\n\n", strings.Join(noCRS, ", "))
	}
}

func writeCompleteness(b *strings.Builder, report *domain.Report, topN int) {
	fmt.Fprintf(b, "## Attribute completeness (top %d fields by missing values)\n\n", topN)
	for i := range report.Layers {
		o := &report.Layers[i]
		if o.IsSkipped() {
			continue
		}

		fmt.Fprintf(b, "### %s\n\n", o.Layer.Name)
		top := o.Attributes.TopMissing(topN)
		if len(top) == 0 {
			b.WriteString("No missing values.\n\n")
			continue
		}

		b.WriteString("| Field | Missing | Missing % |\n")
		b.WriteString("|---|---:|---:|\n")
		for _, f := range top {
			fmt.Fprintf(b, "| %s | %d | %s |\n",
				mdCell(f.Field), f.Missing, percentOrNA(f.Missing, o.Layer.FeatureCount))
		}
		b.WriteString("\n")
	}
}

func writeSkipped(b *strings.Builder, report *domain.Report) {
	if report.SkippedCount() == 0 {
		return
	}

	b.WriteString("## Skipped layers\n\n")
	for i := range report.Layers {
		o := &report.Layers[i]
		if !o.IsSkipped() {
			continue
		}
		fmt.Fprintf(b, "- `%s` (%s): %s\n", o.Layer.Name, o.Layer.Source, o.SkipReason)
	}
	b.WriteString("\n")
}

func writeReadiness(b *strings.Builder, report *domain.Report) {
	b.WriteString("## 3D readiness\n\n")

	r := report.UnitResult
	if r == nil {
		fmt.Fprintf(b, "Layer `%s` was not found in the dataset; 3D readiness was not evaluated.\n",
			report.Readiness.LayerName)
		return
	}

	ready := percentOrNA(r.ReadyCount, r.TotalRecords)
	if ready != "n/a" {
		ready += "%"
	}
	fmt.Fprintf(b, "Layer `%s` (%s): **%s** of %d records are 3D-ready (%d records).\n\n",
		r.LayerName, r.Source, ready, r.TotalRecords, r.ReadyCount)

	b.WriteString("| Role | Field | Status | Missing | Missing % |\n")
	b.WriteString("|---|---|---|---:|---:|\n")
	var names []string
	for _, f := range r.Fields {
		names = append(names, "`"+f.Field+"`")
		if !f.Present {
			fmt.Fprintf(b, "| %s | %s | field not present | - | - |\n", f.Role, mdCell(f.Field))
			continue
		}
		fmt.Fprintf(b, "| %s | %s | value missing where null or 0 | %d | %s |\n",
			f.Role, mdCell(f.Field), f.Missing, percentOrNA(f.Missing, r.TotalRecords))
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "> Zero values in %s are treated as missing: the source systems write 0 as a fallback, not as a measured elevation. A record is 3D-ready only when all three fields carry a non-zero value.\n",
		strings.Join(names, ", "))

	if r.SchemaComplete() {
		return
	}
	for _, f := range r.Fields {
		if !f.Present {
			fmt.Fprintf(b, "\nField `%s` is not present in the layer schema, so no record can be 3D-ready. This is a schema gap, not missing data.\n", f.Field)
		}
	}
}

func percentOrNA(part, total int64) string {
	s := FormatPercent(part, total)
	if s == "" {
		return "n/a"
	}
	return s
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

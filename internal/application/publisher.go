package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// PublisherConfig selects which artifacts are written besides the summary tables.
type PublisherConfig struct {
	Narrative   bool // Write report.md
	YAMLSummary bool // Write summary.yaml
	TopMissing  int  // Fields listed per layer in the narrative
}

// Publisher writes a finished report through a ReportWriter.
type Publisher struct {
	writer output.ReportWriter
	logger *slog.Logger
	config PublisherConfig
}

// NewPublisher creates a new publisher.
func NewPublisher(writer output.ReportWriter, logger *slog.Logger, config PublisherConfig) *Publisher {
	if config.TopMissing < 1 {
		config.TopMissing = DefaultTopMissing
	}
	return &Publisher{
		writer: writer,
		logger: logger,
		config: config,
	}
}

// Publish writes every artifact and returns the written paths. Optional
// artifacts this run does not produce are removed so that the output
// directory never mixes runs. The first failure aborts publishing and is returned.
func (p *Publisher) Publish(ctx context.Context, report *domain.Report) ([]string, error) {
	var written []string

	if err := p.writer.WriteTable(ctx, SummaryLayersFile, LayersTable(report)); err != nil {
		return written, err
	}
	written = append(written, p.writer.Path(SummaryLayersFile))

	if table, ok := UnitTable(report); ok {
		if err := p.writer.WriteTable(ctx, SummaryUnitFile, table); err != nil {
			return written, err
		}
		written = append(written, p.writer.Path(SummaryUnitFile))
	} else if err := p.remove(ctx, SummaryUnitFile); err != nil {
		return written, err
	}

	if p.config.Narrative {
		if err := p.writer.WriteDocument(ctx, NarrativeFile, RenderNarrative(report, p.config.TopMissing)); err != nil {
			return written, err
		}
		written = append(written, p.writer.Path(NarrativeFile))
	} else if err := p.remove(ctx, NarrativeFile); err != nil {
		return written, err
	}

	if p.config.YAMLSummary {
		if err := p.writer.WriteYAML(ctx, SummaryYAMLFile, NewSummaryDocument(report)); err != nil {
			return written, err
		}
		written = append(written, p.writer.Path(SummaryYAMLFile))
	} else if err := p.remove(ctx, SummaryYAMLFile); err != nil {
		return written, err
	}

	p.logger.Info("report written", "files", len(written))
	return written, nil
}

func (p *Publisher) remove(ctx context.Context, name string) error {
	if err := p.writer.Remove(ctx, name); err != nil {
		return err
	}
	p.logger.Debug("removed artifact not produced by this run", "file", name)
	return nil
}

// SummaryDocument is the machine-readable form of a report.
type SummaryDocument struct {
	RunID       string            `yaml:"run_id"`
	InputPath   string            `yaml:"input_path"`
	GeneratedAt string            `yaml:"generated_at"`
	Layers      []LayerSummary    `yaml:"layers"`
	Readiness   *ReadinessSummary `yaml:"readiness,omitempty"`
}

// LayerSummary is one layer of a SummaryDocument.
type LayerSummary struct {
	Name          string           `yaml:"name"`
	Source        string           `yaml:"source"`
	Driver        string           `yaml:"driver"`
	Status        string           `yaml:"status"`
	SkipReason    string           `yaml:"skip_reason,omitempty"`
	FeatureCount  int64            `yaml:"feature_count"`
	CRS           string           `yaml:"crs,omitempty"`
	Fields        []string         `yaml:"fields,omitempty"`
	GeometryTypes map[string]int64 `yaml:"geometry_types,omitempty"`
	Empty         int64            `yaml:"empty_geometries"`
	Invalid       int64            `yaml:"invalid_geometries"`
	Valid         int64            `yaml:"valid_geometries"`
	Missing       map[string]int64 `yaml:"missing_values,omitempty"`
}

// ReadinessSummary is the volumetric-unit section of a SummaryDocument.
type ReadinessSummary struct {
	Layer        string           `yaml:"layer"`
	TotalRecords int64            `yaml:"total_records"`
	ReadyCount   int64            `yaml:"ready_count"`
	Fields       []ReadinessField `yaml:"fields"`
	Note         string           `yaml:"note"`
}

// ReadinessField is one elevation field of a ReadinessSummary.
type ReadinessField struct {
	Role    string `yaml:"role"`
	Field   string `yaml:"field"`
	Status  string `yaml:"status"`
	Missing *int64 `yaml:"missing,omitempty"`
}

// NewSummaryDocument converts a report for YAML output.
func NewSummaryDocument(report *domain.Report) SummaryDocument {
	doc := SummaryDocument{
		RunID:       report.RunID,
		InputPath:   report.InputPath,
		GeneratedAt: report.GeneratedAt.UTC().Format(time.RFC3339),
		Layers:      make([]LayerSummary, 0, len(report.Layers)),
	}

	for i := range report.Layers {
		o := &report.Layers[i]
		ls := LayerSummary{
			Name:         o.Layer.Name,
			Source:       o.Layer.Source,
			Driver:       string(o.Layer.Driver),
			Status:       string(o.Status),
			SkipReason:   o.SkipReason,
			FeatureCount: o.Layer.FeatureCount,
			CRS:          o.Layer.CRS,
			Fields:       o.Layer.FieldNames(),
			Empty:        o.Geometry.EmptyCount,
			Invalid:      o.Geometry.InvalidCount,
			Valid:        o.Geometry.ValidCount,
		}
		if len(o.Geometry.TypeCounts) > 0 {
			ls.GeometryTypes = make(map[string]int64, len(o.Geometry.TypeCounts))
			for t, n := range o.Geometry.TypeCounts {
				ls.GeometryTypes[string(t)] = n
			}
		}
		if len(o.Attributes.Fields) > 0 {
			ls.Missing = make(map[string]int64, len(o.Attributes.Fields))
			for _, f := range o.Attributes.Fields {
				ls.Missing[f.Field] = f.Missing
			}
		}
		doc.Layers = append(doc.Layers, ls)
	}

	if r := report.UnitResult; r != nil {
		rs := &ReadinessSummary{
			Layer:        r.LayerName,
			TotalRecords: r.TotalRecords,
			ReadyCount:   r.ReadyCount,
			Note:         domain.ReadinessNote,
		}
		for _, f := range r.Fields {
			rf := ReadinessField{Role: string(f.Role), Field: f.Field, Status: f.StatusLabel()}
			if f.Present {
				missing := f.Missing
				rf.Missing = &missing
			}
			rs.Fields = append(rs.Fields, rf)
		}
		doc.Readiness = rs
	}

	return doc
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jobrunner/csiaudit/internal/adapters/overpass"
	"github.com/jobrunner/csiaudit/internal/adapters/report"
	"github.com/jobrunner/csiaudit/internal/application"
	"github.com/jobrunner/csiaudit/internal/config"
	"github.com/jobrunner/csiaudit/internal/domain"
)

// SurveyResult describes one OpenStreetMap building survey.
type SurveyResult struct {
	Counts domain.BuildingCounts
	File   string
}

// RunSurvey counts OpenStreetMap buildings in the configured bounding box
// and writes the summary table to the output directory. It needs neither
// SpatiaLite nor a dataset input.
func RunSurvey(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*SurveyResult, error) {
	bbox, err := domain.ParseBoundingBox(cfg.OSM.BBox)
	if err != nil {
		return nil, err
	}

	client := overpass.NewClient(overpass.Config{
		URL:     cfg.OSM.URL,
		Timeout: cfg.OSM.Timeout,
	})
	survey := application.NewBuildingSurveyService(client, logger, cfg.OSM.QueryTimeout)

	counts, err := survey.Survey(ctx, cfg.OSM.Area, bbox)
	if err != nil {
		return nil, fmt.Errorf("surveying buildings: %w", err)
	}

	writer := report.NewFileWriter(cfg.Output.Dir)
	name := cfg.OSM.Output
	if name == "" {
		name = application.OSMSummaryFile
	}
	if err := writer.WriteTable(ctx, name, application.BuildingCountsTable(counts)); err != nil {
		return nil, err
	}

	return &SurveyResult{Counts: counts, File: writer.Path(name)}, nil
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// OSMSummaryFile is the output file of a building survey.
const OSMSummaryFile = "osm_height_summary.csv"

// BuildingSurveyService counts OpenStreetMap buildings and how many of them
// carry height or level tags, as a reference for the CSI 3D-readiness figures.
type BuildingSurveyService struct {
	counter      output.BuildingCounter
	logger       *slog.Logger
	queryTimeout time.Duration
	now          func() time.Time
}

// NewBuildingSurveyService creates a new survey service. queryTimeout is the
// server-side Overpass timeout embedded in each query.
func NewBuildingSurveyService(counter output.BuildingCounter, logger *slog.Logger, queryTimeout time.Duration) *BuildingSurveyService {
	if queryTimeout <= 0 {
		queryTimeout = 120 * time.Second
	}
	return &BuildingSurveyService{
		counter:      counter,
		logger:       logger,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// Survey runs the three count queries for the bounding box.
func (s *BuildingSurveyService) Survey(ctx context.Context, area string, bbox domain.BoundingBox) (domain.BuildingCounts, error) {
	if err := bbox.Validate(); err != nil {
		return domain.BuildingCounts{}, err
	}

	counts := domain.BuildingCounts{
		Area: area,
		BBox: bbox,
		Date: s.now().Format("2006-01-02"),
	}

	queries := []struct {
		name   string
		filter string
		dest   *int64
	}{
		{"total", `["building"]`, &counts.Total},
		{"with_height", `["building"]["height"]`, &counts.WithHeight},
		{"with_levels", `["building"]["building:levels"]`, &counts.WithLevels},
	}

	for _, q := range queries {
		n, err := s.counter.Count(ctx, BuildingCountQuery(q.filter, bbox, s.queryTimeout))
		if err != nil {
			return domain.BuildingCounts{}, fmt.Errorf("counting %s buildings: %w", q.name, err)
		}
		*q.dest = n
		s.logger.Info("overpass count", "area", area, "query", q.name, "count", n)
	}

	return counts, nil
}

// BuildingCountQuery builds an Overpass QL "out count" query over nodes,
// ways and relations matching the tag filter.
func BuildingCountQuery(filter string, bbox domain.BoundingBox, timeout time.Duration) string {
	return fmt.Sprintf("[out:json][timeout:%d];\nnwr%s(%s);\nout count;\n",
		int(timeout.Seconds()), filter, bbox.String())
}

// BuildingCountsTable renders a survey as the OSM summary table.
func BuildingCountsTable(c domain.BuildingCounts) domain.Table {
	return domain.Table{
		Header: []string{
			"area", "bbox_south", "bbox_west", "bbox_north", "bbox_east",
			"total_buildings", "with_height", "with_levels", "date",
		},
		Rows: [][]string{{
			c.Area,
			strconv.FormatFloat(c.BBox.South, 'f', -1, 64),
			strconv.FormatFloat(c.BBox.West, 'f', -1, 64),
			strconv.FormatFloat(c.BBox.North, 'f', -1, 64),
			strconv.FormatFloat(c.BBox.East, 'f', -1, 64),
			strconv.FormatInt(c.Total, 10),
			strconv.FormatInt(c.WithHeight, 10),
			strconv.FormatInt(c.WithLevels, 10),
			c.Date,
		}},
	}
}

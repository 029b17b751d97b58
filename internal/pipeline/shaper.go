package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// ShapedForecast is the output of shaping one forecast date: the working
// grid after optional region subsetting plus one shaped point per configured
// location.
type ShapedForecast struct {
	Date   string
	Grid   *domain.Grid
	Points []ShapedPoint
}

// ShapedPoint pairs an extraction target with its ensemble bundle and the
// summary built from it.
type ShapedPoint struct {
	Location domain.LocationPoint
	Bundle   domain.ForecastBundle
	Summary  domain.ForecastSummary
}

// Shaper applies the shaping operations for one forecast date: optional
// region subsetting, then point extraction and summary building per
// configured location.
type Shaper struct {
	region    domain.RegionWindow
	hasRegion bool
	locations []domain.LocationPoint
	logger    *slog.Logger
}

// NewShaper creates a Shaper. Pass hasRegion false to shape the full grid.
func NewShaper(region domain.RegionWindow, hasRegion bool, locations []domain.LocationPoint, logger *slog.Logger) *Shaper {
	return &Shaper{
		region:    region,
		hasRegion: hasRegion,
		locations: locations,
		logger:    logger,
	}
}

// Shape runs the shaping operations against one loaded grid. Any schema or
// domain violation fails the whole date; partial results are never returned.
func (s *Shaper) Shape(g *domain.Grid, forecastDate string) (*ShapedForecast, error) {
	grid := g
	if s.hasRegion {
		sub, err := domain.SubsetRegion(g, s.region)
		if err != nil {
			return nil, fmt.Errorf("subset region: %w", err)
		}
		s.logger.Debug("region subset applied", "date", forecastDate,
			"lat_min", s.region.LatMin, "lat_max", s.region.LatMax,
			"lon_min", s.region.LonMin, "lon_max", s.region.LonMax)
		grid = sub
	}

	out := &ShapedForecast{Date: forecastDate, Grid: grid}
	for _, loc := range s.locations {
		bundle, err := domain.ExtractLocation(grid, loc.Lat, loc.Lon)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", loc, err)
		}
		summary, err := domain.BuildSummary(bundle, loc, forecastDate)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", loc, err)
		}
		out.Points = append(out.Points, ShapedPoint{Location: loc, Bundle: bundle, Summary: summary})
	}
	return out, nil
}

// Package render produces visual artifacts from shaped forecast grids: an
// ensemble time-series PNG per extraction point and a precipitation heatmap
// page per forecast date. Precipitation values are converted from metres to
// millimetres for display.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

const metresToMillimetres = 1000

// Renderer writes plot artifacts into the configured output directory.
type Renderer struct {
	outputDir string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer. The output directory is created on first
// render.
func NewRenderer(outputDir string, logger *slog.Logger) *Renderer {
	return &Renderer{outputDir: outputDir, logger: logger}
}

func (r *Renderer) ensureOutputDir() error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// dateSlug turns "2024-05-13" into "2024_05_13" for artifact file names,
// matching the archive naming scheme.
func dateSlug(forecastDate string) string {
	return strings.ReplaceAll(forecastDate, "-", "_")
}

func locationSlug(loc domain.LocationPoint) string {
	return fmt.Sprintf("%.4f_%.4f", loc.Lat, loc.Lon)
}

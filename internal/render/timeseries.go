package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

var (
	memberColor = color.RGBA{R: 158, G: 158, B: 158, A: 255}
	meanColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bandColor   = color.RGBA{R: 31, G: 119, B: 180, A: 48}
)

// RenderTimeSeries plots the extracted ensemble for one location: one line
// per member, the ensemble mean, and a shaded mean±std band. Returns the
// path of the written PNG.
func (r *Renderer) RenderTimeSeries(bundle *domain.ForecastBundle, loc domain.LocationPoint, forecastDate string) (string, error) {
	if err := r.ensureOutputDir(); err != nil {
		return "", err
	}

	times := bundle.Mean.Time
	mean := bundle.Mean.Vars[domain.VarPrecipitation]
	std := bundle.Std.Vars[domain.VarPrecipitation]
	ensemble := bundle.Ensemble.Vars[domain.VarPrecipitation]
	if mean == nil || std == nil || ensemble == nil {
		return "", fmt.Errorf("forecast bundle has no precipitation variable")
	}
	if len(times) == 0 {
		return "", fmt.Errorf("forecast bundle has no time steps")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Ensemble precipitation forecast %s at %s", forecastDate, loc)
	p.X.Label.Text = "Valid time"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2 15h"}
	p.Y.Label.Text = "Total precipitation (mm)"

	timeAxis := ensemble.AxisIndex(domain.DimTime)
	memberAxis := ensemble.AxisIndex(domain.DimMember)
	members := ensemble.Shape[memberAxis]

	// Shaded band first so the lines draw on top of it.
	band := make(plotter.XYs, 0, 2*len(times))
	for ti := range times {
		x := float64(times[ti].Unix())
		band = append(band, plotter.XY{X: x, Y: (mean.Data[ti] + std.Data[ti]) * metresToMillimetres})
	}
	for ti := len(times) - 1; ti >= 0; ti-- {
		x := float64(times[ti].Unix())
		band = append(band, plotter.XY{X: x, Y: (mean.Data[ti] - std.Data[ti]) * metresToMillimetres})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return "", fmt.Errorf("build std band: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0
	p.Add(poly)

	idx := make([]int, 2)
	for mi := 0; mi < members; mi++ {
		pts := make(plotter.XYs, len(times))
		for ti := range times {
			idx[timeAxis] = ti
			idx[memberAxis] = mi
			pts[ti] = plotter.XY{
				X: float64(times[ti].Unix()),
				Y: ensemble.At(idx...) * metresToMillimetres,
			}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("member line: %w", err)
		}
		line.Color = memberColor
		line.Width = vg.Points(0.5)
		p.Add(line)
		// One legend entry stands in for the whole ensemble.
		if mi == 0 {
			p.Legend.Add("members", line)
		}
	}

	meanPts := make(plotter.XYs, len(times))
	for ti := range times {
		meanPts[ti] = plotter.XY{
			X: float64(times[ti].Unix()),
			Y: mean.Data[ti] * metresToMillimetres,
		}
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return "", fmt.Errorf("mean line: %w", err)
	}
	meanLine.Color = meanColor
	meanLine.Width = vg.Points(2)
	p.Add(meanLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	name := fmt.Sprintf("forecast_precipitation_%s_%s.png", locationSlug(loc), dateSlug(forecastDate))
	path := filepath.Join(r.outputDir, name)
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save time series plot: %w", err)
	}

	r.logger.Debug("rendered time series", "path", path, "members", members, "steps", len(times))
	return path, nil
}

package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// viridis ramp, matching the usual precipitation colouring.
var heatmapColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// RenderPrecipitationMap writes one HTML page per forecast date with a
// lon/lat precipitation heatmap for every time step. Ensemble grids are
// collapsed to the member mean per cell before plotting. Returns the path
// of the written page.
func (r *Renderer) RenderPrecipitationMap(g *domain.Grid, forecastDate string) (string, error) {
	if err := r.ensureOutputDir(); err != nil {
		return "", err
	}

	data, err := domain.ReadGrid(g)
	if err != nil {
		return "", err
	}

	lonLabels := make([]string, len(data.Lon))
	for i, v := range data.Lon {
		lonLabels[i] = fmt.Sprintf("%.2f", v)
	}
	latLabels := make([]string, len(data.Lat))
	for i, v := range data.Lat {
		latLabels[i] = fmt.Sprintf("%.2f", v)
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Precipitation forecast %s", forecastDate)

	maxVal := 0.0
	cells := make([][]opts.HeatMapData, len(data.Time))
	for ti := range data.Time {
		cells[ti] = make([]opts.HeatMapData, 0, len(data.Lat)*len(data.Lon))
		for la := range data.Lat {
			for lo := range data.Lon {
				v := cellMean(data, ti, la, lo) * metresToMillimetres
				if v > maxVal {
					maxVal = v
				}
				cells[ti] = append(cells[ti], opts.HeatMapData{Value: [3]interface{}{lo, la, v}})
			}
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	for ti, t := range data.Time {
		hm := charts.NewHeatMap()
		hm.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px"}),
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("Total precipitation (mm), valid %s", t.Format("2006-01-02 15:04 UTC")),
				Subtitle: fmt.Sprintf("forecast base date %s", forecastDate),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Longitude", Data: lonLabels}),
			charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Latitude", Data: latLabels}),
			charts.WithVisualMapOpts(opts.VisualMap{
				Show:       opts.Bool(true),
				Calculable: opts.Bool(true),
				Min:        0,
				Max:        float32(maxVal),
				InRange:    &opts.VisualMapInRange{Color: heatmapColors},
			}),
		)
		hm.AddSeries("precipitation", cells[ti])
		page.AddCharts(hm)
	}

	name := fmt.Sprintf("forecast_precipitation_map_%s.html", dateSlug(forecastDate))
	path := filepath.Join(r.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create heatmap page: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("render heatmap page: %w", err)
	}

	r.logger.Debug("rendered precipitation map", "path", path, "steps", len(data.Time))
	return path, nil
}

// cellMean returns the precipitation at one grid cell and time step,
// averaged over ensemble members when a member axis is present.
func cellMean(data domain.GridData, ti, la, lo int) float64 {
	arr := data.Precip
	idx := make([]int, len(arr.Dims))
	idx[arr.AxisIndex(domain.DimTime)] = ti
	idx[arr.AxisIndex(data.LatDim)] = la
	idx[arr.AxisIndex(data.LonDim)] = lo

	if !data.HasMembers() {
		return arr.At(idx...)
	}

	memberAxis := arr.AxisIndex(domain.DimMember)
	vals := make([]float64, len(data.Members))
	for mi := range data.Members {
		idx[memberAxis] = mi
		vals[mi] = arr.At(idx...)
	}
	return stat.Mean(vals, nil)
}

package domain

import "time"

// ForecastStep is one forecast valid time with its ensemble statistics.
type ForecastStep struct {
	ValidTime time.Time `json:"valid_time"`
	Mean      float64   `json:"mean"`
	Std       float64   `json:"std"`
}

// ForecastSummary is the serialized form of a point extraction destined for
// downstream consumers: the target location, the forecast base date, and the
// mean/std precipitation series over the forecast steps.
type ForecastSummary struct {
	Location     LocationPoint  `json:"location"`
	ForecastDate string         `json:"forecast_date"`
	Members      int            `json:"members"`
	Steps        []ForecastStep `json:"steps"`
	ProcessedAt  time.Time      `json:"processed_at"`
}

// BuildSummary flattens a forecast bundle into a publishable summary. The
// bundle's mean and std grids must carry the precipitation variable over the
// time axis, which holds for every bundle produced by ExtractLocation.
func BuildSummary(bundle ForecastBundle, loc LocationPoint, forecastDate string) (ForecastSummary, error) {
	mean, ok := bundle.Mean.Vars[VarPrecipitation]
	if !ok {
		return ForecastSummary{}, schemaErrorf("bundle mean is missing %q", VarPrecipitation)
	}
	std, ok := bundle.Std.Vars[VarPrecipitation]
	if !ok {
		return ForecastSummary{}, schemaErrorf("bundle std is missing %q", VarPrecipitation)
	}
	if len(mean.Data) != len(bundle.Mean.Time) || len(std.Data) != len(bundle.Std.Time) {
		return ForecastSummary{}, schemaErrorf("bundle series length does not match its time axis")
	}

	steps := make([]ForecastStep, len(mean.Data))
	for i := range steps {
		steps[i] = ForecastStep{
			ValidTime: bundle.Mean.Time[i],
			Mean:      mean.Data[i],
			Std:       std.Data[i],
		}
	}

	return ForecastSummary{
		Location:     loc,
		ForecastDate: forecastDate,
		Members:      len(bundle.Ensemble.Members),
		Steps:        steps,
		ProcessedAt:  clock.Now(),
	}, nil
}

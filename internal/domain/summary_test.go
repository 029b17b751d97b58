package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummary(t *testing.T) {
	frozen := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	g := testGrid(DimLatitude, DimLongitude,
		[]float64{0, 1}, []float64{0, 1},
		[]int{0, 1, 2}, dailyTimes(start, 2),
		func(ti, m, la, lo int) float64 { return float64(ti*10 + m) })

	bundle, err := ExtractLocation(g, 0.5, 0.5)
	require.NoError(t, err)

	loc := LocationPoint{Lat: 0.5, Lon: 0.5}
	summary, err := BuildSummary(bundle, loc, "2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, loc, summary.Location)
	assert.Equal(t, "2024-05-01", summary.ForecastDate)
	assert.Equal(t, 3, summary.Members)
	assert.Equal(t, frozen, summary.ProcessedAt)

	require.Len(t, summary.Steps, 2)
	assert.Equal(t, start, summary.Steps[0].ValidTime)
	assert.Equal(t, start.AddDate(0, 0, 1), summary.Steps[1].ValidTime)
	// Members are ti*10 + {0,1,2}: mean ti*10+1, population std of {0,1,2}.
	assert.InDelta(t, 1.0, summary.Steps[0].Mean, tol)
	assert.InDelta(t, 11.0, summary.Steps[1].Mean, tol)
	assert.InDelta(t, 0.816496580927726, summary.Steps[0].Std, 1e-9)
}

func TestBuildSummary_MissingPrecipitation(t *testing.T) {
	bundle := ForecastBundle{
		Ensemble: &Grid{},
		Mean:     &Grid{Vars: map[string]*DataArray{}},
		Std:      &Grid{Vars: map[string]*DataArray{}},
	}

	_, err := BuildSummary(bundle, LocationPoint{}, "2024-05-01")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

package netcdf

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenNumeric(t *testing.T) {
	t.Run("1-D float64", func(t *testing.T) {
		data, shape, err := flattenNumeric([]float64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, data)
		assert.Equal(t, []int{3}, shape)
	})

	t.Run("2-D float32", func(t *testing.T) {
		data, shape, err := flattenNumeric([][]float32{{1, 2}, {3, 4}, {5, 6}})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, data)
		assert.Equal(t, []int{3, 2}, shape)
	})

	t.Run("3-D int16", func(t *testing.T) {
		data, shape, err := flattenNumeric([][][]int16{
			{{1, 2}, {3, 4}},
			{{5, 6}, {7, 8}},
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, data)
		assert.Equal(t, []int{2, 2, 2}, shape)
	})

	t.Run("scalar", func(t *testing.T) {
		data, shape, err := flattenNumeric(float64(7))
		require.NoError(t, err)
		assert.Equal(t, []float64{7}, data)
		assert.Empty(t, shape)
	})

	t.Run("ragged", func(t *testing.T) {
		_, _, err := flattenNumeric([][]float64{{1, 2}, {3}})
		require.Error(t, err)
	})

	t.Run("non-numeric", func(t *testing.T) {
		_, _, err := flattenNumeric([]string{"a"})
		require.Error(t, err)
	})
}

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		name     string
		units    string
		wantBase time.Time
		wantStep time.Duration
		wantErr  bool
	}{
		{
			name:     "ecmwf hours",
			units:    "hours since 1900-01-01 00:00:00.0",
			wantBase: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
			wantStep: time.Hour,
		},
		{
			name:     "days date only",
			units:    "days since 2024-05-01",
			wantBase: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			wantStep: 24 * time.Hour,
		},
		{
			name:     "seconds",
			units:    "seconds since 1970-01-01 00:00:00",
			wantBase: time.Unix(0, 0).UTC(),
			wantStep: time.Second,
		},
		{name: "unsupported unit", units: "fortnights since 1900-01-01", wantErr: true},
		{name: "no since", units: "hours", wantErr: true},
		{name: "bad epoch", units: "hours since yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, step, err := parseTimeUnits(tt.units)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantBase.Equal(base), "base %v", base)
			assert.Equal(t, tt.wantStep, step)
		})
	}
}

func TestDecodeTimes(t *testing.T) {
	t.Run("six-hourly steps", func(t *testing.T) {
		times, err := decodeTimes([]float64{0, 6, 12}, "hours since 2024-05-13 00:00:00")
		require.NoError(t, err)
		require.Len(t, times, 3)
		assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), times[0])
		assert.Equal(t, time.Date(2024, 5, 13, 6, 0, 0, 0, time.UTC), times[1])
		assert.Equal(t, time.Date(2024, 5, 13, 12, 0, 0, 0, time.UTC), times[2])
	})

	t.Run("rejects NaN entries", func(t *testing.T) {
		_, err := decodeTimes([]float64{0, 6, math.NaN()}, "hours since 2024-05-13 00:00:00")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid time value")
	})

	t.Run("rejects decreasing axis", func(t *testing.T) {
		_, err := decodeTimes([]float64{12, 6}, "hours since 2024-05-13 00:00:00")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-decreasing")
	})
}

func TestBuildGrid(t *testing.T) {
	perturbed := map[string]rawVar{
		"time": {
			dims:  []string{"time"},
			shape: []int{2},
			data:  []float64{0, 6},
			units: "hours since 2024-05-13 00:00:00",
		},
		"number": {
			dims:  []string{"number"},
			shape: []int{3},
			data:  []float64{1, 2, 3},
		},
		"latitude": {
			dims:  []string{"latitude"},
			shape: []int{2},
			data:  []float64{48, 47},
		},
		"longitude": {
			dims:  []string{"longitude"},
			shape: []int{2},
			data:  []float64{7, 8},
		},
		"tp": {
			dims:  []string{"time", "number", "latitude", "longitude"},
			shape: []int{2, 3, 2, 2},
			data:  make([]float64, 24),
		},
	}

	t.Run("perturbed archive", func(t *testing.T) {
		grid, err := buildGrid(perturbed)
		require.NoError(t, err)

		require.Len(t, grid.Time, 2)
		assert.Equal(t, time.Date(2024, 5, 13, 6, 0, 0, 0, time.UTC), grid.Time[1])
		assert.Equal(t, []int{1, 2, 3}, grid.Members)
		assert.Equal(t, []float64{48, 47}, grid.Coords["latitude"])
		assert.Equal(t, []float64{7, 8}, grid.Coords["longitude"])

		// Assembled grids satisfy the shaping core's schema.
		data, err := domain.ReadGrid(grid)
		require.NoError(t, err)
		assert.True(t, data.HasMembers())
	})

	t.Run("control archive has no member axis", func(t *testing.T) {
		control := map[string]rawVar{
			"time":      perturbed["time"],
			"latitude":  perturbed["latitude"],
			"longitude": perturbed["longitude"],
			"tp": {
				dims:  []string{"time", "latitude", "longitude"},
				shape: []int{2, 2, 2},
				data:  make([]float64, 8),
			},
		}

		grid, err := buildGrid(control)
		require.NoError(t, err)
		assert.Nil(t, grid.Members)
		assert.False(t, grid.HasMembers())
	})

	t.Run("short naming convention preserved", func(t *testing.T) {
		short := map[string]rawVar{
			"time": perturbed["time"],
			"lat":  {dims: []string{"lat"}, shape: []int{2}, data: []float64{0, 1}},
			"lon":  {dims: []string{"lon"}, shape: []int{2}, data: []float64{0, 1}},
			"tp": {
				dims:  []string{"time", "lat", "lon"},
				shape: []int{2, 2, 2},
				data:  make([]float64, 8),
			},
		}

		grid, err := buildGrid(short)
		require.NoError(t, err)

		data, err := domain.ReadGrid(grid)
		require.NoError(t, err)
		assert.Equal(t, "lat", data.LatDim)
		assert.Equal(t, "lon", data.LonDim)
	})

	t.Run("bad time units reject the archive", func(t *testing.T) {
		bad := map[string]rawVar{
			"time": {dims: []string{"time"}, shape: []int{1}, data: []float64{0}, units: "stardates"},
			"tp":   {dims: []string{"time"}, shape: []int{1}, data: []float64{0}},
		}
		_, err := buildGrid(bad)
		require.Error(t, err)
	})
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGrid(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("with member axis", func(t *testing.T) {
		g := testGrid(DimLatitude, DimLongitude,
			[]float64{0, 1}, []float64{10, 11},
			[]int{1, 2, 3}, dailyTimes(start, 2),
			func(ti, m, la, lo int) float64 { return 0 })

		data, err := ReadGrid(g)
		require.NoError(t, err)

		assert.Equal(t, []float64{0, 1}, data.Lat)
		assert.Equal(t, []float64{10, 11}, data.Lon)
		assert.Equal(t, DimLatitude, data.LatDim)
		assert.Equal(t, DimLongitude, data.LonDim)
		assert.Equal(t, g.Time, data.Time)
		assert.True(t, data.HasMembers())
		assert.Equal(t, []int{1, 2, 3}, data.Members)
		assert.Same(t, g.Vars[VarPrecipitation], data.Precip)
	})

	t.Run("without member axis", func(t *testing.T) {
		g := testGrid(DimLatShort, DimLonShort,
			[]float64{0, 1}, []float64{10, 11},
			nil, dailyTimes(start, 2),
			func(ti, m, la, lo int) float64 { return 0 })

		data, err := ReadGrid(g)
		require.NoError(t, err)

		assert.Equal(t, DimLatShort, data.LatDim)
		assert.Equal(t, DimLonShort, data.LonDim)
		assert.False(t, data.HasMembers())
		assert.Nil(t, data.Members)
	})

	t.Run("long convention wins when both present", func(t *testing.T) {
		g := testGrid(DimLatitude, DimLongitude,
			[]float64{0, 1}, []float64{10, 11},
			nil, dailyTimes(start, 1),
			func(ti, m, la, lo int) float64 { return 0 })
		g.Coords[DimLatShort] = []float64{5}
		g.Coords[DimLonShort] = []float64{5}

		data, err := ReadGrid(g)
		require.NoError(t, err)
		assert.Equal(t, DimLatitude, data.LatDim)
	})

	t.Run("nil grid", func(t *testing.T) {
		_, err := ReadGrid(nil)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("nil precipitation variable", func(t *testing.T) {
		g := testGrid(DimLatitude, DimLongitude,
			[]float64{0, 1}, []float64{10, 11},
			nil, dailyTimes(start, 1),
			func(ti, m, la, lo int) float64 { return 0 })
		g.Vars[VarPrecipitation] = nil

		_, err := ReadGrid(g)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Contains(t, schemaErr.Msg, VarPrecipitation)
	})
}

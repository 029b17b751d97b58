package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestStore_PathFor(t *testing.T) {
	s := NewStore("/data")

	path, err := s.PathFor(domain.PerturbedForecast, "2024-05-13")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "enfo_pf_2024_05_13.nc"), path)

	path, err = s.PathFor(domain.ControlForecast, "2024-05-13")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "enfo_cf_2024_05_13.nc"), path)

	_, err = s.PathFor(domain.PerturbedForecast, "20240513")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestStore_Exists(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	assert.False(t, s.Exists(domain.PerturbedForecast, "2024-05-13"))
	touch(t, dir, "enfo_pf_2024_05_13.nc")
	assert.True(t, s.Exists(domain.PerturbedForecast, "2024-05-13"))
	assert.False(t, s.Exists(domain.ControlForecast, "2024-05-13"))
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	touch(t, dir, "enfo_pf_2024_05_13.nc")
	touch(t, dir, "enfo_pf_2024_05_14.nc")
	touch(t, dir, "enfo_cf_2024_05_13.nc")
	touch(t, dir, "enfo_pf_2024_05_13.grib") // wrong extension
	touch(t, dir, "notes.txt")

	t.Run("perturbed netcdf", func(t *testing.T) {
		files, err := s.List("nc", domain.PerturbedForecast)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "enfo_pf_2024_05_13.nc"),
			filepath.Join(dir, "enfo_pf_2024_05_14.nc"),
		}, files)
	})

	t.Run("control netcdf", func(t *testing.T) {
		files, err := s.List(".nc", domain.ControlForecast)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "enfo_cf_2024_05_13.nc")}, files)
	})

	t.Run("no matches", func(t *testing.T) {
		files, err := s.List(".zarr", domain.PerturbedForecast)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewStore(filepath.Join(dir, "nope")).List(".nc", domain.PerturbedForecast)
		require.Error(t, err)
	})
}

func TestDateRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		dates, err := DateRange("2024-05-13", "2024-05-19")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"2024-05-13", "2024-05-14", "2024-05-15", "2024-05-16",
			"2024-05-17", "2024-05-18", "2024-05-19",
		}, dates)
	})

	t.Run("single day", func(t *testing.T) {
		dates, err := DateRange("2024-05-13", "2024-05-13")
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-05-13"}, dates)
	})

	t.Run("crosses month boundary", func(t *testing.T) {
		dates, err := DateRange("2024-04-29", "2024-05-02")
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-04-29", "2024-04-30", "2024-05-01", "2024-05-02"}, dates)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := DateRange("2024-05-19", "2024-05-13")
		require.Error(t, err)
		assert.Equal(t, "end date cannot be before start date", err.Error())
	})

	t.Run("invalid start", func(t *testing.T) {
		_, err := DateRange("20240513", "2024-05-19")
		require.Error(t, err)
		assert.Equal(t, "invalid date format. Please use 'YYYY-MM-DD'", err.Error())
	})

	t.Run("invalid end", func(t *testing.T) {
		_, err := DateRange("2024-05-13", "2024-0519")
		require.Error(t, err)
		assert.Equal(t, "invalid date format. Please use 'YYYY-MM-DD'", err.Error())
	})
}

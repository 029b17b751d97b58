package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FORECAST_START_DATE", "2024-05-13")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "2024-05-13", cfg.StartDate)
	assert.Equal(t, "2024-05-13", cfg.EndDate, "end date defaults to start date")
	assert.False(t, cfg.HasRegion)
	assert.Equal(t, []domain.LocationPoint{{Lat: 47.9959, Lon: 7.8522}}, cfg.Locations)
	assert.False(t, cfg.FetchControl)
	assert.Empty(t, cfg.ECMWFKey)
	assert.Equal(t, 5*time.Minute, cfg.ECMWFTimeout)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "forecast-summaries", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/forecasts")
	t.Setenv("OUTPUT_DIR", "/var/plots")
	t.Setenv("FORECAST_START_DATE", "2024-05-13")
	t.Setenv("FORECAST_END_DATE", "2024-05-19")
	t.Setenv("REGION", "55,45,5,15")
	t.Setenv("LOCATIONS", "47.9959,7.8522; 48.1351,11.5820")
	t.Setenv("FETCH_CONTROL", "true")
	t.Setenv("ECMWF_KEY", "secret")
	t.Setenv("ECMWF_TIMEOUT", "90s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/forecasts", cfg.DataDir)
	assert.Equal(t, "/var/plots", cfg.OutputDir)
	assert.Equal(t, "2024-05-19", cfg.EndDate)
	assert.True(t, cfg.HasRegion)
	// Region bounds are sorted per axis regardless of input order.
	assert.Equal(t, domain.RegionWindow{LatMin: 45, LatMax: 55, LonMin: 5, LonMax: 15}, cfg.Region)
	assert.Equal(t, []domain.LocationPoint{
		{Lat: 47.9959, Lon: 7.8522},
		{Lat: 48.1351, Lon: 11.5820},
	}, cfg.Locations)
	assert.True(t, cfg.FetchControl)
	assert.Equal(t, "secret", cfg.ECMWFKey)
	assert.Equal(t, 90*time.Second, cfg.ECMWFTimeout)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingStartDate(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORECAST_START_DATE")
}

func TestLoad_InvalidRegion(t *testing.T) {
	setRequired(t)

	t.Run("wrong arity", func(t *testing.T) {
		t.Setenv("REGION", "45,55,5")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REGION")
	})

	t.Run("non-numeric", func(t *testing.T) {
		t.Setenv("REGION", "45,55,5,east")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REGION")
	})
}

func TestLoad_InvalidLocations(t *testing.T) {
	setRequired(t)

	t.Run("missing longitude", func(t *testing.T) {
		t.Setenv("LOCATIONS", "47.9959")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LOCATIONS")
	})

	t.Run("non-numeric", func(t *testing.T) {
		t.Setenv("LOCATIONS", "here,there")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LOCATIONS")
	})
}

func TestLoad_InvalidECMWFTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("ECMWF_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ECMWF_TIMEOUT")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir   string
	OutputDir string

	// Forecast base dates to process, inclusive.
	StartDate string
	EndDate   string

	// Region is the optional subset window applied before extraction.
	Region    domain.RegionWindow
	HasRegion bool

	// Locations are the extraction targets.
	Locations []domain.LocationPoint

	// FetchControl also downloads the control forecast archive per date.
	FetchControl bool

	// ECMWF archive client configuration.
	ECMWFKey     string
	ECMWFTimeout time.Duration

	// Kafka publishing is enabled when brokers are configured.
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// KafkaEnabled reports whether summaries should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults
// where unset. The forecast date range is required; everything else has a
// workable default.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	ecmwfTimeoutStr := sharedcfg.EnvOrDefault("ECMWF_TIMEOUT", "5m")
	ecmwfTimeout, err := time.ParseDuration(ecmwfTimeoutStr)
	if err != nil || ecmwfTimeout <= 0 {
		return nil, errors.New("invalid ECMWF_TIMEOUT")
	}

	locations, err := parseLocations(sharedcfg.EnvOrDefault("LOCATIONS", "47.9959,7.8522"))
	if err != nil {
		return nil, err
	}

	region, hasRegion, err := parseRegion(os.Getenv("REGION"))
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataDir:   sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		OutputDir: sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),

		StartDate: os.Getenv("FORECAST_START_DATE"),
		EndDate:   os.Getenv("FORECAST_END_DATE"),

		Region:    region,
		HasRegion: hasRegion,
		Locations: locations,

		FetchControl: os.Getenv("FETCH_CONTROL") == "true",

		ECMWFKey:     os.Getenv("ECMWF_KEY"),
		ECMWFTimeout: ecmwfTimeout,

		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "forecast-summaries"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.StartDate == "" {
		return nil, errors.New("FORECAST_START_DATE is required")
	}
	if cfg.EndDate == "" {
		cfg.EndDate = cfg.StartDate
	}
	if len(cfg.Locations) == 0 {
		return nil, errors.New("LOCATIONS is required")
	}

	return cfg, nil
}

// parseLocations parses "lat,lon;lat,lon;..." into location points.
func parseLocations(s string) ([]domain.LocationPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var points []domain.LocationPoint
	for _, pair := range strings.Split(s, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q, want \"lat,lon\"", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCATIONS latitude %q", parts[0])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCATIONS longitude %q", parts[1])
		}
		points = append(points, domain.LocationPoint{Lat: lat, Lon: lon})
	}
	return points, nil
}

// parseRegion parses "latMin,latMax,lonMin,lonMax". Empty input disables
// region subsetting. Bounds may be given in either order per axis.
func parseRegion(s string) (domain.RegionWindow, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.RegionWindow{}, false, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.RegionWindow{}, false, errors.New("invalid REGION, want \"latMin,latMax,lonMin,lonMax\"")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.RegionWindow{}, false, fmt.Errorf("invalid REGION value %q", p)
		}
		vals[i] = v
	}
	return domain.NewRegionWindow(vals[0], vals[1], vals[2], vals[3]), true, nil
}

// Package netcdf decodes downloaded forecast archives into domain grids.
package netcdf

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// Loader reads netCDF archives from disk and assembles domain.Grid values.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// rawVar is one decoded netCDF variable before grid assembly: flattened
// row-major data with its dimension names and the attributes that matter for
// decoding (packing and time units).
type rawVar struct {
	dims  []string
	shape []int
	data  []float64
	units string
}

// Load opens an archive and decodes it into a Grid. Variables are unpacked
// (scale_factor/add_offset applied) and the time axis is converted to
// timestamps; archives with unparseable time entries are rejected here so
// the shaping core never sees them.
func (l *Loader) Load(path string) (*domain.Grid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer nc.Close()

	vars, err := readVariables(nc)
	if err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", path, err)
	}

	grid, err := buildGrid(vars)
	if err != nil {
		return nil, fmt.Errorf("assemble grid from %s: %w", path, err)
	}

	l.logger.Debug("archive loaded",
		"path", path,
		"times", len(grid.Time),
		"members", len(grid.Members),
		"variables", len(grid.Vars),
	)
	return grid, nil
}

// readVariables flattens every variable in the file.
func readVariables(nc api.Group) (map[string]rawVar, error) {
	out := make(map[string]rawVar)
	for _, name := range nc.ListVariables() {
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("read variable %q: %w", name, err)
		}

		data, shape, err := flattenNumeric(v.Values)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}

		rv := rawVar{
			dims:  v.Dimensions,
			shape: shape,
			data:  data,
		}
		if v.Attributes != nil {
			if u, ok := v.Attributes.Get("units"); ok {
				if s, ok := u.(string); ok {
					rv.units = s
				}
			}
			applyPacking(v.Attributes, rv.data)
		}
		out[name] = rv
	}
	return out, nil
}

// applyPacking undoes the short-integer packing ECMWF archives commonly use.
func applyPacking(attrs api.AttributeMap, data []float64) {
	scale, hasScale := attrFloat(attrs, "scale_factor")
	offset, hasOffset := attrFloat(attrs, "add_offset")
	if !hasScale && !hasOffset {
		return
	}
	if !hasScale {
		scale = 1
	}
	for i := range data {
		data[i] = data[i]*scale + offset
	}
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return float64(rv.Int()), true
	default:
		return 0, false
	}
}

// buildGrid assembles a Grid from decoded variables. Coordinate variables
// follow the CF convention: a one-dimensional variable whose only dimension
// is its own name. The time and number axes are pulled out specially; the
// remaining coordinates (the spatial axes, under whichever naming the
// archive uses) land in Coords, and everything else becomes a data variable.
func buildGrid(vars map[string]rawVar) (*domain.Grid, error) {
	grid := &domain.Grid{
		Coords: make(map[string][]float64),
		Vars:   make(map[string]*domain.DataArray),
	}

	for name, v := range vars {
		if !isCoordinate(name, v) {
			continue
		}
		switch name {
		case domain.DimTime:
			times, err := decodeTimes(v.data, v.units)
			if err != nil {
				return nil, fmt.Errorf("time axis: %w", err)
			}
			grid.Time = times
		case domain.DimMember:
			members := make([]int, len(v.data))
			for i, f := range v.data {
				members[i] = int(f)
			}
			grid.Members = members
		default:
			grid.Coords[name] = v.data
		}
	}

	for name, v := range vars {
		if isCoordinate(name, v) {
			continue
		}
		arr, err := domain.NewDataArray(v.dims, v.shape, v.data)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		grid.Vars[name] = arr
	}

	return grid, nil
}

func isCoordinate(name string, v rawVar) bool {
	return len(v.dims) == 1 && v.dims[0] == name
}

// decodeTimes converts numeric time values to timestamps using CF-style
// units ("<unit> since <epoch>"). Non-finite values and a non-decreasing
// order violation both reject the archive.
func decodeTimes(values []float64, units string) ([]time.Time, error) {
	base, step, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid time value at index %d", i)
		}
		times[i] = base.Add(time.Duration(v * float64(step)))
		if i > 0 && times[i].Before(times[i-1]) {
			return nil, fmt.Errorf("time axis is not non-decreasing at index %d", i)
		}
	}
	return times, nil
}

// parseTimeUnits parses CF time units such as
// "hours since 1900-01-01 00:00:00.0" into an epoch and a step duration.
func parseTimeUnits(units string) (time.Time, time.Duration, error) {
	fields := strings.SplitN(units, " since ", 2)
	if len(fields) != 2 {
		return time.Time{}, 0, fmt.Errorf("unsupported time units %q", units)
	}

	var step time.Duration
	switch strings.TrimSpace(fields[0]) {
	case "seconds":
		step = time.Second
	case "minutes":
		step = time.Minute
	case "hours":
		step = time.Hour
	case "days":
		step = 24 * time.Hour
	default:
		return time.Time{}, 0, fmt.Errorf("unsupported time units %q", units)
	}

	epoch := strings.TrimSpace(fields[1])
	for _, layout := range []string{
		"2006-01-02 15:04:05.0",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if base, err := time.Parse(layout, epoch); err == nil {
			return base.UTC(), step, nil
		}
	}
	return time.Time{}, 0, fmt.Errorf("unsupported time epoch %q", epoch)
}

// flattenNumeric converts an arbitrarily nested numeric slice (how the
// netCDF reader surfaces multi-dimensional values) into row-major float64
// data plus its shape. Ragged nesting is an error.
func flattenNumeric(v any) ([]float64, []int, error) {
	rv := reflect.ValueOf(v)

	var shape []int
	probe := rv
	for probe.Kind() == reflect.Slice {
		shape = append(shape, probe.Len())
		if probe.Len() == 0 {
			break
		}
		probe = probe.Index(0)
	}
	if len(shape) == 0 {
		f, err := numericValue(rv)
		if err != nil {
			return nil, nil, err
		}
		return []float64{f}, []int{}, nil
	}

	total := 1
	for _, s := range shape {
		total *= s
	}
	data := make([]float64, 0, total)

	var walk func(val reflect.Value, depth int) error
	walk = func(val reflect.Value, depth int) error {
		if depth == len(shape) {
			f, err := numericValue(val)
			if err != nil {
				return err
			}
			data = append(data, f)
			return nil
		}
		if val.Kind() != reflect.Slice || val.Len() != shape[depth] {
			return fmt.Errorf("ragged or mistyped value at depth %d", depth)
		}
		for i := 0; i < val.Len(); i++ {
			if err := walk(val.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, nil, err
	}
	return data, shape, nil
}

func numericValue(rv reflect.Value) (float64, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return float64(rv.Int()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return float64(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("unsupported value type %s", rv.Kind())
	}
}

package domain

import (
	"fmt"
	"time"
)

// Axis and variable names used by the ECMWF S2S archives. Spatial axes appear
// under one of two naming conventions depending on the producing tool chain;
// both are accepted where noted.
const (
	DimTime   = "time"
	DimMember = "number"

	DimLatitude  = "latitude"
	DimLongitude = "longitude"
	DimLatShort  = "lat"
	DimLonShort  = "lon"

	// VarPrecipitation is the total precipitation variable (ECMWF param 228228).
	VarPrecipitation = "tp"
)

// DataArray is a dense multi-dimensional variable stored row-major. Dims
// names the axes in storage order; Shape holds the corresponding lengths.
type DataArray struct {
	Dims  []string
	Shape []int
	Data  []float64
}

// NewDataArray builds a DataArray after checking that the data length matches
// the product of the shape.
func NewDataArray(dims []string, shape []int, data []float64) (*DataArray, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("dims/shape mismatch: %d dims, %d lengths", len(dims), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("negative axis length %d", s)
		}
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v implies %d values, got %d", shape, n, len(data))
	}
	return &DataArray{Dims: dims, Shape: shape, Data: data}, nil
}

// MustDataArray is NewDataArray for statically known-good literals (tests,
// fixtures). It panics on mismatch.
func MustDataArray(dims []string, shape []int, data []float64) *DataArray {
	a, err := NewDataArray(dims, shape, data)
	if err != nil {
		panic(err)
	}
	return a
}

// AxisIndex returns the position of dim in the array's storage order, or -1.
func (a *DataArray) AxisIndex(dim string) int {
	for i, d := range a.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// HasDim reports whether the array is defined over the named axis.
func (a *DataArray) HasDim(dim string) bool {
	return a.AxisIndex(dim) >= 0
}

// At reads the value at the given per-axis indices.
func (a *DataArray) At(idx ...int) float64 {
	return a.Data[a.offset(idx)]
}

func (a *DataArray) offset(idx []int) int {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("index rank %d does not match array rank %d", len(idx), len(a.Shape)))
	}
	off := 0
	for i, ix := range idx {
		if ix < 0 || ix >= a.Shape[i] {
			panic(fmt.Sprintf("index %d out of range for axis %q of length %d", ix, a.Dims[i], a.Shape[i]))
		}
		off = off*a.Shape[i] + ix
	}
	return off
}

// strides returns the row-major stride for each axis.
func (a *DataArray) strides() []int {
	st := make([]int, len(a.Shape))
	acc := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= a.Shape[i]
	}
	return st
}

func (a *DataArray) clone() *DataArray {
	return &DataArray{
		Dims:  append([]string(nil), a.Dims...),
		Shape: append([]int(nil), a.Shape...),
		Data:  append([]float64(nil), a.Data...),
	}
}

// take selects the given indices along one axis, producing a new array. The
// receiver is not modified. Arrays that do not carry the axis are cloned
// unchanged. Indices may be empty, yielding an empty selection.
func (a *DataArray) take(dim string, indices []int) *DataArray {
	ax := a.AxisIndex(dim)
	if ax < 0 {
		return a.clone()
	}

	outShape := append([]int(nil), a.Shape...)
	outShape[ax] = len(indices)
	outLen := 1
	for _, s := range outShape {
		outLen *= s
	}

	out := &DataArray{
		Dims:  append([]string(nil), a.Dims...),
		Shape: outShape,
		Data:  make([]float64, outLen),
	}
	if outLen == 0 {
		return out
	}

	inStrides := a.strides()
	outStrides := out.strides()

	// outer iterates over every combination of indices on the other axes.
	outer := 1
	for i, s := range a.Shape {
		if i != ax {
			outer *= s
		}
	}

	idx := make([]int, len(a.Shape))
	for o := 0; o < outer; o++ {
		inBase, outBase := 0, 0
		for i := range idx {
			if i == ax {
				continue
			}
			inBase += idx[i] * inStrides[i]
			outBase += idx[i] * outStrides[i]
		}
		for j, src := range indices {
			out.Data[outBase+j*outStrides[ax]] = a.Data[inBase+src*inStrides[ax]]
		}
		// Advance the odometer over the non-selected axes.
		for i := len(idx) - 1; i >= 0; i-- {
			if i == ax {
				continue
			}
			idx[i]++
			if idx[i] < a.Shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

// Grid is a labeled multi-dimensional dataset: a time axis, a pair of spatial
// axes under either naming convention, an optional ensemble-member axis, and
// one or more data variables. Grids are treated as immutable: every operation
// returns a new derived Grid and never writes through its input.
type Grid struct {
	Time    []time.Time
	Coords  map[string][]float64
	Members []int
	Vars    map[string]*DataArray
}

// HasMembers reports whether the grid carries an ensemble-member axis.
func (g *Grid) HasMembers() bool {
	return g.Members != nil
}

// spatialDims resolves the grid's spatial-axis naming convention, checking
// for latitude/longitude before lat/lon. Exactly one convention must be
// present; otherwise the grid is out of schema.
func (g *Grid) spatialDims() (latDim, lonDim string, err error) {
	if _, ok := g.Coords[DimLatitude]; ok {
		if _, ok := g.Coords[DimLongitude]; ok {
			return DimLatitude, DimLongitude, nil
		}
	}
	if _, ok := g.Coords[DimLatShort]; ok {
		if _, ok := g.Coords[DimLonShort]; ok {
			return DimLatShort, DimLonShort, nil
		}
	}
	return "", "", schemaErrorf("latitude or longitude dimensions not found in the dataset")
}

// RegionWindow is a rectangular latitude/longitude selection. Construct with
// NewRegionWindow so the per-axis bounds are ordered.
type RegionWindow struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// NewRegionWindow builds a window from bounds in either order: each axis pair
// is sorted so that min <= max.
func NewRegionWindow(latA, latB, lonA, lonB float64) RegionWindow {
	if latA > latB {
		latA, latB = latB, latA
	}
	if lonA > lonB {
		lonA, lonB = lonB, lonA
	}
	return RegionWindow{LatMin: latA, LatMax: latB, LonMin: lonA, LonMax: lonB}
}

// Contains reports whether the point lies inside the window, inclusive on
// all four bounds.
func (w RegionWindow) Contains(lat, lon float64) bool {
	return lat >= w.LatMin && lat <= w.LatMax && lon >= w.LonMin && lon <= w.LonMax
}

// LocationPoint is an interpolation target. It need not coincide with any
// grid coordinate.
type LocationPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p LocationPoint) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lon)
}

// ForecastBundle is the result of a point extraction: the full ensemble at
// the target location plus its per-time-step mean and population standard
// deviation. Each extraction builds a fresh bundle; nothing is cached or
// shared.
type ForecastBundle struct {
	Ensemble *Grid // time x member
	Mean     *Grid // time only
	Std      *Grid // time only
}

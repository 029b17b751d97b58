package domain

import "time"

// GridData is the normalized view of a well-formed grid: total precipitation,
// the spatial coordinate vectors with the dimension names they were found
// under, the time axis, and the ensemble-member identifiers when present.
// Members is nil for member-less grids; callers branch on HasMembers rather
// than on return arity.
type GridData struct {
	Precip *DataArray
	Lat    []float64
	Lon    []float64
	LatDim string
	LonDim string
	Time   []time.Time

	Members []int
}

// HasMembers reports whether the source grid carried an ensemble-member axis.
func (d GridData) HasMembers() bool {
	return d.Members != nil
}

// ReadGrid validates a grid and returns its normalized view. Both spatial
// naming conventions are accepted; latitude/longitude is checked first. A
// missing or empty precipitation variable, spatial axis, or time axis is a
// schema violation and nothing is computed.
func ReadGrid(g *Grid) (GridData, error) {
	if g == nil {
		return GridData{}, schemaErrorf("dataset is nil")
	}

	latDim, lonDim, err := g.spatialDims()
	if err != nil {
		return GridData{}, err
	}

	tp, ok := g.Vars[VarPrecipitation]
	if !ok || tp == nil {
		return GridData{}, schemaErrorf("total precipitation variable %q not found in the dataset", VarPrecipitation)
	}
	if len(g.Time) == 0 {
		return GridData{}, schemaErrorf("time axis not found in the dataset")
	}

	return GridData{
		Precip:  tp,
		Lat:     g.Coords[latDim],
		Lon:     g.Coords[lonDim],
		LatDim:  latDim,
		LonDim:  lonDim,
		Time:    g.Time,
		Members: g.Members,
	}, nil
}

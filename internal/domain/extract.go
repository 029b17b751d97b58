package domain

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/stat"
)

var errEmptyAxis = errors.New("axis has no coordinates")

// ExtractLocation interpolates the grid to a single point and reduces the
// ensemble axis, returning the full ensemble series at the point together
// with its per-time-step mean and population standard deviation.
//
// The grid's spatial axes must be named longitude/latitude; the short lat/lon
// convention is not accepted here, matching the archive layout this extractor
// has always been fed. Interpolation is bilinear and extrapolates linearly
// outside the sampled domain — results beyond the grid's coordinate range are
// not clamped and carry no physical guarantee.
//
// A grid without an ensemble-member axis is out of contract: the mean/std
// reduction is undefined for it and a DomainError is returned.
func ExtractLocation(g *Grid, lat, lon float64) (ForecastBundle, error) {
	data, err := ReadGrid(g)
	if err != nil {
		return ForecastBundle{}, err
	}
	if data.LatDim != DimLatitude || data.LonDim != DimLongitude {
		return ForecastBundle{}, schemaErrorf(
			"point extraction requires %s/%s axes, dataset uses %s/%s",
			DimLatitude, DimLongitude, data.LatDim, data.LonDim)
	}
	if !data.HasMembers() {
		return ForecastBundle{}, domainErrorf(
			"ensemble reduction undefined: dataset has no %s axis", DimMember)
	}

	latW, err := bracket(data.Lat, lat)
	if err != nil {
		return ForecastBundle{}, schemaErrorf("latitude axis: %v", err)
	}
	lonW, err := bracket(data.Lon, lon)
	if err != nil {
		return ForecastBundle{}, schemaErrorf("longitude axis: %v", err)
	}

	ensemble := &Grid{
		Time:    append([]time.Time(nil), g.Time...),
		Coords:  map[string][]float64{},
		Members: append([]int(nil), g.Members...),
		Vars:    make(map[string]*DataArray, len(g.Vars)),
	}
	for name, v := range g.Vars {
		if v.HasDim(DimLatitude) && v.HasDim(DimLongitude) {
			ensemble.Vars[name] = interpSpatial(v, latW, lonW)
		} else {
			ensemble.Vars[name] = v.clone()
		}
	}

	mean := reduceMembers(ensemble, func(vals []float64) float64 {
		return stat.Mean(vals, nil)
	})
	std := reduceMembers(ensemble, func(vals []float64) float64 {
		return stat.PopStdDev(vals, nil)
	})

	return ForecastBundle{Ensemble: ensemble, Mean: mean, Std: std}, nil
}

// axisWeight holds a linear interpolation stencil along one axis: the two
// contributing sample indices and the weight of the upper one. Outside the
// axis range the weight leaves [0, 1], which is linear extrapolation.
type axisWeight struct {
	lo, hi int
	w      float64
}

// bracket locates the target on a coordinate axis and returns its stencil.
// Axes may be ascending or descending (ECMWF latitude grids descend).
func bracket(values []float64, target float64) (axisWeight, error) {
	switch len(values) {
	case 0:
		return axisWeight{}, errEmptyAxis
	case 1:
		return axisWeight{lo: 0, hi: 0, w: 0}, nil
	}

	ascending := values[len(values)-1] >= values[0]
	lo := 0
	for i := 0; i < len(values)-1; i++ {
		next := values[i+1]
		if ascending && next < target {
			lo = i + 1
		}
		if !ascending && next > target {
			lo = i + 1
		}
	}
	if lo >= len(values)-1 {
		lo = len(values) - 2
	}
	hi := lo + 1

	span := values[hi] - values[lo]
	if span == 0 {
		return axisWeight{lo: lo, hi: hi, w: 0}, nil
	}
	return axisWeight{lo: lo, hi: hi, w: (target - values[lo]) / span}, nil
}

// interpSpatial collapses the latitude and longitude axes of an array to a
// point using the precomputed per-axis stencils.
func interpSpatial(a *DataArray, latW, lonW axisWeight) *DataArray {
	latAx := a.AxisIndex(DimLatitude)
	lonAx := a.AxisIndex(DimLongitude)

	outDims := make([]string, 0, len(a.Dims)-2)
	outShape := make([]int, 0, len(a.Dims)-2)
	for i, d := range a.Dims {
		if i == latAx || i == lonAx {
			continue
		}
		outDims = append(outDims, d)
		outShape = append(outShape, a.Shape[i])
	}

	outLen := 1
	for _, s := range outShape {
		outLen *= s
	}
	out := &DataArray{Dims: outDims, Shape: outShape, Data: make([]float64, outLen)}

	st := a.strides()
	idx := make([]int, len(outShape))
	for o := 0; o < outLen; o++ {
		base := 0
		k := 0
		for i := range a.Dims {
			if i == latAx || i == lonAx {
				continue
			}
			base += idx[k] * st[i]
			k++
		}

		v00 := a.Data[base+latW.lo*st[latAx]+lonW.lo*st[lonAx]]
		v01 := a.Data[base+latW.lo*st[latAx]+lonW.hi*st[lonAx]]
		v10 := a.Data[base+latW.hi*st[latAx]+lonW.lo*st[lonAx]]
		v11 := a.Data[base+latW.hi*st[latAx]+lonW.hi*st[lonAx]]

		lower := v00 + lonW.w*(v01-v00)
		upper := v10 + lonW.w*(v11-v10)
		out.Data[o] = lower + latW.w*(upper-lower)

		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < outShape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

// reduceMembers collapses the member axis of every member-bearing variable
// with the given statistic, producing a member-less grid. Variables without a
// member axis are carried through unchanged.
func reduceMembers(g *Grid, statFn func([]float64) float64) *Grid {
	out := &Grid{
		Time:   append([]time.Time(nil), g.Time...),
		Coords: make(map[string][]float64, len(g.Coords)),
		Vars:   make(map[string]*DataArray, len(g.Vars)),
	}
	for name, vals := range g.Coords {
		out.Coords[name] = append([]float64(nil), vals...)
	}

	for name, v := range g.Vars {
		if !v.HasDim(DimMember) {
			out.Vars[name] = v.clone()
			continue
		}
		out.Vars[name] = reduceAxis(v, DimMember, statFn)
	}
	return out
}

// reduceAxis collapses one axis of an array with the given statistic.
func reduceAxis(a *DataArray, dim string, statFn func([]float64) float64) *DataArray {
	ax := a.AxisIndex(dim)

	outDims := make([]string, 0, len(a.Dims)-1)
	outShape := make([]int, 0, len(a.Dims)-1)
	for i, d := range a.Dims {
		if i == ax {
			continue
		}
		outDims = append(outDims, d)
		outShape = append(outShape, a.Shape[i])
	}

	outLen := 1
	for _, s := range outShape {
		outLen *= s
	}
	out := &DataArray{Dims: outDims, Shape: outShape, Data: make([]float64, outLen)}

	st := a.strides()
	idx := make([]int, len(outShape))
	vals := make([]float64, a.Shape[ax])
	for o := 0; o < outLen; o++ {
		base := 0
		k := 0
		for i := range a.Dims {
			if i == ax {
				continue
			}
			base += idx[k] * st[i]
			k++
		}
		for m := 0; m < a.Shape[ax]; m++ {
			vals[m] = a.Data[base+m*st[ax]]
		}
		out.Data[o] = statFn(vals)

		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < outShape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

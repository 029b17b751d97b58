package domain

import "time"

// SubsetRegion narrows a grid to the cells whose spatial coordinates fall
// inside the window, inclusive on all four bounds. Only exact coordinate
// membership is tested; no resampling occurs. A window entirely outside the
// grid's coordinate range yields an empty selection along the affected axis,
// which is a valid (if empty) grid rather than an error.
//
// Both spatial naming conventions are accepted. The input grid is never
// modified.
func SubsetRegion(g *Grid, window RegionWindow) (*Grid, error) {
	data, err := ReadGrid(g)
	if err != nil {
		return nil, err
	}

	latIdx := indicesWithin(data.Lat, window.LatMin, window.LatMax)
	lonIdx := indicesWithin(data.Lon, window.LonMin, window.LonMax)

	out := &Grid{
		Time:   append([]time.Time(nil), g.Time...),
		Coords: make(map[string][]float64, len(g.Coords)),
		Vars:   make(map[string]*DataArray, len(g.Vars)),
	}
	if g.Members != nil {
		out.Members = append([]int(nil), g.Members...)
	}

	for name, vals := range g.Coords {
		switch name {
		case data.LatDim:
			out.Coords[name] = valuesAt(vals, latIdx)
		case data.LonDim:
			out.Coords[name] = valuesAt(vals, lonIdx)
		default:
			out.Coords[name] = append([]float64(nil), vals...)
		}
	}

	for name, v := range g.Vars {
		out.Vars[name] = v.take(data.LatDim, latIdx).take(data.LonDim, lonIdx)
	}

	return out, nil
}

// indicesWithin returns the indices of values inside [min, max], inclusive,
// in their original order.
func indicesWithin(values []float64, min, max float64) []int {
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if v >= min && v <= max {
			idx = append(idx, i)
		}
	}
	return idx
}

func valuesAt(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

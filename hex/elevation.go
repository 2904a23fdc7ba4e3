package hex

import "math"

// VoidElevation marks a sample with no data, mirroring the NASADEM
// void marker.
const VoidElevation = math.MinInt16

// Elevation is a reduced summary of one or more elevation samples:
// the terrain-use-case leaf value for Tree and the unit the Reduction
// and CloseEnough compactors combine.
type Elevation struct {
	Min, Max int16
	Sum      int64
	N        int32
}

// NewElevation wraps a single raw sample.
func NewElevation(raw int16) Elevation {
	return Elevation{Min: raw, Max: raw, Sum: int64(raw), N: 1}
}

// Avg returns the mean of the samples folded into e, or 0 if e is
// empty.
func (e Elevation) Avg() int16 {
	if e.N == 0 {
		return 0
	}
	return int16(e.Sum / int64(e.N))
}

// ConcatElevations folds items into a single summary. The empty slice
// yields the zero Elevation.
func ConcatElevations(items []Elevation) Elevation {
	out := Elevation{Min: math.MaxInt16, Max: math.MinInt16}
	for _, it := range items {
		out.Sum += it.Sum
		out.N += it.N
		if it.Min < out.Min {
			out.Min = it.Min
		}
		if it.Max > out.Max {
			out.Max = it.Max
		}
	}
	if len(items) == 0 {
		out.Min, out.Max = 0, 0
	}
	return out
}

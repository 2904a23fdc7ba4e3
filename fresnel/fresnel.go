// Package fresnel computes Fresnel-zone radii along a radio link.
package fresnel

import (
	"math"

	"github.com/novalabsxyz/geoprop/walker"
)

// SpeedOfLightMPS is the speed of light in meters per second.
const SpeedOfLightMPS = 299_792_458

// Series returns the radii of the nth Fresnel zone at n equally
// spaced points along a link of the given length, for a signal at
// freqHz. The first and last radii are always zero.
func Series[T walker.Float](zone int, freqHz, lengthM T, count int) []T {
	out := make([]T, count)
	if count == 0 {
		return out
	}
	if count == 1 {
		out[0] = 0
		return out
	}

	wavelength := T(SpeedOfLightMPS) / freqHz
	last := T(count - 1)
	for i := 0; i < count; i++ {
		d1 := lengthM * T(i) / last
		d2 := lengthM - d1
		radius2 := float64(T(zone) * wavelength * d1 * d2 / lengthM)
		out[i] = T(math.Sqrt(radius2))
	}
	return out
}

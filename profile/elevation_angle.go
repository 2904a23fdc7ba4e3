package profile

import (
	"math"

	"github.com/novalabsxyz/geoprop/walker"
)

// elevationAngle returns the up/down angle, in radians, from a point
// at startElevM meters elevation to a point distanceM meters away (arc
// length) at endElevM meters elevation, over a sphere of earthRadiusM.
func elevationAngle[T walker.Float](startElevM, distanceM, endElevM, earthRadiusM T) T {
	a := float64(distanceM)
	b := float64(startElevM) + float64(earthRadiusM)
	c := float64(endElevM) + float64(earthRadiusM)

	inner := (a*a + b*b - c*c) / (2 * a * b)
	switch {
	case inner < -1:
		inner = -1
	case inner > 1:
		inner = 1
	}
	return T(math.Acos(inner) - math.Pi/2)
}

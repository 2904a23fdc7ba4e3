// Package walker produces evenly spaced points along a great-circle
// arc between two geographic coordinates, using the spherical law of
// haversines.
package walker

import (
	"math"

	"github.com/soniakeys/unit"
)

// Float is the set of types a Walker can be instantiated over.
type Float interface {
	~float32 | ~float64
}

// MeanEarthRadiusM is the mean Earth radius in meters, per WGS84.
const MeanEarthRadiusM = 6_371_008.8

// Point is a geographic coordinate in decimal degrees (X=longitude,
// Y=latitude).
type Point[T Float] struct {
	X, Y T
}

// haversineParams are the closed-form coefficients computed once from
// the two endpoints, then reused for every interpolated point. Named
// to match the originating formula rather than their meaning
// individually.
type haversineParams struct {
	d, n, o, p, q, r, s float64
}

// Walker produces N+1 equally spaced points along the great-circle arc
// between two endpoints, where N = ceil(arc_length_m / maxStepM). The
// first point returned is exactly the start coordinate and the last is
// exactly the end coordinate (by construction, not by arithmetic
// convergence). A Walker is a value type: restart iteration by taking
// a fresh copy or calling New again.
type Walker[T Float] struct {
	start, end     Point[T]
	params         haversineParams
	stepSizeM      T
	numberOfPoints float64
	totalPoints    float64
	current        float64
	inverse        float64
}

// New builds a Walker between start and end with a maximum point
// spacing of maxStepM meters.
func New[T Float](start, end Point[T], maxStepM T) Walker[T] {
	params := getParams(float64(start.X), float64(start.Y), float64(end.X), float64(end.Y))
	totalDistanceM := params.d * MeanEarthRadiusM
	numberOfPoints := math.Ceil(totalDistanceM / float64(maxStepM))
	if numberOfPoints < 1 {
		numberOfPoints = 1
	}
	stepSizeM := totalDistanceM / numberOfPoints

	return Walker[T]{
		start:          start,
		end:            end,
		params:         params,
		stepSizeM:      T(stepSizeM),
		numberOfPoints: numberOfPoints,
		totalPoints:    numberOfPoints + 1,
		current:        0,
		inverse:        1 / numberOfPoints,
	}
}

// StepSizeM returns the actual spacing between consecutive points,
// always <= the maxStepM passed to New.
func (w Walker[T]) StepSizeM() T { return w.stepSizeM }

// Len returns the number of points remaining to be produced by Next.
func (w Walker[T]) Len() int { return int(w.totalPoints - w.current) }

// TotalDistanceM returns the great-circle arc length between the two
// endpoints, in meters.
func (w Walker[T]) TotalDistanceM() T { return w.stepSizeM * T(w.numberOfPoints) }

// Next returns the next point along the arc, or false once the walk
// is exhausted.
func (w *Walker[T]) Next() (Point[T], bool) {
	if w.current >= w.totalPoints {
		return Point[T]{}, false
	}
	if w.current == 0 {
		w.current++
		return w.start, true
	}
	if w.current == w.totalPoints-1 {
		w.current++
		return w.end, true
	}
	factor := w.current * w.inverse
	w.current++
	x, y := getPoint[T](w.params, factor)
	return Point[T]{X: T(x), Y: T(y)}, true
}

func getParams(lon1deg, lat1deg, lon2deg, lat2deg float64) haversineParams {
	lat1 := toRadians(lat1deg)
	lon1 := toRadians(lon1deg)
	lat2 := toRadians(lat2deg)
	lon2 := toRadians(lon2deg)

	lat1Sin, lat1Cos := math.Sincos(lat1)
	lat2Sin, lat2Cos := math.Sincos(lat2)
	lon1Sin, lon1Cos := math.Sincos(lon1)
	lon2Sin, lon2Cos := math.Sincos(lon2)

	m := lat1Cos * lat2Cos

	n := lat1Cos * lon1Cos
	o := lat2Cos * lon2Cos
	p := lat1Cos * lon1Sin
	q := lat2Cos * lon2Sin

	halfLatSin := math.Sin((lat1 - lat2) / 2)
	halfLonSin := math.Sin((lon1 - lon2) / 2)
	k := math.Sqrt(halfLatSin*halfLatSin + m*halfLonSin*halfLonSin)
	d := 2 * math.Asin(k)

	return haversineParams{d: d, n: n, o: o, p: p, q: q, r: lat1Sin, s: lat2Sin}
}

// getPoint evaluates the closed-form haversine interpolation at
// parameter f ∈ [0,1]. atan2 is dispatched per T (see atan2[T]): the
// float64 instantiation uses the standard library, float32 uses a
// faster polynomial approximation, per spec.
func getPoint[T Float](params haversineParams, f float64) (lonDeg, latDeg float64) {
	d := params.d
	a := math.Sin((1-f)*d) / math.Sin(d)
	b := math.Sin(f*d) / math.Sin(d)

	x := a*params.n + b*params.o
	y := a*params.p + b*params.q
	z := a*params.r + b*params.s

	lat := atan2[T](z, math.Hypot(x, y))
	lon := atan2[T](y, x)

	return toDegrees(lon), toDegrees(lat)
}

// atan2 computes atan2(y, x), using the standard library at float64
// precision and a faster approximate atan2 when T is float32.
func atan2[T Float](y, x float64) float64 {
	var zero T
	if _, isFloat32 := any(zero).(float32); isFloat32 {
		return float64(fastAtan2(float32(y), float32(x)))
	}
	return math.Atan2(y, x)
}

// fastAtan2 is a single-precision polynomial approximation to atan2,
// accurate to roughly 0.012 degrees, traded for speed over the
// standard library's full-precision implementation.
func fastAtan2(y, x float32) float32 {
	if x == 0 && y == 0 {
		return 0
	}
	ax, ay := absF32(x), absF32(y)
	var a float32
	if ax > ay {
		a = ay / ax
	} else {
		a = ax / ay
	}
	s := a * a
	r := ((-0.0464964749*s+0.15931422)*s-0.327622764)*s*a + a
	if ay > ax {
		r = 1.5707964 - r
	}
	if x < 0 {
		r = 3.1415927 - r
	}
	if y < 0 {
		r = -r
	}
	return r
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func toRadians(deg float64) float64 { return unit.AngleFromDeg(deg).Rad() }
func toDegrees(rad float64) float64 { return unit.Angle(rad).Deg() }

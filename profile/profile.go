// Package profile builds elevation-and-line-of-sight profiles along a
// great-circle path between two geographic points, optionally bulged
// for earth curvature.
package profile

import (
	"fmt"
	"math"

	"github.com/novalabsxyz/geoprop/tile"
	"github.com/novalabsxyz/geoprop/tilestore"
	"github.com/novalabsxyz/geoprop/walker"
)

// Profile is the output of a Builder: terrain elevation, line-of-sight
// elevation, and distance, sampled at N points along a great-circle
// path.
type Profile[T walker.Float] struct {
	// DistancesM is linspace(0, DistanceM, N).
	DistancesM []T
	// TerrainM is the terrain elevation at each distance, bulged for
	// earth curvature if the builder requested it.
	TerrainM []T
	// LOSElevM is the straight line-of-sight elevation at each
	// distance: linspace(terrain[0]+startAlt, terrain[N-1]+endAlt, N).
	LOSElevM []T
	// DistanceM is the total great-circle arc length.
	DistanceM T
	// GreatCircle holds the geographic coordinate at each distance.
	GreatCircle []walker.Point[T]
}

// Len returns N, the number of samples in the profile.
func (p *Profile[T]) Len() int { return len(p.DistancesM) }

// Builder assembles a Profile from required and optional parameters.
// Mirrors the upstream Point2PointBuilder: set fields, then Build.
type Builder[T walker.Float] struct {
	store *tilestore.Store

	start, end   *walker.Point[T]
	maxStepM     T
	haveMaxStepM bool

	startAltM, endAltM T
	earthCurve         bool
	normalize          bool
	earthRadiusM       T
}

// NewBuilder returns a Builder that loads terrain from store.
// EarthRadiusM defaults to walker.MeanEarthRadiusM; StartAltM/EndAltM
// default to 0; EarthCurve/Normalize default to false.
func NewBuilder[T walker.Float](store *tilestore.Store) *Builder[T] {
	return &Builder[T]{
		store:        store,
		earthRadiusM: T(walker.MeanEarthRadiusM),
	}
}

// Start sets the path's starting coordinate. Required.
func (b *Builder[T]) Start(p walker.Point[T]) *Builder[T] {
	b.start = &p
	return b
}

// End sets the path's ending coordinate. Required.
func (b *Builder[T]) End(p walker.Point[T]) *Builder[T] {
	b.end = &p
	return b
}

// MaxStepM sets the maximum spacing, in meters, between samples.
// Required.
func (b *Builder[T]) MaxStepM(m T) *Builder[T] {
	b.maxStepM = m
	b.haveMaxStepM = true
	return b
}

// StartAltM sets the height, in meters above ground, of the starting
// antenna. Optional, default 0.
func (b *Builder[T]) StartAltM(m T) *Builder[T] {
	b.startAltM = m
	return b
}

// EndAltM sets the height, in meters above ground, of the ending
// antenna. Optional, default 0.
func (b *Builder[T]) EndAltM(m T) *Builder[T] {
	b.endAltM = m
	return b
}

// EarthCurve enables bulging the terrain profile for earth curvature.
// Optional, default false.
func (b *Builder[T]) EarthCurve(v bool) *Builder[T] {
	b.earthCurve = v
	return b
}

// Normalize enables re-leveling the bulged profile so the line of
// sight runs flat. Has no effect unless EarthCurve is also set.
// Optional, default false.
func (b *Builder[T]) Normalize(v bool) *Builder[T] {
	b.normalize = v
	return b
}

// EarthRadiusM overrides the earth radius used for curvature bulging.
// Optional, defaults to walker.MeanEarthRadiusM.
func (b *Builder[T]) EarthRadiusM(m T) *Builder[T] {
	b.earthRadiusM = m
	return b
}

// Build walks the great-circle path between Start and End, sampling
// terrain from the tile store, and returns the resulting Profile.
func (b *Builder[T]) Build() (*Profile[T], error) {
	if b.start == nil {
		return nil, &MissingParameterError{Name: "start"}
	}
	if b.end == nil {
		return nil, &MissingParameterError{Name: "end"}
	}
	if !b.haveMaxStepM {
		return nil, &MissingParameterError{Name: "max_step"}
	}

	w := walker.New(*b.start, *b.end, b.maxStepM)
	n := w.Len()

	greatCircle := make([]walker.Point[T], 0, n)
	terrain := make([]T, 0, n)

	curTile, err := b.store.Get(tile.Coord{X: float64(b.start.X), Y: float64(b.start.Y)})
	if err != nil {
		return nil, fmt.Errorf("profile: loading start tile: %w", err)
	}

	for {
		p, ok := w.Next()
		if !ok {
			break
		}
		coord := tile.Coord{X: float64(p.X), Y: float64(p.Y)}

		elev, ok := curTile.Get(coord)
		if !ok {
			curTile, err = b.store.Get(coord)
			if err != nil {
				return nil, fmt.Errorf("profile: loading tile at %+v: %w", coord, err)
			}
			elev = curTile.GetUnchecked(coord)
		}

		greatCircle = append(greatCircle, p)
		terrain = append(terrain, T(elev))
	}

	distanceM := w.TotalDistanceM()
	distances := linspace(T(0), distanceM, n)

	if b.earthCurve {
		bulge(terrain, distances, b.startAltM, b.endAltM, b.earthRadiusM, distanceM, b.normalize)
	}

	losElev := linspace(terrain[0]+b.startAltM, terrain[n-1]+b.endAltM, n)

	return &Profile[T]{
		DistancesM:  distances,
		TerrainM:    terrain,
		LOSElevM:    losElev,
		DistanceM:   distanceM,
		GreatCircle: greatCircle,
	}, nil
}

// bulge replaces each terrain height with its earth-curvature-bulged
// equivalent, in place, per spec.md §4.4. When normalize is set, the
// bulged profile is additionally re-leveled so a straight line of
// sight runs flat across it.
func bulge[T walker.Float](terrain, distances []T, startAltM, endAltM, earthRadiusM, totalDistanceM T, normalize bool) {
	n := len(terrain)
	s := terrain[0] + startAltM
	e := terrain[n-1] + endAltM
	alpha := float64(elevationAngle(s, totalDistanceM, e, earthRadiusM))

	R := float64(earthRadiusM)
	sF := float64(s)
	eF := float64(e)
	D := float64(totalDistanceM)

	nb := -sF
	nm := (-eF - nb) / D

	for i, h := range terrain {
		d := float64(distances[i])
		r := R + float64(h)
		beta := d / r
		c := (R + sF) * math.Sin(alpha+math.Pi/2) / math.Sin(math.Pi/2-alpha-beta)

		if normalize {
			los := -(nm * d) - nb
			terrain[i] = T((r - c) + los)
		} else {
			terrain[i] = T(r - c)
		}
	}
}

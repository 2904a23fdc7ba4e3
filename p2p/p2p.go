// Package p2p composes a terrain profile and its Fresnel-zone envelope
// into a point-to-point radio link estimate, and exposes the hook an
// external propagation engine (see package itm) is invoked through.
package p2p

import (
	"fmt"

	"github.com/novalabsxyz/geoprop/fresnel"
	"github.com/novalabsxyz/geoprop/profile"
	"github.com/novalabsxyz/geoprop/tilestore"
	"github.com/novalabsxyz/geoprop/walker"
)

// PointToPoint is a terrain profile plus its lower Fresnel-zone
// envelope, ready to feed into a propagation engine.
type PointToPoint[T walker.Float] struct {
	*profile.Profile[T]

	// LowerFresnelZoneM is the bottom edge of the first Fresnel zone
	// at each distance: LOSElevM[i] - fresnel.Series(1, ...)[i].
	LowerFresnelZoneM []T
}

// UpperFresnelIter returns the top edge of the first Fresnel zone at
// each distance: 2*LOSElevM[i] - LowerFresnelZoneM[i].
func (p *PointToPoint[T]) UpperFresnelIter() []T {
	out := make([]T, len(p.LOSElevM))
	for i := range out {
		out[i] = 2*p.LOSElevM[i] - p.LowerFresnelZoneM[i]
	}
	return out
}

// Builder assembles a PointToPoint the same way profile.Builder
// assembles a Profile, adding the one parameter a link estimate needs
// beyond a bare terrain profile: signal frequency.
type Builder[T walker.Float] struct {
	profileBuilder *profile.Builder[T]

	freqHz   T
	haveFreq bool
}

// NewBuilder returns a Builder that loads terrain from store.
func NewBuilder[T walker.Float](store *tilestore.Store) *Builder[T] {
	return &Builder[T]{profileBuilder: profile.NewBuilder[T](store)}
}

// Freq sets the transmitter frequency, in Hz. Required.
func (b *Builder[T]) Freq(hz T) *Builder[T] {
	b.freqHz = hz
	b.haveFreq = true
	return b
}

// Start sets the path's starting coordinate. Required.
func (b *Builder[T]) Start(p walker.Point[T]) *Builder[T] {
	b.profileBuilder.Start(p)
	return b
}

// End sets the path's ending coordinate. Required.
func (b *Builder[T]) End(p walker.Point[T]) *Builder[T] {
	b.profileBuilder.End(p)
	return b
}

// MaxStepM sets the maximum spacing, in meters, between samples.
// Required.
func (b *Builder[T]) MaxStepM(m T) *Builder[T] {
	b.profileBuilder.MaxStepM(m)
	return b
}

// StartAltM sets the starting antenna height above ground, in meters.
// Optional, default 0.
func (b *Builder[T]) StartAltM(m T) *Builder[T] {
	b.profileBuilder.StartAltM(m)
	return b
}

// EndAltM sets the ending antenna height above ground, in meters.
// Optional, default 0.
func (b *Builder[T]) EndAltM(m T) *Builder[T] {
	b.profileBuilder.EndAltM(m)
	return b
}

// EarthCurve enables bulging the terrain profile for earth curvature.
// Optional, default false.
func (b *Builder[T]) EarthCurve(v bool) *Builder[T] {
	b.profileBuilder.EarthCurve(v)
	return b
}

// Normalize enables re-leveling the bulged profile. Optional, default
// false; has no effect unless EarthCurve is also set.
func (b *Builder[T]) Normalize(v bool) *Builder[T] {
	b.profileBuilder.Normalize(v)
	return b
}

// Build walks the great-circle path, samples terrain, and computes the
// lower Fresnel-zone envelope around the resulting line of sight.
func (b *Builder[T]) Build() (*PointToPoint[T], error) {
	if !b.haveFreq {
		return nil, &profile.MissingParameterError{Name: "freq"}
	}

	prof, err := b.profileBuilder.Build()
	if err != nil {
		return nil, fmt.Errorf("p2p: %w", err)
	}

	n := prof.Len()
	r1 := fresnel.Series[T](1, b.freqHz, prof.DistanceM, n)
	lower := make([]T, n)
	for i := range lower {
		lower[i] = prof.LOSElevM[i] - r1[i]
	}

	return &PointToPoint[T]{Profile: prof, LowerFresnelZoneM: lower}, nil
}

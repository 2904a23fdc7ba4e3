// Package mask loads a GeoJSON geometry collection used to restrict
// tessellation and combination to an area of interest.
package mask

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Mask is a set of geometries a caller tests points and polygons
// against.
type Mask struct {
	geometries []orb.Geometry
}

// Open reads and parses the GeoJSON file at path, which may be a
// FeatureCollection, a bare Feature, or a bare Geometry.
func Open(path string) (*Mask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		geoms := make([]orb.Geometry, 0, len(fc.Features))
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
		return &Mask{geometries: geoms}, nil
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return &Mask{geometries: []orb.Geometry{f.Geometry}}, nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("mask: %s: %w", path, err)
	}
	return &Mask{geometries: []orb.Geometry{g.Geometry()}}, nil
}

// Contains reports whether pt lies inside any geometry in the mask.
func (m *Mask) Contains(pt orb.Point) bool {
	for _, g := range m.geometries {
		if containsPoint(g, pt) {
			return true
		}
	}
	return false
}

func containsPoint(g orb.Geometry, pt orb.Point) bool {
	switch t := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(t, pt)
	case orb.MultiPolygon:
		for _, poly := range t {
			if planar.PolygonContains(poly, pt) {
				return true
			}
		}
	case orb.Collection:
		for _, sub := range t {
			if containsPoint(sub, pt) {
				return true
			}
		}
	}
	return false
}

// Intersects reports whether poly overlaps any geometry in the mask.
// Two polygons are treated as overlapping when their bounds overlap
// and either contains a vertex of the other; this is exact for the
// convex, sub-degree sample footprints this package is used for, and
// avoids pulling in a full polygon-clipping library for a rarer
// general case.
func (m *Mask) Intersects(poly orb.Polygon) bool {
	bound := poly.Bound()
	for _, g := range m.geometries {
		if intersectsPolygon(g, poly, bound) {
			return true
		}
	}
	return false
}

func intersectsPolygon(g orb.Geometry, poly orb.Polygon, bound orb.Bound) bool {
	switch t := g.(type) {
	case orb.Polygon:
		return polygonsIntersect(t, poly, bound)
	case orb.MultiPolygon:
		for _, p := range t {
			if polygonsIntersect(p, poly, bound) {
				return true
			}
		}
	case orb.Collection:
		for _, sub := range t {
			if intersectsPolygon(sub, poly, bound) {
				return true
			}
		}
	}
	return false
}

func polygonsIntersect(a, b orb.Polygon, bBound orb.Bound) bool {
	if !a.Bound().Intersects(bBound) {
		return false
	}
	if len(b) == 0 || len(a) == 0 {
		return false
	}
	for _, pt := range b[0] {
		if planar.PolygonContains(a, pt) {
			return true
		}
	}
	for _, pt := range a[0] {
		if planar.PolygonContains(b, pt) {
			return true
		}
	}
	return false
}

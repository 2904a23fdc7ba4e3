// Package hex wraps H3 hierarchical hexagonal cells and implements an
// in-memory 7-ary trie over them with pluggable compaction.
package hex

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// MaxResolution is the finest H3 resolution the core operates at.
const MaxResolution = 15

// Cell is a validated H3 cell index.
type Cell uint64

// LatLng is a geographic point, degrees.
type LatLng struct {
	Lat, Lng float64
}

// NewCell validates a raw 64-bit id and wraps it as a Cell.
func NewCell(raw uint64) (Cell, error) {
	c := h3.Cell(raw)
	if !c.IsValid() {
		return 0, fmt.Errorf("hex: %#x is not a valid H3 cell", raw)
	}
	return Cell(c), nil
}

// FromLatLng returns the cell of resolution res covering (lat, lng).
func FromLatLng(lat, lng float64, res int) Cell {
	return Cell(h3.LatLngToCell(h3.NewLatLng(lat, lng), res))
}

// Resolution reports c's H3 resolution, 0..MaxResolution.
func (c Cell) Resolution() int {
	return h3.Cell(c).Resolution()
}

// IsValid reports whether c is a well-formed H3 index.
func (c Cell) IsValid() bool {
	return h3.Cell(c).IsValid()
}

// Parent returns c's ancestor at res, which must be <= c.Resolution().
func (c Cell) Parent(res int) Cell {
	return Cell(h3.Cell(c).Parent(res))
}

// Children returns c's descendants at res, which must be >=
// c.Resolution(). Order matches h3's canonical child ordering.
func (c Cell) Children(res int) []Cell {
	kids := h3.Cell(c).Children(res)
	out := make([]Cell, len(kids))
	for i, k := range kids {
		out[i] = Cell(k)
	}
	return out
}

// ImmediateChildren returns c's 7 children one resolution finer.
// Pentagon cells have 6; the 7th slot is the zero Cell.
func (c Cell) ImmediateChildren() [7]Cell {
	var out [7]Cell
	copy(out[:], c.Children(c.Resolution()+1))
	return out
}

// Center returns the geographic center of c.
func (c Cell) Center() LatLng {
	ll := h3.Cell(c).LatLng()
	return LatLng{Lat: ll.Lat, Lng: ll.Lng}
}

// Boundary returns the polygon c covers, as its geographic vertices in
// order; the first vertex is not repeated at the end.
func (c Cell) Boundary() []LatLng {
	b := h3.Cell(c).Boundary()
	out := make([]LatLng, len(b))
	for i, p := range b {
		out[i] = LatLng{Lat: p.Lat, Lng: p.Lng}
	}
	return out
}

func (c Cell) String() string {
	return h3.Cell(c).String()
}

// PolyfillPolygon returns the set of cells at res that cover the
// polygon described by loop (exterior ring) and holes.
func PolyfillPolygon(loop []LatLng, holes [][]LatLng, res int) []Cell {
	gpoly := h3.GeoPolygon{GeoLoop: toGeoLoop(loop)}
	for _, hole := range holes {
		gpoly.Holes = append(gpoly.Holes, toGeoLoop(hole))
	}
	cells := h3.PolygonToCells(gpoly, res)
	out := make([]Cell, len(cells))
	for i, cell := range cells {
		out[i] = Cell(cell)
	}
	return out
}

func toGeoLoop(pts []LatLng) h3.GeoLoop {
	loop := make(h3.GeoLoop, len(pts))
	for i, p := range pts {
		loop[i] = h3.NewLatLng(p.Lat, p.Lng)
	}
	return loop
}

// childIndex returns the position of child among parent's immediate
// children, or -1 if child is not one of them.
func childIndex(parent, child Cell) int {
	for i, k := range parent.Children(parent.Resolution() + 1) {
		if k == child {
			return i
		}
	}
	return -1
}

// ancestryPath returns [baseCellAncestor, ..., cell] from resolution 0
// up to cell's own resolution.
func ancestryPath(cell Cell) []Cell {
	res := cell.Resolution()
	path := make([]Cell, res+1)
	path[res] = cell
	for r := res; r > 0; r-- {
		path[r-1] = path[r].Parent(r - 1)
	}
	return path
}

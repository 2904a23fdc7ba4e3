// Package tile implements the NASADEM-style elevation tile format: a
// 1x1 degree raster of big-endian i16 samples at 1 or 3 arcseconds
// per sample, loaded either fully in-memory or memory-mapped.
package tile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
)

// Coord is a geographic coordinate in decimal degrees (X=longitude,
// Y=latitude). No altitude is encoded here.
type Coord struct {
	X, Y float64
}

// SWCorner is the integer southwest-corner coordinate that keys a
// tile within a TileStore.
type SWCorner struct {
	X, Y int
}

const arcsecPerDeg = 3600.0

// sentinel value meaning "min/max not yet computed".
const notComputed = int32(1 << 20)

// Tile represents one 1x1 degree square of the Earth's surface.
type Tile struct {
	// swCenter is the location of the center of the south-westmost sample.
	swCenter Coord
	// neCenter is swCenter offset by the full tile extent (cols and rows
	// times the resolution), one sample step north-east of the center
	// of the north-eastmost sample.
	neCenter Coord

	// resolution is arcseconds-per-sample (1 or 3).
	resolution int

	// cols, rows are the tile's dimensions.
	cols, rows int

	minElevation atomic.Int32
	maxElevation atomic.Int32

	samples sampleStore
}

// sampleStore abstracts over the three ways a tile's raw samples can
// be backed: a tombstone (always zero), an in-memory slice, or a
// memory-mapped byte range.
type sampleStore interface {
	get(index int) int16
	min() int16
	max() int16
	close() error
}

// Open parses path into memory. Fails with *InvalidNameError if the file
// stem doesn't match [NS]dd[EW]ddd, *InvalidLengthError if the file size
// matches neither the 1" nor 3" layout, or a wrapped I/O error.
func Open(path string) (*Tile, error) {
	resolution, cols, rows, err := extractResolution(path)
	if err != nil {
		return nil, err
	}
	sw, err := parseSWCorner(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tile: opening %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	buf := make([]int16, cols*rows)
	for i := range buf {
		var v int16
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, fmt.Errorf("tile: reading sample %d of %s: %w", i, path, err)
		}
		buf[i] = v
	}

	return newTile(sw, resolution, cols, rows, &inMemStore{samples: buf}), nil
}

// OpenMemMap memory-maps path and reads samples directly out of the
// mapping, without ever materializing the whole file in Go-managed
// memory.
func OpenMemMap(path string) (*Tile, error) {
	resolution, cols, rows, err := extractResolution(path)
	if err != nil {
		return nil, err
	}
	sw, err := parseSWCorner(path)
	if err != nil {
		return nil, err
	}

	store, err := newMmapStore(path)
	if err != nil {
		return nil, fmt.Errorf("tile: mapping %s: %w", path, err)
	}

	return newTile(sw, resolution, cols, rows, store), nil
}

// Tombstone returns a synthetic tile, standing in for a missing
// file, that returns elevation 0 for every query. It carries 3"
// dimensions, per spec.
func Tombstone(sw SWCorner) *Tile {
	return newTile(sw, 3, 1201, 1201, tombstoneStore{})
}

func newTile(sw SWCorner, resolution, cols, rows int, samples sampleStore) *Tile {
	swCenter := Coord{X: float64(sw.X), Y: float64(sw.Y)}
	neCenter := Coord{
		X: swCenter.X + float64(cols)*float64(resolution)/arcsecPerDeg,
		Y: swCenter.Y + float64(rows)*float64(resolution)/arcsecPerDeg,
	}
	t := &Tile{
		swCenter:   swCenter,
		neCenter:   neCenter,
		resolution: resolution,
		cols:       cols,
		rows:       rows,
		samples:    samples,
	}
	t.minElevation.Store(notComputed)
	t.maxElevation.Store(notComputed)
	return t
}

// Close releases any resources (e.g. the memory mapping) held by the
// tile's backing store.
func (t *Tile) Close() error {
	return t.samples.close()
}

// Len returns the number of samples in the tile.
func (t *Tile) Len() int { return t.cols * t.rows }

// Resolution returns arcseconds-per-sample (1 or 3).
func (t *Tile) Resolution() int { return t.resolution }

// Dimensions returns (cols, rows).
func (t *Tile) Dimensions() (int, int) { return t.cols, t.rows }

// SWCorner returns the geographic location of the center of the
// south-westmost sample.
func (t *Tile) SWCorner() Coord { return t.swCenter }

// NECorner returns SWCorner offset by the full tile extent (cols and
// rows times the resolution): one sample step north-east of the center
// of the north-eastmost sample.
func (t *Tile) NECorner() Coord { return t.neCenter }

// MinElevation returns the lowest elevation sample in the tile,
// computing and caching it on first access. Concurrent callers may
// race to compute it; the computation is deterministic so a double
// compute is harmless, and the final stored value is consistent.
func (t *Tile) MinElevation() int16 {
	if v := t.minElevation.Load(); v != notComputed {
		return int16(v)
	}
	v := t.samples.min()
	t.minElevation.Store(int32(v))
	return v
}

// MaxElevation returns the highest elevation sample in the tile,
// memoized the same way as MinElevation.
func (t *Tile) MaxElevation() int16 {
	if v := t.maxElevation.Load(); v != notComputed {
		return int16(v)
	}
	v := t.samples.max()
	t.maxElevation.Store(int32(v))
	return v
}

// Get returns the elevation at coord, or false if coord lies outside
// this tile's footprint (expanded by half a sample in each
// direction).
func (t *Tile) Get(coord Coord) (int16, bool) {
	x, y := t.coordToXY(coord)
	if x < 0 || x >= t.cols || y < 0 || y >= t.rows {
		return 0, false
	}
	return t.samples.get(t.xyToLinearIndex(x, y)), true
}

// GetUnchecked returns the elevation at coord. The caller must
// guarantee coord lies within the tile. The grid position is not
// checked: an out-of-range coord whose linear index still falls inside
// the sample data returns a sample from another row, one whose index
// falls outside it panics rather than reading out of bounds, and a
// tombstone returns 0 for any coord.
func (t *Tile) GetUnchecked(coord Coord) int16 {
	x, y := t.coordToXY(coord)
	return t.samples.get(t.xyToLinearIndex(x, y))
}

// getXY returns the sample at grid position (x, y), where y=0 is the
// southernmost row.
func (t *Tile) getXY(x, y int) int16 {
	return t.samples.get(t.xyToLinearIndex(x, y))
}

// coordToXY maps a geographic coordinate onto grid coordinates,
// placing sample centers at integer multiples of the resolution
// rather than at cell corners (the half-sample offset).
func (t *Tile) coordToXY(coord Coord) (int, int) {
	c := arcsecPerDeg / float64(t.resolution)
	cc := 1.0 / (c * 2.0)
	x := int(floor((coord.X - t.swCenter.X + cc) * c))
	y := int(floor((coord.Y - t.swCenter.Y + cc) * c))
	return x, y
}

func floor(v float64) float64 {
	if v >= 0 {
		return float64(int64(v))
	}
	i := int64(v)
	if float64(i) != v {
		i--
	}
	return float64(i)
}

// xyToLinearIndex converts south-based grid coordinates to the
// linear index of the underlying storage, which is ordered
// north-to-south as samples appear in the file.
func (t *Tile) xyToLinearIndex(x, y int) int {
	return t.cols*(t.rows-1-y) + x
}

// Sample is a single elevation sample with its covering polygon.
type Sample struct {
	Elevation int16
	// CenterX, CenterY are the geographic center of this sample; the
	// polygon is a resolution-arcsecond square centered on it.
	CenterX, CenterY float64
	ResolutionArcsec  int
}

// Iterator yields a tile's samples in row-major order, north to
// south, matching the file's own storage order exactly.
type Iterator struct {
	tile *Tile
	idx  int
}

// Iter returns an Iterator over t's samples in file (north-to-south)
// order.
func (t *Tile) Iter() *Iterator {
	return &Iterator{tile: t}
}

// Next returns the next sample, or false once exhausted.
func (it *Iterator) Next() (Sample, bool) {
	if it.idx >= it.tile.Len() {
		return Sample{}, false
	}
	yFile := it.idx / it.tile.cols
	x := it.idx % it.tile.cols
	y := it.tile.rows - 1 - yFile
	elev := it.tile.getXY(x, y)
	center := it.tile.xyCenter(x, y)
	it.idx++
	return Sample{
		Elevation:        elev,
		CenterX:          center.X,
		CenterY:          center.Y,
		ResolutionArcsec: it.tile.resolution,
	}, true
}

func (t *Tile) xyCenter(x, y int) Coord {
	return Coord{
		X: t.swCenter.X + float64(x)*float64(t.resolution)/arcsecPerDeg,
		Y: t.swCenter.Y + float64(y)*float64(t.resolution)/arcsecPerDeg,
	}
}

// Polygon returns the four corners (closed ring, last point repeats
// the first) of the resolution-arcsecond square centered on
// (centerX, centerY).
func Polygon(centerX, centerY float64, resolutionArcsec int) [5][2]float64 {
	const halfArcsec = 1.0 / (2.0 * 3600.0)
	delta := float64(resolutionArcsec) * halfArcsec
	n := centerY + delta
	e := centerX + delta
	s := centerY - delta
	w := centerX - delta
	return [5][2]float64{
		{w, s}, {e, s}, {e, n}, {w, n}, {w, s},
	}
}

func extractResolution(path string) (resolution, cols, rows int, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return 0, 0, 0, fmt.Errorf("tile: stat %s: %w", path, statErr)
	}
	switch info.Size() {
	case 3601 * 3601 * 2:
		return 1, 3601, 3601, nil
	case 1201 * 1201 * 2:
		return 3, 1201, 1201, nil
	default:
		return 0, 0, 0, &InvalidLengthError{Path: path, Bytes: info.Size()}
	}
}

func parseSWCorner(path string) (SWCorner, error) {
	stem := filepath.Base(path)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	mk := func() (SWCorner, error) { return SWCorner{}, &InvalidNameError{Path: path} }
	if len(stem) != 7 {
		return mk()
	}
	latSign := 1
	switch stem[0] {
	case 'N', 'n':
		latSign = 1
	case 'S', 's':
		latSign = -1
	default:
		return mk()
	}
	lat, err := strconv.Atoi(stem[1:3])
	if err != nil {
		return mk()
	}
	lonSign := 1
	switch stem[3] {
	case 'E', 'e':
		lonSign = 1
	case 'W', 'w':
		lonSign = -1
	default:
		return mk()
	}
	lon, err := strconv.Atoi(stem[4:7])
	if err != nil {
		return mk()
	}
	return SWCorner{X: lonSign * lon, Y: latSign * lat}, nil
}

// FileName returns the canonical (uppercase) `.hgt` file name for an
// SW-corner coordinate, e.g. "N44W072.hgt".
func FileName(sw SWCorner) string {
	ns, lat := 'N', sw.Y
	if sw.Y < 0 {
		ns, lat = 'S', -sw.Y
	}
	ew, lon := 'E', sw.X
	if sw.X < 0 {
		ew, lon = 'W', -sw.X
	}
	return fmt.Sprintf("%c%02d%c%03d.hgt", ns, lat, ew, lon)
}

var _ io.Closer = (*Tile)(nil)

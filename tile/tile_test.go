package tile_test

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/novalabsxyz/geoprop/tile"
)

// writeHGT writes a synthetic 3-arcsecond .hgt file (1201x1201
// samples) into dir, named name, with sample values generated by gen
// (invoked in file order: north-to-south, west-to-east).
func writeHGT(t *testing.T, dir, name string, gen func(fileIdx int) int16) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 2*1201*1201)
	for i := 0; i < 1201*1201; i++ {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], uint16(gen(i)))
	}
	if _, err := f.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestFileName(t *testing.T) {
	cases := []struct {
		sw   tile.SWCorner
		want string
	}{
		{tile.SWCorner{X: 0, Y: 0}, "N00E000.hgt"},
		{tile.SWCorner{X: -1, Y: 0}, "N00W001.hgt"},
		{tile.SWCorner{X: -1, Y: -1}, "S01W001.hgt"},
		{tile.SWCorner{X: 0, Y: -1}, "S01E000.hgt"},
		{tile.SWCorner{X: -72, Y: 44}, "N44W072.hgt"},
	}
	for _, c := range cases {
		if got := tile.FileName(c.sw); got != c.want {
			t.Errorf("FileName(%+v) = %q, want %q", c.sw, got, c.want)
		}
	}
}

func TestTombstoneReturnsZero(t *testing.T) {
	ts := tile.Tombstone(tile.SWCorner{X: 0, Y: -90})
	elev, ok := ts.Get(tile.Coord{X: 0.3, Y: -89.7})
	if !ok || elev != 0 {
		t.Fatalf("tombstone.Get() = (%d, %v), want (0, true)", elev, ok)
	}
	if ts.MinElevation() != 0 || ts.MaxElevation() != 0 {
		t.Fatalf("tombstone min/max = %d/%d, want 0/0", ts.MinElevation(), ts.MaxElevation())
	}
}

func TestInvalidLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "N00E000.hgt")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := tile.Open(path)
	var invalidLen *tile.InvalidLengthError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !asInvalidLength(err, &invalidLen) {
		t.Fatalf("expected InvalidLengthError, got %v (%T)", err, err)
	}
}

func asInvalidLength(err error, target **tile.InvalidLengthError) bool {
	if e, ok := err.(*tile.InvalidLengthError); ok {
		*target = e
		return true
	}
	return false
}

func TestInvalidName(t *testing.T) {
	dir := t.TempDir()
	path := writeHGT(t, dir, "bogus.hgt", func(int) int16 { return 0 })
	_, err := tile.Open(path)
	if _, ok := err.(*tile.InvalidNameError); !ok {
		t.Fatalf("expected InvalidNameError, got %v (%T)", err, err)
	}
}

func TestRoundTripAndIndexing(t *testing.T) {
	dir := t.TempDir()
	// file order is north-to-south, west-to-east, row-major.
	path := writeHGT(t, dir, "N10E010.hgt", func(idx int) int16 {
		return int16(idx % 30000)
	})

	parsed, err := tile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer parsed.Close()

	mapped, err := tile.OpenMemMap(path)
	if err != nil {
		t.Fatalf("OpenMemMap: %v", err)
	}
	defer mapped.Close()

	if got, want := parsed.SWCorner(), (tile.Coord{X: 10, Y: 10}); got != want {
		t.Fatalf("SWCorner = %+v, want %+v", got, want)
	}

	// Iteration must reproduce the raw file's big-endian i16 sequence
	// exactly, in row-major north-to-south order (matching file
	// storage order; row here is the south-based grid row).
	it := parsed.Iter()
	count := 0
	for row := 1200; row >= 0; row-- {
		for col := 0; col < 1201; col++ {
			fileIdx := (1200-row)*1201 + col
			want := int16(fileIdx % 30000)
			s, ok := it.Next()
			if !ok {
				t.Fatalf("iterator exhausted early at count=%d", count)
			}
			if s.Elevation != want {
				t.Fatalf("sample %d: elevation = %d, want %d", count, s.Elevation, want)
			}
			count++
		}
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("iterator produced more than %d samples", count)
	}
	if count != 1201*1201 {
		t.Fatalf("iterated %d samples, want %d", count, 1201*1201)
	}

	// Bounds: a coordinate well outside the tile returns false.
	if _, ok := parsed.Get(tile.Coord{X: 10.5, Y: 11.1}); ok {
		t.Fatal("expected out-of-bounds Get to return false")
	}
	if _, ok := parsed.Get(tile.Coord{X: 11.1, Y: 10.5}); ok {
		t.Fatal("expected out-of-bounds Get to return false")
	}

	// In-memory and memory-mapped backings must agree everywhere.
	for _, coord := range []tile.Coord{
		{X: 10.0, Y: 10.0},
		{X: 10.5, Y: 10.5},
		{X: 10.999, Y: 10.999},
	} {
		pe, pok := parsed.Get(coord)
		me, mok := mapped.Get(coord)
		if pok != mok || pe != me {
			t.Fatalf("coord %+v: in-mem (%d,%v) != mmap (%d,%v)", coord, pe, pok, me, mok)
		}
	}
}

func TestMinMaxElevation(t *testing.T) {
	dir := t.TempDir()
	path := writeHGT(t, dir, "N20E020.hgt", func(idx int) int16 {
		if idx == 0 {
			return -100
		}
		if idx == 1 {
			return 5000
		}
		return 0
	})
	tl, err := tile.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tl.Close()

	if got := tl.MinElevation(); got != -100 {
		t.Errorf("MinElevation() = %d, want -100", got)
	}
	if got := tl.MaxElevation(); got != 5000 {
		t.Errorf("MaxElevation() = %d, want 5000", got)
	}
	// Re-read must be memoized and consistent.
	if got := tl.MinElevation(); got != -100 {
		t.Errorf("memoized MinElevation() = %d, want -100", got)
	}
}

func TestPolygon(t *testing.T) {
	ring := tile.Polygon(-72.0, 44.0, 3)
	if ring[0] != ring[4] {
		t.Fatalf("polygon ring is not closed: %+v", ring)
	}
	const half = 3.0 / (2.0 * 3600.0)
	if math.Abs(ring[0][0]-(-72.0-half)) > 1e-12 {
		t.Fatalf("unexpected west edge: %v", ring[0][0])
	}
}

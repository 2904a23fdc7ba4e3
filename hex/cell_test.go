package hex_test

import (
	"testing"

	"github.com/novalabsxyz/geoprop/hex"
)

func TestFromLatLngRoundTripsResolution(t *testing.T) {
	c := hex.FromLatLng(37.775, -122.418, 9)
	if !c.IsValid() {
		t.Fatalf("cell %v is not valid", c)
	}
	if got := c.Resolution(); got != 9 {
		t.Errorf("Resolution() = %d, want 9", got)
	}
}

func TestNewCellRejectsGarbage(t *testing.T) {
	if _, err := hex.NewCell(0xdeadbeef); err == nil {
		t.Fatal("expected error for a non-H3 raw id")
	}
}

func TestParentChildRoundTrip(t *testing.T) {
	c := hex.FromLatLng(37.775, -122.418, 10)
	parent := c.Parent(5)
	if parent.Resolution() != 5 {
		t.Fatalf("Parent(5).Resolution() = %d, want 5", parent.Resolution())
	}

	kids := parent.Children(6)
	found := false
	for _, k := range kids {
		if k == c.Parent(6) {
			found = true
			break
		}
	}
	if !found {
		t.Error("c's resolution-6 ancestor is not among its resolution-5 ancestor's children")
	}
}

func TestImmediateChildrenCount(t *testing.T) {
	c := hex.FromLatLng(0, 0, 3)
	kids := c.ImmediateChildren()
	n := 0
	for _, k := range kids {
		if k != 0 {
			n++
		}
	}
	if n != 6 && n != 7 {
		t.Errorf("got %d non-zero immediate children, want 6 (pentagon) or 7", n)
	}
}

func TestBoundaryHasAtLeastFiveVertices(t *testing.T) {
	c := hex.FromLatLng(10.1, 10.1, 9)
	b := c.Boundary()
	if len(b) < 5 {
		t.Fatalf("boundary has %d vertices, want at least 5 (pentagon)", len(b))
	}
}

func TestPolyfillPolygonCoversCenter(t *testing.T) {
	loop := []hex.LatLng{
		{Lat: 10.0, Lng: 10.0},
		{Lat: 10.0, Lng: 10.1},
		{Lat: 10.1, Lng: 10.1},
		{Lat: 10.1, Lng: 10.0},
	}
	cells := hex.PolyfillPolygon(loop, nil, 9)
	if len(cells) == 0 {
		t.Fatal("expected at least one covering cell")
	}
	mid := hex.FromLatLng(10.05, 10.05, 9)
	found := false
	for _, c := range cells {
		if c == mid {
			found = true
			break
		}
	}
	if !found {
		t.Error("polyfill of the square did not include the cell at its own center")
	}
}

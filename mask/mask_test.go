package mask_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/novalabsxyz/geoprop/mask"
)

const squareFeatureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[10.0, 10.0], [10.0, 11.0], [11.0, 11.0], [11.0, 10.0], [10.0, 10.0]]]
      }
    }
  ]
}`

func writeMask(t *testing.T, content string) *mask.Mask {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mask.geojson")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := mask.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m
}

func TestContainsInsideAndOutside(t *testing.T) {
	m := writeMask(t, squareFeatureCollection)

	if !m.Contains(orb.Point{10.5, 10.5}) {
		t.Error("expected point inside the square to be contained")
	}
	if m.Contains(orb.Point{0, 0}) {
		t.Error("expected point far outside the square to not be contained")
	}
}

func TestIntersectsOverlappingAndDisjoint(t *testing.T) {
	m := writeMask(t, squareFeatureCollection)

	overlapping := orb.Polygon{orb.Ring{
		{10.5, 10.5}, {10.5, 12}, {12, 12}, {12, 10.5}, {10.5, 10.5},
	}}
	if !m.Intersects(overlapping) {
		t.Error("expected overlapping polygon to intersect")
	}

	disjoint := orb.Polygon{orb.Ring{
		{50, 50}, {50, 51}, {51, 51}, {51, 50}, {50, 50},
	}}
	if m.Intersects(disjoint) {
		t.Error("expected disjoint polygon to not intersect")
	}
}

package fresnel_test

import (
	"math"
	"testing"

	"github.com/novalabsxyz/geoprop/fresnel"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSeriesZeroLength(t *testing.T) {
	out := fresnel.Series[float64](1, 1.0, 10e3, 0)
	if len(out) != 0 {
		t.Fatalf("len = %d, want 0", len(out))
	}
}

func TestSeriesZones(t *testing.T) {
	cases := []struct {
		zone int
		want float64
	}{
		{1, 9.125551094469735},
		{2, 12.90547812192774},
		{3, 15.805918142687355},
	}
	for _, c := range cases {
		out := fresnel.Series[float64](c.zone, 900e6, 1e3, 3)
		if len(out) != 3 {
			t.Fatalf("zone %d: len = %d, want 3", c.zone, len(out))
		}
		if out[0] != 0 || out[2] != 0 {
			t.Errorf("zone %d: endpoints = %v, %v, want 0, 0", c.zone, out[0], out[2])
		}
		if !almostEqual(out[1], c.want) {
			t.Errorf("zone %d: midpoint = %v, want %v", c.zone, out[1], c.want)
		}
	}
}

package walker_test

import (
	"math"
	"testing"

	"github.com/novalabsxyz/geoprop/walker"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestWalkerKnownVector(t *testing.T) {
	start := walker.Point[float64]{X: -0.5, Y: -0.5}
	end := walker.Point[float64]{X: 0.5, Y: 0.5}
	const stepSizeM = 17_472.510284442324

	w := walker.New(start, end, stepSizeM)
	if got := w.Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}
	if !almostEqual(float64(w.StepSizeM()), stepSizeM, 1e-6) {
		t.Fatalf("StepSizeM() = %v, want %v", w.StepSizeM(), stepSizeM)
	}

	want := []walker.Point[float64]{
		{X: -0.5, Y: -0.5},
		{X: -0.38888498879915234, Y: -0.3888908388952553},
		{X: -0.2777729026876084, Y: -0.2777802152664852},
		{X: -0.1666629058941368, Y: -0.16666854700519793},
		{X: -0.05555416267893612, Y: -0.055556251975400386},
		{X: 0.05555416267893612, Y: 0.055556251975400386},
		{X: 0.1666629058941367, Y: 0.16666854700519784},
		{X: 0.27777290268760824, Y: 0.2777802152664851},
		{X: 0.3888849887991523, Y: 0.3888908388952552},
		{X: 0.5, Y: 0.5},
	}

	for i, w2 := range want {
		p, ok := w.Next()
		if !ok {
			t.Fatalf("point %d: walker exhausted early", i)
		}
		if !almostEqual(float64(p.X), float64(w2.X), 1e-9) || !almostEqual(float64(p.Y), float64(w2.Y), 1e-9) {
			t.Errorf("point %d = %+v, want %+v", i, p, w2)
		}
	}
	if _, ok := w.Next(); ok {
		t.Fatal("walker produced more than 10 points")
	}
}

func TestWalkerEndpointsExact(t *testing.T) {
	start := walker.Point[float64]{X: 12.34, Y: -56.78}
	end := walker.Point[float64]{X: -98.76, Y: 54.32}

	w := walker.New(start, end, 50_000.0)
	first, ok := w.Next()
	if !ok {
		t.Fatal("expected at least one point")
	}
	if first != start {
		t.Errorf("first point = %+v, want exactly %+v", first, start)
	}

	var last walker.Point[float64]
	for {
		p, ok := w.Next()
		if !ok {
			break
		}
		last = p
	}
	if last != end {
		t.Errorf("last point = %+v, want exactly %+v", last, end)
	}
}

func TestWalkerFloat32(t *testing.T) {
	start := walker.Point[float32]{X: -0.5, Y: -0.5}
	end := walker.Point[float32]{X: 0.5, Y: 0.5}

	w := walker.New(start, end, float32(17_472.51))
	first, ok := w.Next()
	if !ok || first != start {
		t.Fatalf("first point = %+v, ok=%v, want %+v", first, ok, start)
	}
	var last walker.Point[float32]
	for {
		p, ok := w.Next()
		if !ok {
			break
		}
		last = p
	}
	if math.Abs(float64(last.X)-float64(end.X)) > 1e-4 || math.Abs(float64(last.Y)-float64(end.Y)) > 1e-4 {
		t.Errorf("last point = %+v, want close to %+v", last, end)
	}
}

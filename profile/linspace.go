package profile

import "github.com/novalabsxyz/geoprop/walker"

// linspace returns n evenly spaced values from start to end,
// inclusive of both endpoints.
func linspace[T walker.Float](start, end T, n int) []T {
	out := make([]T, n)
	if n == 1 {
		out[0] = start
		return out
	}
	dy := (end - start) / T(n-1)
	for i := 0; i < n; i++ {
		out[i] = start + T(i)*dy
	}
	return out
}

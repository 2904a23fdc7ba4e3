package hex_test

import (
	"testing"

	"github.com/novalabsxyz/geoprop/hex"
)

func siblingsOf(t *testing.T, res int) []hex.Cell {
	t.Helper()
	parent := hex.FromLatLng(10.05, 10.05, res-1)
	kids := parent.Children(res)
	if len(kids) != 7 {
		t.Fatalf("expected 7 children, got %d (pentagon cell picked by accident)", len(kids))
	}
	return kids
}

func TestEqualityCompactorCollapsesOnAllEqual(t *testing.T) {
	kids := siblingsOf(t, 10)
	parent := kids[0].Parent(kids[0].Resolution() - 1)

	tree := hex.NewTree[int](hex.EqualityCompactor[int]{})
	for _, c := range kids {
		tree.Insert(c, 42)
	}

	matched, v, ok := tree.Get(kids[0])
	if !ok {
		t.Fatal("expected a match for kids[0]")
	}
	if matched != parent {
		t.Errorf("matched cell = %v, want the compacted parent %v", matched, parent)
	}
	if v != 42 {
		t.Errorf("value = %d, want 42", v)
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (collapsed to a single leaf)", tree.Len())
	}
}

func TestEqualityCompactorLeavesUnequalChildrenSeparate(t *testing.T) {
	kids := siblingsOf(t, 10)

	tree := hex.NewTree[int](hex.EqualityCompactor[int]{})
	for i, c := range kids {
		tree.Insert(c, i)
	}

	if tree.Len() != 7 {
		t.Errorf("Len() = %d, want 7 (no compaction across distinct values)", tree.Len())
	}
	for i, c := range kids {
		matched, v, ok := tree.Get(c)
		if !ok || matched != c || v != i {
			t.Errorf("Get(kids[%d]) = (%v, %d, %v), want (%v, %d, true)", i, matched, v, ok, c, i)
		}
	}
}

func TestCloseEnoughCompactorTolerance(t *testing.T) {
	kids := siblingsOf(t, 10)

	tree := hex.NewTree[hex.Elevation](hex.CloseEnoughCompactor{Tolerance: 5})
	for i, c := range kids {
		tree.Insert(c, hex.NewElevation(int16(100+i)))
	}
	// values span 100..106, spread 6 > tolerance 5: must not collapse.
	if tree.Len() != 7 {
		t.Errorf("Len() = %d, want 7 (spread exceeds tolerance)", tree.Len())
	}

	tree2 := hex.NewTree[hex.Elevation](hex.CloseEnoughCompactor{Tolerance: 10})
	for i, c := range kids {
		tree2.Insert(c, hex.NewElevation(int16(100+i)))
	}
	if tree2.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (spread within tolerance)", tree2.Len())
	}
	_, v, ok := tree2.Get(kids[0])
	if !ok {
		t.Fatal("expected a match")
	}
	if v.Min != 100 || v.Max != 106 || v.N != 7 {
		t.Errorf("combined = %+v, want min=100 max=106 n=7", v)
	}
}

func TestCloseEnoughCompactorIgnoresVoidChildren(t *testing.T) {
	kids := siblingsOf(t, 10)

	tree := hex.NewTree[hex.Elevation](hex.CloseEnoughCompactor{Tolerance: 2})
	for i, c := range kids {
		if i == 0 {
			tree.Insert(c, hex.NewElevation(hex.VoidElevation))
			continue
		}
		tree.Insert(c, hex.NewElevation(100))
	}
	if tree.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (void child excluded from spread)", tree.Len())
	}
	_, v, _ := tree2Get(t, tree, kids[1])
	if v.N != 6 {
		t.Errorf("combined N = %d, want 6 (void sample excluded)", v.N)
	}
}

func tree2Get(t *testing.T, tree *hex.Tree[hex.Elevation], c hex.Cell) (hex.Cell, hex.Elevation, bool) {
	t.Helper()
	matched, v, ok := tree.Get(c)
	if !ok {
		t.Fatalf("expected a match for %v", c)
	}
	return matched, v, ok
}

func TestReductionCompactorOnlyAtTargetResolution(t *testing.T) {
	kids := siblingsOf(t, 10)
	parentRes := kids[0].Resolution() - 1

	tree := hex.NewTree[hex.Elevation](hex.ReductionCompactor{TargetResolution: parentRes})
	for i, c := range kids {
		tree.Insert(c, hex.NewElevation(int16(i)))
	}
	if tree.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (collapsed at target resolution)", tree.Len())
	}
	_, v, ok := tree.Get(kids[0])
	if !ok {
		t.Fatal("expected a match")
	}
	if v.N != 7 || v.Sum != 0+1+2+3+4+5+6 {
		t.Errorf("combined = %+v, want N=7 Sum=21", v)
	}
}

func TestReductionCompactorStopsAboveTarget(t *testing.T) {
	kids := siblingsOf(t, 10)
	parentRes := kids[0].Resolution() - 1

	tree := hex.NewTree[hex.Elevation](hex.ReductionCompactor{TargetResolution: parentRes + 1})
	for i, c := range kids {
		tree.Insert(c, hex.NewElevation(int16(i)))
	}
	if tree.Len() != 7 {
		t.Errorf("Len() = %d, want 7 (target resolution is finer than the parent)", tree.Len())
	}
}

func TestGetMissesUnrelatedCell(t *testing.T) {
	tree := hex.NewTree[int](hex.EqualityCompactor[int]{})
	tree.Insert(hex.FromLatLng(10, 10, 9), 1)
	if _, _, ok := tree.Get(hex.FromLatLng(-10, -10, 9)); ok {
		t.Error("expected no match for an unrelated cell")
	}
}

func TestIterateVisitsEveryLeaf(t *testing.T) {
	kids := siblingsOf(t, 10)
	tree := hex.NewTree[int](hex.EqualityCompactor[int]{})
	for i, c := range kids {
		tree.Insert(c, i)
	}
	seen := map[hex.Cell]int{}
	tree.Iterate(func(c hex.Cell, v int) bool {
		seen[c] = v
		return true
	})
	if len(seen) != 7 {
		t.Errorf("iterate visited %d leaves, want 7", len(seen))
	}
}

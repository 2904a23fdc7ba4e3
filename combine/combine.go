// Package combine merges many tessellation files into a single
// DiskTree, using a chosen compactor to decide how sibling cells are
// coalesced, with an optional verify pass that re-reads the written
// file and checks every entry against the in-memory tree it came
// from.
package combine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"

	"github.com/novalabsxyz/geoprop/disktree"
	"github.com/novalabsxyz/geoprop/hex"
	"github.com/novalabsxyz/geoprop/mask"
)

// Compactor selects which of hex's three compaction strategies
// combine a file with.
type Compactor string

const (
	Equality    Compactor = "equality"
	CloseEnough Compactor = "close-enough"
	Reduction   Compactor = "reduction"
)

// Options configures a combine run.
type Options struct {
	Compactor Compactor

	// Tolerance is the CloseEnough compactor's allowed min/max spread.
	Tolerance int16

	// SourceResolution is the resolution tessellation files were
	// written at; TargetResolution is where the Reduction compactor
	// stops collapsing. Both are required for Compactor == Reduction.
	SourceResolution int
	TargetResolution int

	// Mask, if set, drops any cell whose center falls outside it.
	Mask *mask.Mask

	// Verify re-opens the written DiskTree and checks every entry
	// round-trips against the in-memory tree.
	Verify bool
}

// Run reads every tessellation file in inputPaths, inserts its
// records into one in-memory tree using opts.Compactor, writes the
// result to outPath as a DiskTree, and returns the number of leaves
// written.
func Run(inputPaths []string, outPath string, opts Options) (int, error) {
	switch opts.Compactor {
	case Equality:
		return runEquality(inputPaths, outPath, opts)
	case CloseEnough:
		return runElevation(inputPaths, outPath, opts, hex.CloseEnoughCompactor{Tolerance: opts.Tolerance})
	case Reduction:
		return runReduction(inputPaths, outPath, opts)
	default:
		return 0, fmt.Errorf("combine: unknown compactor %q", opts.Compactor)
	}
}

func runEquality(inputPaths []string, outPath string, opts Options) (int, error) {
	tree := hex.NewTree[int16](hex.EqualityCompactor[int16]{})
	if err := readAll(inputPaths, opts.Mask, func(c hex.Cell, elev int16) {
		tree.Insert(c, elev)
	}); err != nil {
		return 0, err
	}

	log.Printf("combine: writing %s (%d leaves)", outPath, tree.Len())
	if err := disktree.Write(outPath, tree, int16Codec{}); err != nil {
		return 0, err
	}
	if opts.Verify {
		if err := verifyEquality(outPath, tree); err != nil {
			return 0, err
		}
	}
	return tree.Len(), nil
}

func runElevation(inputPaths []string, outPath string, opts Options, compactor hex.Compactor[hex.Elevation]) (int, error) {
	tree := hex.NewTree[hex.Elevation](compactor)
	if err := readAll(inputPaths, opts.Mask, func(c hex.Cell, elev int16) {
		tree.Insert(c, hex.NewElevation(elev))
	}); err != nil {
		return 0, err
	}

	log.Printf("combine: writing %s (%d leaves)", outPath, tree.Len())
	if err := disktree.Write(outPath, tree, ElevationCodec{}); err != nil {
		return 0, err
	}
	if opts.Verify {
		if err := verifyElevation(outPath, tree); err != nil {
			return 0, err
		}
	}
	return tree.Len(), nil
}

func runReduction(inputPaths []string, outPath string, opts Options) (int, error) {
	if opts.SourceResolution <= opts.TargetResolution {
		return 0, fmt.Errorf("combine: source resolution %d must be finer than target resolution %d", opts.SourceResolution, opts.TargetResolution)
	}

	tree := hex.NewTree[hex.Elevation](hex.ReductionCompactor{TargetResolution: opts.TargetResolution})
	if err := readAll(inputPaths, opts.Mask, func(c hex.Cell, elev int16) {
		tree.Insert(c, hex.NewElevation(elev))
	}); err != nil {
		return 0, err
	}

	pruned := pruneReduction(tree, opts.SourceResolution, opts.TargetResolution)
	log.Printf("combine: writing %s (%d of %d leaves after reduction)", outPath, pruned.Len(), tree.Len())
	if err := disktree.Write(outPath, pruned, ElevationCodec{}); err != nil {
		return 0, err
	}
	if opts.Verify {
		if err := verifyElevation(outPath, pruned); err != nil {
			return 0, err
		}
	}
	return pruned.Len(), nil
}

// pruneReduction keeps only cells at exactly targetRes whose combined
// count equals 7^(sourceRes-targetRes): a leaf left uncollapsed at a
// finer resolution, or a summary with a short count, indicates some
// descendant data was missing and is dropped rather than emitted as a
// misleadingly-precise average.
func pruneReduction(tree *hex.Tree[hex.Elevation], sourceRes, targetRes int) *hex.Tree[hex.Elevation] {
	expectedN := int32(1)
	for i := 0; i < sourceRes-targetRes; i++ {
		expectedN *= 7
	}

	out := hex.NewTree[hex.Elevation](hex.EqualityCompactor[hex.Elevation]{})
	tree.Iterate(func(c hex.Cell, v hex.Elevation) bool {
		if c.Resolution() == targetRes && v.N == expectedN {
			out.Insert(c, v)
		}
		return true
	})
	return out
}

func readAll(inputPaths []string, m *mask.Mask, insert func(hex.Cell, int16)) error {
	for _, path := range inputPaths {
		log.Printf("combine: reading %s", path)
		if err := readTessellation(path, func(c hex.Cell, elev int16) error {
			if m != nil && !containsCellCenter(m, c) {
				return nil
			}
			insert(c, elev)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func containsCellCenter(m *mask.Mask, c hex.Cell) bool {
	center := c.Center()
	return m.Contains(orb.Point{center.Lng, center.Lat})
}

func readTessellation(path string, visit func(hex.Cell, int16) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer gr.Close()
	r := bufio.NewReader(gr)

	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return fmt.Errorf("%s: reading record count: %w", path, err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	var rec [10]byte
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return fmt.Errorf("%s: record %d: %w", path, i, err)
		}
		cell, err := hex.NewCell(binary.LittleEndian.Uint64(rec[0:8]))
		if err != nil {
			return fmt.Errorf("%s: record %d: %w", path, i, err)
		}
		elev := int16(binary.LittleEndian.Uint16(rec[8:10]))
		if err := visit(cell, elev); err != nil {
			return err
		}
	}
	return nil
}

func verifyEquality(path string, tree *hex.Tree[int16]) error {
	dt, err := disktree.Open(path)
	if err != nil {
		return err
	}
	defer dt.Close()

	count := 0
	var mismatch error
	iterErr := disktree.Iterate(dt, int16Codec{}.Decode, func(c hex.Cell, v int16) bool {
		matched, want, ok := tree.Get(c)
		if !ok || matched != c || want != v {
			mismatch = fmt.Errorf("combine: verify mismatch at cell %v", c)
			return false
		}
		count++
		return true
	})
	if iterErr != nil {
		return iterErr
	}
	if mismatch != nil {
		return mismatch
	}
	if count != tree.Len() {
		return fmt.Errorf("combine: verify count mismatch: disktree has %d, tree has %d", count, tree.Len())
	}
	return nil
}

func verifyElevation(path string, tree *hex.Tree[hex.Elevation]) error {
	dt, err := disktree.Open(path)
	if err != nil {
		return err
	}
	defer dt.Close()

	count := 0
	var mismatch error
	iterErr := disktree.Iterate(dt, ElevationCodec{}.Decode, func(c hex.Cell, v hex.Elevation) bool {
		matched, want, ok := tree.Get(c)
		if !ok || matched != c || want.Min != v.Min || want.Max != v.Max || want.Avg() != v.Avg() {
			mismatch = fmt.Errorf("combine: verify mismatch at cell %v", c)
			return false
		}
		count++
		return true
	})
	if iterErr != nil {
		return iterErr
	}
	if mismatch != nil {
		return mismatch
	}
	if count != tree.Len() {
		return fmt.Errorf("combine: verify count mismatch: disktree has %d, tree has %d", count, tree.Len())
	}
	return nil
}

// int16Codec encodes a bare elevation value, used by the Equality
// flow where no summary is kept.
type int16Codec struct{}

func (int16Codec) Size() int { return 2 }

func (int16Codec) Encode(v int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

func (int16Codec) Decode(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

// ElevationCodec is the fixed 6-byte (min, avg, max) codec spec.md
// §4.8 mandates for the terrain use case.
type ElevationCodec struct{}

func (ElevationCodec) Size() int { return 6 }

func (ElevationCodec) Encode(v hex.Elevation) []byte {
	b := make([]byte, 6)
	binary.LittleEndian.PutUint16(b[0:2], uint16(v.Min))
	binary.LittleEndian.PutUint16(b[2:4], uint16(v.Avg()))
	binary.LittleEndian.PutUint16(b[4:6], uint16(v.Max))
	return b
}

func (ElevationCodec) Decode(b []byte) hex.Elevation {
	return hex.Elevation{
		Min: int16(binary.LittleEndian.Uint16(b[0:2])),
		Sum: int64(int16(binary.LittleEndian.Uint16(b[2:4]))),
		Max: int16(binary.LittleEndian.Uint16(b[4:6])),
		N:   1,
	}
}

// Package tessellate converts elevation tiles into H3-indexed
// tessellation files: for every sample, its footprint polygon is
// polyfilled to cells at a fixed resolution, and (cell, elevation)
// pairs are written to a gzip .h3tez file.
package tessellate

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/alitto/pond"
	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"

	"github.com/novalabsxyz/geoprop/hex"
	"github.com/novalabsxyz/geoprop/mask"
	"github.com/novalabsxyz/geoprop/tile"
)

// Options configures a tessellation run.
type Options struct {
	// Resolution is the target H3 resolution samples are polyfilled
	// to. Default 12.
	Resolution int
	// Overwrite re-tessellates a tile even if its output file already
	// exists.
	Overwrite bool
	// Compression is the gzip compression level (see compress/gzip).
	// 0 means gzip.DefaultCompression.
	Compression int
	// Mask, if set, skips tiles whose footprint does not intersect it.
	Mask *mask.Mask
	// Workers bounds concurrency. 0 means 2*runtime.NumCPU().
	Workers int
}

func (o Options) resolution() int {
	if o.Resolution == 0 {
		return 12
	}
	return o.Resolution
}

func (o Options) compression() int {
	if o.Compression == 0 {
		return gzip.DefaultCompression
	}
	return o.Compression
}

// Run tessellates every tile in tilePaths into outDir, fanning the
// work out across a pond worker pool, one task per input file with no
// shared state between them. The first per-file failure cancels the pool's
// context so no further tiles start, and is returned; there is no
// partial-success outcome.
func Run(ctx context.Context, tilePaths []string, outDir string, opts Options) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pond.New(workers, 0, pond.MinWorkers(workers), pond.Context(runCtx))

	var mu sync.Mutex
	var firstErr error

	for _, path := range tilePaths {
		path := path
		pool.Submit(func() {
			select {
			case <-runCtx.Done():
				return
			default:
			}
			if err := tessellateOne(path, outDir, opts); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("tessellate %s: %w", path, err)
					cancel()
				}
				mu.Unlock()
			}
		})
	}
	pool.StopAndWait()
	return firstErr
}

func tessellateOne(tilePath, outDir string, opts Options) error {
	outName := filepath.Base(tilePath) + fmt.Sprintf(".res%d.h3tez", opts.resolution())
	outPath := filepath.Join(outDir, outName)

	if !opts.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			log.Printf("tessellate: %s exists, skipping", outPath)
			return nil
		}
	}

	t, err := tile.OpenMemMap(tilePath)
	if err != nil {
		return err
	}
	defer t.Close()

	if opts.Mask != nil && !opts.Mask.Intersects(tileFootprint(t)) {
		log.Printf("tessellate: %s does not intersect mask, skipping", tilePath)
		return nil
	}

	log.Printf("tessellate: %s -> %s", tilePath, outPath)
	cellElev, err := tessellateTile(t, opts.resolution())
	if err != nil {
		return err
	}

	return writeH3Tez(outPath, cellElev, opts.compression())
}

func tessellateTile(t *tile.Tile, resolution int) (map[hex.Cell]int16, error) {
	cells := make(map[hex.Cell]int16)
	it := t.Iter()
	for {
		sample, ok := it.Next()
		if !ok {
			break
		}
		if sample.Elevation == math.MinInt16 {
			continue
		}
		poly := tile.Polygon(sample.CenterX, sample.CenterY, sample.ResolutionArcsec)
		loop := make([]hex.LatLng, len(poly))
		for i, p := range poly {
			loop[i] = hex.LatLng{Lat: p[1], Lng: p[0]}
		}
		for _, c := range hex.PolyfillPolygon(loop, nil, resolution) {
			cells[c] = sample.Elevation
		}
	}
	return cells, nil
}

func writeH3Tez(outPath string, cells map[hex.Cell]int16, level int) error {
	tmpPath := outPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	gw, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	bw := bufio.NewWriter(gw)

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(cells)))
	if _, err := bw.Write(countBuf[:]); err != nil {
		return abortWrite(f, tmpPath, err)
	}

	var recBuf [10]byte
	for cell, elev := range cells {
		binary.LittleEndian.PutUint64(recBuf[0:8], uint64(cell))
		binary.LittleEndian.PutUint16(recBuf[8:10], uint16(elev))
		if _, err := bw.Write(recBuf[:]); err != nil {
			return abortWrite(f, tmpPath, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return abortWrite(f, tmpPath, err)
	}
	if err := gw.Close(); err != nil {
		return abortWrite(f, tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, outPath)
}

func abortWrite(f *os.File, tmpPath string, err error) error {
	f.Close()
	os.Remove(tmpPath)
	return err
}

func tileFootprint(t *tile.Tile) orb.Polygon {
	sw := t.SWCorner()
	ne := t.NECorner()
	ring := orb.Ring{
		{sw.X, sw.Y},
		{ne.X, sw.Y},
		{ne.X, ne.Y},
		{sw.X, ne.Y},
		{sw.X, sw.Y},
	}
	return orb.Polygon{ring}
}

package tessellate_test

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/novalabsxyz/geoprop/tessellate"
)

func writeSmallTile(t *testing.T, dir, name string) string {
	t.Helper()
	// 3 arcsec tile, 1201x1201, filled with a constant, non-void
	// elevation so every sample tessellates.
	buf := make([]byte, 2*1201*1201)
	for i := 0; i < 1201*1201; i++ {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], uint16(250))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readH3Tez(t *testing.T, path string) map[uint64]int16 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer gr.Close()
	r := bufio.NewReader(gr)

	var countBuf [8]byte
	if _, err := r.Read(countBuf[:]); err != nil {
		t.Fatal(err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	out := make(map[uint64]int16, count)
	var rec [10]byte
	for i := uint64(0); i < count; i++ {
		if _, err := readFull(r, rec[:]); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		cell := binary.LittleEndian.Uint64(rec[0:8])
		elev := int16(binary.LittleEndian.Uint16(rec[8:10]))
		out[cell] = elev
	}
	return out
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func TestRunProducesH3Tez(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	tilePath := writeSmallTile(t, srcDir, "N10E010.hgt")

	err := tessellate.Run(context.Background(), []string{tilePath}, outDir, tessellate.Options{
		Resolution: 6,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	outPath := filepath.Join(outDir, "N10E010.hgt.res6.h3tez")
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected output file: %v", err)
	}

	cells := readH3Tez(t, outPath)
	if len(cells) == 0 {
		t.Fatal("expected at least one tessellated cell")
	}
	for cell, elev := range cells {
		if elev != 250 {
			t.Errorf("cell %d elevation = %d, want 250", cell, elev)
		}
	}
}

func TestRunSkipsExistingOutputWithoutOverwrite(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	tilePath := writeSmallTile(t, srcDir, "N10E010.hgt")
	outPath := filepath.Join(outDir, "N10E010.hgt.res6.h3tez")

	if err := os.WriteFile(outPath, []byte("sentinel"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := tessellate.Run(context.Background(), []string{tilePath}, outDir, tessellate.Options{Resolution: 6})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "sentinel" {
		t.Error("existing output file was overwritten despite Overwrite=false")
	}
}

func TestRunReturnsErrorForMissingTile(t *testing.T) {
	outDir := t.TempDir()
	err := tessellate.Run(context.Background(), []string{"/no/such/tile.hgt"}, outDir, tessellate.Options{Resolution: 6})
	if err == nil {
		t.Fatal("expected an error for a nonexistent input tile")
	}
}

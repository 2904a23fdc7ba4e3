// Package tilestore implements a directory-backed, concurrency-safe
// cache of elevation tiles, loading them from disk on first access and
// substituting a tombstone for any missing file.
package tilestore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/novalabsxyz/geoprop/tile"
)

// Mode selects how a Store materializes tiles it loads from disk.
type Mode int

const (
	// InMem parses tiles fully into memory.
	InMem Mode = iota
	// MemMap memory-maps tile files instead of copying their samples.
	MemMap
)

const shardCount = 32

// Store is a concurrency-safe, directory-backed cache of tiles, keyed
// by their integer south-west corner. Concurrent Get calls for the
// same corner collapse to a single load; readers of an already-cached
// tile never block behind an in-flight one.
type Store struct {
	dir    string
	mode   Mode
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.RWMutex
	entries map[tile.SWCorner]*entry
}

// entry wraps a single tile's load, guaranteeing the load function
// runs exactly once per corner regardless of how many goroutines race
// to request it.
type entry struct {
	once    sync.Once
	tile    *tile.Tile
	loadErr error
}

// Open scans dir for at least one .hgt file (case-insensitive),
// failing with *NoHeightFilesError if none is found, and returns a
// Store that loads tiles from dir on demand using mode.
func Open(dir string, mode Mode) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tilestore: reading %s: %w", dir, err)
	}

	hasHeightFile := false
	for _, e := range entries {
		if strings.EqualFold(filepath.Ext(e.Name()), ".hgt") {
			hasHeightFile = true
			break
		}
	}
	if !hasHeightFile {
		return nil, &NoHeightFilesError{Dir: dir}
	}

	s := &Store{dir: dir, mode: mode}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[tile.SWCorner]*entry)}
	}
	return s, nil
}

func (s *Store) shardFor(sw tile.SWCorner) *shard {
	h := uint32(sw.X)*2654435761 + uint32(sw.Y)*40503
	return s.shards[h%shardCount]
}

// Get returns the tile containing coord, loading it from disk (or
// substituting a tombstone, if no file covers it) on first access.
// Concurrent callers requesting the same corner collapse to one load.
func (s *Store) Get(coord tile.Coord) (*tile.Tile, error) {
	sw := tile.SWCorner{X: int(floor(coord.X)), Y: int(floor(coord.Y))}
	sh := s.shardFor(sw)

	sh.mu.RLock()
	e, ok := sh.entries[sw]
	sh.mu.RUnlock()

	if !ok {
		sh.mu.Lock()
		if e, ok = sh.entries[sw]; !ok {
			e = &entry{}
			sh.entries[sw] = e
		}
		sh.mu.Unlock()
	}

	e.once.Do(func() {
		e.tile, e.loadErr = s.loadTile(sw)
	})
	return e.tile, e.loadErr
}

func floor(v float64) float64 {
	if v >= 0 {
		return float64(int64(v))
	}
	i := int64(v)
	if float64(i) != v {
		i--
	}
	return float64(i)
}

func (s *Store) loadTile(sw tile.SWCorner) (*tile.Tile, error) {
	path := filepath.Join(s.dir, tile.FileName(sw))
	if _, err := os.Stat(path); err != nil {
		lower := filepath.Join(s.dir, strings.ToLower(tile.FileName(sw)))
		if _, lowerErr := os.Stat(lower); lowerErr == nil {
			path = lower
		}
	}

	log.Printf("tilestore: loading %s", path)

	var t *tile.Tile
	var err error
	switch s.mode {
	case MemMap:
		t, err = tile.OpenMemMap(path)
	default:
		t, err = tile.Open(path)
	}
	if err == nil {
		return t, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("tilestore: no file for %s, using tombstone", tile.FileName(sw))
		return tile.Tombstone(sw), nil
	}
	return nil, err
}

// Close releases resources (e.g. memory mappings) held by every tile
// this Store has loaded so far.
func (s *Store) Close() error {
	var firstErr error
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			if e.tile == nil {
				continue
			}
			if err := e.tile.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		sh.mu.RUnlock()
	}
	return firstErr
}

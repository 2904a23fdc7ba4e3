package tile

import (
	"encoding/binary"

	"github.com/samber/lo"
)

// tombstoneStore always returns elevation 0, standing in for an
// ocean tile whose file does not exist on disk.
type tombstoneStore struct{}

func (tombstoneStore) get(int) int16 { return 0 }
func (tombstoneStore) min() int16    { return 0 }
func (tombstoneStore) max() int16    { return 0 }
func (tombstoneStore) close() error  { return nil }

// inMemStore holds a fully parsed sample grid.
type inMemStore struct {
	samples []int16
}

func (s *inMemStore) get(idx int) int16 { return s.samples[idx] }
func (s *inMemStore) close() error      { return nil }

func (s *inMemStore) min() int16 { return lo.Min(s.samples) }
func (s *inMemStore) max() int16 { return lo.Max(s.samples) }

// mmapStore reads big-endian i16 samples directly out of a
// memory-mapped file, by byte-offset arithmetic, without assuming
// host endianness.
type mmapStore struct {
	raw []byte
	f   mmapHandle
}

func (s *mmapStore) get(idx int) int16 {
	off := idx * 2
	return int16(binary.BigEndian.Uint16(s.raw[off : off+2]))
}

func (s *mmapStore) min() int16 {
	m := s.get(0)
	for i := 1; i < len(s.raw)/2; i++ {
		if v := s.get(i); v < m {
			m = v
		}
	}
	return m
}

func (s *mmapStore) max() int16 {
	m := s.get(0)
	for i := 1; i < len(s.raw)/2; i++ {
		if v := s.get(i); v > m {
			m = v
		}
	}
	return m
}

func (s *mmapStore) close() error {
	return s.f.Close()
}

// mmapHandle is the platform-specific handle backing a memory
// mapping; see mmap_unix.go and mmap_other.go.
type mmapHandle interface {
	Close() error
}

// Package disktree serializes a hex.Tree to a self-describing,
// random-access file: seek-to-cell in O(depth), or full pre-order
// iteration, without first loading the whole structure into memory.
//
// Node layout: a leaf is a one-byte tag
// followed by the codec-encoded value; an interior node is a one-byte
// tag, a 7-bit child-presence mask, then one 8-byte little-endian file
// offset per present child, in ascending child-index order. Children
// are written before their parent, so every offset points backward in
// the file. A fixed header records the magic, format version, leaf
// value size, and leaf count, followed by a root table mapping each
// resolution-0 base cell present in the tree to its node offset.
package disktree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/novalabsxyz/geoprop/hex"
)

const (
	magic   = "HXDT"
	version = 1

	leafTag     = 0x00
	interiorTag = 0x01

	fixedHeaderLen = 4 + 1 + 4 + 8 + 4 // magic, version, valueSize, leafCount, rootCount
)

// Codec encodes and decodes a fixed-size leaf value.
type Codec[V any] interface {
	Size() int
	Encode(v V) []byte
	Decode(b []byte) V
}

type rootEntry struct {
	cell   hex.Cell
	offset uint64
}

// Write serializes tree to path, encoding leaves with codec. The file
// is built in memory and written to a temporary path in path's
// directory, then renamed into place, so a crash mid-write never
// leaves a corrupt file at path.
func Write[V any](path string, tree *hex.Tree[V], codec Codec[V]) error {
	roots := tree.Export()
	base := uint64(fixedHeaderLen + len(roots)*16)

	var body bytes.Buffer
	rootOffsets := make([]rootEntry, len(roots))
	for i, r := range roots {
		off := writeNode(&body, base, r, codec)
		rootOffsets[i] = rootEntry{cell: r.Cell, offset: off}
	}

	var out bytes.Buffer
	out.WriteString(magic)
	out.WriteByte(version)
	writeU32(&out, uint32(codec.Size()))
	writeU64(&out, uint64(tree.Len()))
	writeU32(&out, uint32(len(rootOffsets)))
	for _, r := range rootOffsets {
		writeU64(&out, uint64(r.cell))
		writeU64(&out, r.offset)
	}
	out.Write(body.Bytes())

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".disktree-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func writeNode[V any](buf *bytes.Buffer, base uint64, n *hex.ExportNode[V], codec Codec[V]) uint64 {
	if n.Leaf {
		off := base + uint64(buf.Len())
		buf.WriteByte(leafTag)
		buf.Write(codec.Encode(n.Value))
		return off
	}

	var mask byte
	childOffsets := make([]uint64, 0, 7)
	for i := 0; i < 7; i++ {
		if n.Children[i] == nil {
			continue
		}
		childOffsets = append(childOffsets, writeNode(buf, base, n.Children[i], codec))
		mask |= 1 << uint(i)
	}

	off := base + uint64(buf.Len())
	buf.WriteByte(interiorTag)
	buf.WriteByte(mask)
	for _, co := range childOffsets {
		writeU64(buf, co)
	}
	return off
}

func writeU32(w io.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeU64(w io.Writer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

// source is the storage abstraction DiskTree reads through: *os.File
// for direct I/O, *mmap.ReaderAt for memory-mapped access. Both
// satisfy it, and both give random-access reads without loading the
// whole file.
type source interface {
	io.ReaderAt
	io.Closer
}

// DiskTree is a read-only handle on a serialized hex.Tree.
type DiskTree struct {
	src       source
	valueSize int
	leafCount uint64
	roots     []rootEntry
}

// Open opens path for direct file I/O.
func Open(path string) (*DiskTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return load(f)
}

// OpenMemMap opens path memory-mapped.
func OpenMemMap(path string) (*DiskTree, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return load(r)
}

func load(src source) (*DiskTree, error) {
	hdr := make([]byte, fixedHeaderLen)
	if _, err := src.ReadAt(hdr, 0); err != nil {
		src.Close()
		return nil, fmt.Errorf("disktree: reading header: %w", err)
	}
	if string(hdr[:4]) != magic {
		src.Close()
		return nil, fmt.Errorf("disktree: bad magic %q", hdr[:4])
	}
	if hdr[4] != version {
		src.Close()
		return nil, fmt.Errorf("disktree: unsupported format version %d", hdr[4])
	}
	valueSize := int(binary.LittleEndian.Uint32(hdr[5:9]))
	leafCount := binary.LittleEndian.Uint64(hdr[9:17])
	rootCount := binary.LittleEndian.Uint32(hdr[17:21])

	roots := make([]rootEntry, rootCount)
	if rootCount > 0 {
		buf := make([]byte, int(rootCount)*16)
		if _, err := src.ReadAt(buf, fixedHeaderLen); err != nil {
			src.Close()
			return nil, fmt.Errorf("disktree: reading root table: %w", err)
		}
		for i := range roots {
			off := i * 16
			roots[i] = rootEntry{
				cell:   hex.Cell(binary.LittleEndian.Uint64(buf[off : off+8])),
				offset: binary.LittleEndian.Uint64(buf[off+8 : off+16]),
			}
		}
	}

	return &DiskTree{src: src, valueSize: valueSize, leafCount: leafCount, roots: roots}, nil
}

// Close releases the underlying file or mapping.
func (d *DiskTree) Close() error {
	return d.src.Close()
}

// Len returns the number of leaves recorded in the header.
func (d *DiskTree) Len() int {
	return int(d.leafCount)
}

// ValueSize returns the fixed encoded leaf size.
func (d *DiskTree) ValueSize() int {
	return d.valueSize
}

func (d *DiskTree) readAt(off uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := d.src.ReadAt(buf, int64(off)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *DiskTree) childOffset(nodeOff uint64, idx int) (uint64, bool, error) {
	maskB, err := d.readAt(nodeOff+1, 1)
	if err != nil {
		return 0, false, err
	}
	mask := maskB[0]
	if mask&(1<<uint(idx)) == 0 {
		return 0, false, nil
	}
	pos := bits.OnesCount8(mask & ((1 << uint(idx)) - 1))
	b, err := d.readAt(nodeOff+2+uint64(pos)*8, 8)
	if err != nil {
		return 0, false, err
	}
	return binary.LittleEndian.Uint64(b), true, nil
}

// SeekToCell descends the trie toward cell in O(depth) reads,
// returning the matching (possibly ancestor, if that subtree was
// compacted) cell and its raw encoded value. ok is false if no stored
// cell covers the query.
func (d *DiskTree) SeekToCell(cell hex.Cell) (matched hex.Cell, value []byte, ok bool, err error) {
	path := hex.Path(cell)

	var offset uint64
	found := false
	for _, r := range d.roots {
		if r.cell == path[0] {
			offset = r.offset
			found = true
			break
		}
	}
	if !found {
		return 0, nil, false, nil
	}

	for r := 0; r < len(path); r++ {
		tagB, err := d.readAt(offset, 1)
		if err != nil {
			return 0, nil, false, err
		}
		if tagB[0] == leafTag {
			val, err := d.readAt(offset+1, d.valueSize)
			if err != nil {
				return 0, nil, false, err
			}
			return path[r], val, true, nil
		}
		if r == len(path)-1 {
			return 0, nil, false, nil
		}
		idx := hex.ChildIndex(path[r], path[r+1])
		childOff, ok, err := d.childOffset(offset, idx)
		if err != nil {
			return 0, nil, false, err
		}
		if !ok {
			return 0, nil, false, nil
		}
		offset = childOff
	}
	return 0, nil, false, nil
}

// Entry is one decoded (cell, value) pair yielded by Iterate.
type Entry[V any] struct {
	Cell  hex.Cell
	Value V
}

// Iterate walks the whole tree in pre-order, decoding each leaf with
// decode and calling yield. Traversal stops early if yield returns
// false.
func Iterate[V any](d *DiskTree, decode func([]byte) V, yield func(hex.Cell, V) bool) error {
	for _, r := range d.roots {
		cont, err := iterateNode(d, r.cell, r.offset, decode, yield)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func iterateNode[V any](d *DiskTree, cell hex.Cell, offset uint64, decode func([]byte) V, yield func(hex.Cell, V) bool) (bool, error) {
	tagB, err := d.readAt(offset, 1)
	if err != nil {
		return false, err
	}
	if tagB[0] == leafTag {
		val, err := d.readAt(offset+1, d.valueSize)
		if err != nil {
			return false, err
		}
		return yield(cell, decode(val)), nil
	}

	maskB, err := d.readAt(offset+1, 1)
	if err != nil {
		return false, err
	}
	mask := maskB[0]
	children := cell.Children(cell.Resolution() + 1)
	pos := 0
	for i := 0; i < 7; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		childOffB, err := d.readAt(offset+2+uint64(pos)*8, 8)
		if err != nil {
			return false, err
		}
		pos++
		cont, err := iterateNode(d, children[i], binary.LittleEndian.Uint64(childOffB), decode, yield)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	return true, nil
}

// ToAll drains Iterate into a slice, for callers (tests, small
// verification passes) that want every entry at once.
func ToAll[V any](d *DiskTree, decode func([]byte) V) ([]Entry[V], error) {
	var out []Entry[V]
	err := Iterate(d, decode, func(c hex.Cell, v V) bool {
		out = append(out, Entry[V]{Cell: c, Value: v})
		return true
	})
	return out, err
}

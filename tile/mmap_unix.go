//go:build unix

package tile

import (
	"os"
	"syscall"
)

// unixMmap memory-maps a file read-only for the lifetime of the
// returned handle.
type unixMmap struct {
	data []byte
}

func (m *unixMmap) Close() error {
	if m.data == nil {
		return nil
	}
	err := syscall.Munmap(m.data)
	m.data = nil
	return err
}

func newMmapStore(path string) (*mmapStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(info.Size())
	if size == 0 {
		return nil, os.ErrInvalid
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	handle := &unixMmap{data: data}
	return &mmapStore{raw: data, f: handle}, nil
}

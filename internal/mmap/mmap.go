// Package mmap provides a minimal read-only file mapping used when loading
// cache snapshots. Only whole-file, PROT_READ mappings are supported; an
// empty file maps to an empty, unmapped region.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

// ErrClosed is returned when accessing a closed mapping.
var ErrClosed = errors.New("mmap: mapping is closed")

// Mapping is a read-only view of an entire file.
type Mapping struct {
	data   []byte
	closed bool
}

// Open maps the file at path read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: file %s too large (%d bytes)", path, size)
	}

	data, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Mapping{data: data}, nil
}

// Data returns the mapped bytes. The slice is valid until Close; callers
// must treat it as read-only and must not retain it past Close.
func (m *Mapping) Data() []byte {
	if m.closed {
		return nil
	}
	return m.data
}

// Len returns the mapped size in bytes.
func (m *Mapping) Len() int { return len(m.data) }

// Close unmaps the region. Close is idempotent.
func (m *Mapping) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unmapFile(data)
}

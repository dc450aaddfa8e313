// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region is a contiguous byte range backed by mmap'd memory. A Region
// exclusively owns its mapping: dropping the last reference without
// calling Close leaks the pages until process exit, so callers release
// regions explicitly (typically via defer).
//
// Region is not safe for concurrent use.
type Region struct {
	data   []byte
	shared bool
}

// File maps size bytes of the file behind fd starting at offset zero.
// A writable mapping uses PROT_READ|PROT_WRITE; shared determines
// whether stores are carried through to the file (MAP_SHARED) or kept
// private to this mapping (MAP_PRIVATE). A zero size yields an empty
// region without calling mmap.
func File(fd int, size int64, writable, shared bool) (*Region, error) {
	if size == 0 {
		return Empty(), nil
	}
	if size < 0 {
		return nil, fmt.Errorf("mapping: negative size %d", size)
	}

	protections := unix.PROT_READ
	if writable {
		protections |= unix.PROT_WRITE
	}
	flags := unix.MAP_PRIVATE
	if shared {
		flags = unix.MAP_SHARED
	}

	data, err := unix.Mmap(fd, 0, int(size), protections, flags)
	if err != nil {
		return nil, fmt.Errorf("mapping: mmap of %d bytes: %w", size, err)
	}
	return &Region{data: data, shared: shared}, nil
}

// Anonymous allocates a private read-write mapping of the given size,
// not backed by any file. Used as scratch space for one-shot
// compression output. A zero size yields an empty region.
func Anonymous(size int64) (*Region, error) {
	if size == 0 {
		return Empty(), nil
	}
	if size < 0 {
		return nil, fmt.Errorf("mapping: negative size %d", size)
	}

	data, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mapping: anonymous mmap of %d bytes: %w", size, err)
	}
	return &Region{data: data}, nil
}

// Empty returns a region of size zero. Close is a no-op on it.
func Empty() *Region {
	return &Region{}
}

// Data returns the mapped byte range. The slice is valid until Close.
func (r *Region) Data() []byte {
	return r.data
}

// Size returns the length of the mapped range in bytes.
func (r *Region) Size() int64 {
	return int64(len(r.data))
}

// Sync flushes a shared writable mapping's stores to the backing file
// (MS_SYNC). Only meaningful for shared file mappings; calling it on a
// private or empty region is an error.
func (r *Region) Sync() error {
	if len(r.data) == 0 {
		return fmt.Errorf("mapping: cannot sync an empty region")
	}
	if !r.shared {
		return fmt.Errorf("mapping: cannot sync a private mapping")
	}
	if err := unix.Msync(r.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("mapping: msync: %w", err)
	}
	return nil
}

// Close releases the mapping. Safe to call more than once; after the
// first call Data returns nil.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("mapping: munmap: %w", err)
	}
	return nil
}

//go:build linux

// Package mapping installs the shared header page and the double-mapped
// data region described in spec.md §4.2 into the calling process's address
// space. The trick: reserve a contiguous, inaccessible virtual range of
// pageSize+2*capacity bytes, then overlay it with two adjacent MAP_FIXED
// mappings of the same file region — one at file offset 0 covering the
// header and the primary data image, one at file offset pageSize covering
// just the data region again. Any window of up to capacity bytes starting
// anywhere in [0, capacity) is then contiguous in virtual memory, even
// when it would wrap in the file.
package mapping

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PageSize is the host's page size, used to round capacities and to size
// the header page.
var PageSize = uintptr(os.Getpagesize())

// OpenHeader installs a temporary read-write MAP_SHARED mapping of just
// the first page of fd, used during capacity negotiation in Open before
// the final capacity — and therefore the final mapping size — is known.
func OpenHeader(fd int) ([]byte, error) {
	b, err := unix.Mmap(fd, 0, int(PageSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap header page: %w", err)
	}
	return b, nil
}

// CloseHeader unmaps a mapping returned by OpenHeader.
func CloseHeader(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("munmap header page: %w", err)
	}
	return nil
}

// Region is the final triple mapping installed by Install: a header page
// followed by two adjacent, aliased copies of the capacity-sized data
// region.
type Region struct {
	base     unsafe.Pointer
	pageSize uintptr
	capacity uintptr
}

// Install maps fd's header page plus capacity bytes of data region twice,
// back to back, per spec.md §4.2. fd must already be sized to
// PageSize+capacity bytes (Open truncates it before calling Install).
func Install(fd int, capacity uint32) (*Region, error) {
	pageSize := PageSize
	cap64 := uintptr(capacity)
	total := pageSize + 2*cap64

	reservation, err := unix.MmapPtr(-1, 0, nil, total,
		unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("reserve address space: %w", err)
	}

	if _, err := unix.MmapPtr(fd, 0, reservation, pageSize+cap64,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_SHARED); err != nil {
		_ = unix.MunmapPtr(reservation, total)
		return nil, fmt.Errorf("map header and primary data image: %w", err)
	}

	mirror := unsafe.Add(reservation, pageSize+cap64)
	if _, err := unix.MmapPtr(fd, int64(pageSize), mirror, cap64,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_SHARED); err != nil {
		_ = unix.MunmapPtr(reservation, total)
		return nil, fmt.Errorf("map data region mirror: %w", err)
	}

	return &Region{base: reservation, pageSize: pageSize, capacity: cap64}, nil
}

// Close unmaps the entire triple region.
func (r *Region) Close() error {
	if err := unix.MunmapPtr(r.base, r.pageSize+2*r.capacity); err != nil {
		return fmt.Errorf("munmap region: %w", err)
	}
	return nil
}

// Header returns a byte slice over the mapped header page.
func (r *Region) Header() []byte {
	return unsafe.Slice((*byte)(r.base), int(r.pageSize))
}

// Window returns a slice of n bytes starting at data-region offset off.
// Because of the double mapping, any off in [0, capacity) with
// off+n <= 2*capacity yields a contiguous slice, even across the wrap
// boundary at capacity.
func (r *Region) Window(off, n uintptr) []byte {
	base := unsafe.Add(r.base, r.pageSize+off)
	return unsafe.Slice((*byte)(base), int(n))
}

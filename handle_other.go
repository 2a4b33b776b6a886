//go:build !linux

package shmring

import "errors"

// ErrUnsupported is returned by Open on platforms without the mmap
// double-mapping and futex primitives this package depends on.
var ErrUnsupported = errors.New("shmring: unsupported on this platform")

// Handle is an opaque, unusable placeholder on non-Linux platforms.
type Handle struct{}

func Open(filename string, capacity uint32) (*Handle, error) {
	return nil, ErrUnsupported
}

func (h *Handle) GetCapacity() uint32 { return 0 }

func (h *Handle) GetFree(size *uint32) []byte { *size = 0; return nil }

func (h *Handle) Add(size uint32) {}

func (h *Handle) GetData(size *uint32) []byte { *size = 0; return nil }

func (h *Handle) Del(size uint32) {}

func (h *Handle) Close() error { return nil }

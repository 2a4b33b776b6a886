//go:build linux

// Package shmring implements a byte-oriented, single-producer/single-
// consumer ring buffer backed by a regular file and shared between
// processes via mmap. Producer and consumer sides open the same file
// independently — there is no separate server process — and coordinate
// through a small header of atomic counters plus the Linux futex(2)
// syscall for blocking.
//
// The public surface is deliberately narrow: Open, GetCapacity, GetFree,
// Add, GetData, Del, Close. GetFree and GetData block until the
// requested amount of space or data is available; a caller that wants
// non-blocking behavior passes a size of 0.
package shmring

import (
	"fmt"
	"os"

	"github.com/kroki-go/shmring/internal/futex"
	"github.com/kroki-go/shmring/internal/header"
	"github.com/kroki-go/shmring/internal/mapping"
	"github.com/kroki-go/shmring/shmringerr"
)

// Handle is one process's view of a ring buffer opened with Open. It is
// not safe for concurrent use by multiple goroutines on either side: the
// producer side and the consumer side are each expected to be driven by
// a single goroutine, exactly as the protocol's counters assume a single
// producer and a single consumer.
type Handle struct {
	file     *os.File
	region   *mapping.Region
	hdr      *header.Header
	capacity uint32
}

func roundPageUp(size uint32) uint32 {
	page := uint32(mapping.PageSize)
	mask := page - 1
	return (size + mask) &^ mask
}

// Open opens or creates filename and joins the ring buffer stored in it.
// capacity is the number of data bytes the buffer should hold, rounded
// up to a multiple of the system page size; it is advisory for every
// peer after the first: whichever Open call first publishes a non-zero
// capacity wins, and every later Open — including ones that requested a
// different capacity — adopts that value. Passing capacity 0 means "join
// whatever capacity the other side already chose," and blocks until that
// side has called Open at least once.
//
// Open returns a *shmringerr.OpenFailed if filename cannot be created or
// opened, and otherwise either succeeds or calls shmringerr.Abort for any
// unrecoverable failure of a syscall the protocol depends on (mmap,
// ftruncate, futex).
func Open(filename string, capacity uint32) (*Handle, error) {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, &shmringerr.OpenFailed{Cause: err}
	}

	if capacity != 0 {
		capacity = roundPageUp(capacity)
	}

	if err := growToAtLeast(file, int64(mapping.PageSize)); err != nil {
		file.Close()
		shmringerr.Abort("ftruncate header page", err)
	}

	headerPage, err := mapping.OpenHeader(int(file.Fd()))
	if err != nil {
		file.Close()
		shmringerr.Abort("mmap header page", err)
	}
	hdr := header.New(headerPage)

	finalCapacity, err := negotiateCapacity(hdr, capacity)
	if err != nil {
		mapping.CloseHeader(headerPage)
		file.Close()
		shmringerr.Abort("negotiate capacity", err)
	}

	// Wake every peer that might be waiting on the capacity handshake,
	// and any peer that died after updating a counter but before waking
	// its waiter (see header.Header's ProducedWaited/ConsumedWaited
	// doc comments).
	if err := futex.Wake(hdr.CapacityAddr()); err != nil {
		mapping.CloseHeader(headerPage)
		file.Close()
		shmringerr.Abort("wake capacity waiters", err)
	}
	if hdr.ProducedWaited() {
		if err := futex.Wake(hdr.ProducedAddr()); err != nil {
			mapping.CloseHeader(headerPage)
			file.Close()
			shmringerr.Abort("wake produced waiters", err)
		}
	}
	if hdr.ConsumedWaited() {
		if err := futex.Wake(hdr.ConsumedAddr()); err != nil {
			mapping.CloseHeader(headerPage)
			file.Close()
			shmringerr.Abort("wake consumed waiters", err)
		}
	}

	if err := mapping.CloseHeader(headerPage); err != nil {
		file.Close()
		shmringerr.Abort("unmap header page", err)
	}

	// At this point every peer agrees on capacity, so this either sets
	// the file size or is a no-op.
	if err := growToAtLeast(file, int64(mapping.PageSize)+int64(finalCapacity)); err != nil {
		file.Close()
		shmringerr.Abort("ftruncate data region", err)
	}

	region, err := mapping.Install(int(file.Fd()), finalCapacity)
	if err != nil {
		file.Close()
		shmringerr.Abort("install double mapping", err)
	}

	return &Handle{
		file:     file,
		region:   region,
		hdr:      header.New(region.Header()),
		capacity: finalCapacity,
	}, nil
}

// growToAtLeast enlarges file to size if it is currently smaller, and is
// a no-op if it is already at least that large — mirroring
// posix_fallocate's "don't shrink an existing file" behavior.
func growToAtLeast(file *os.File, size int64) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if info.Size() >= size {
		return nil
	}
	return file.Truncate(size)
}

// negotiateCapacity implements the handshake in spec.md §4.3: the first
// Open to pass a non-zero capacity wins; a later Open with a different
// non-zero capacity silently adopts the winner's value; an Open with
// capacity 0 blocks until some peer has published one.
func negotiateCapacity(hdr *header.Header, requested uint32) (uint32, error) {
	if requested != 0 {
		if hdr.CompareAndSwapCapacity(0, requested) {
			return requested, nil
		}
		return hdr.Capacity(), nil
	}

	capacity := hdr.Capacity()
	for capacity == 0 {
		if err := futex.Wait(hdr.CapacityAddr(), 0); err != nil {
			return 0, err
		}
		capacity = hdr.Capacity()
	}
	return capacity, nil
}

// GetCapacity returns the negotiated capacity of the buffer, in bytes.
func (h *Handle) GetCapacity() uint32 {
	return h.capacity
}

// GetFree returns a contiguous window of free space at the producer's
// write position. *size on entry is the minimum number of bytes the
// caller needs; GetFree blocks until that much space is free, then
// updates *size to the actual amount available (which may be larger) and
// returns a slice of exactly that length. Passing *size == 0 never
// blocks.
//
// The returned slice aliases the mapped file; it is valid until the next
// call to Add, GetFree, or Close on this Handle.
func (h *Handle) GetFree(size *uint32) []byte {
	consumed := h.hdr.Consumed()
	for *size > h.capacity-(h.hdr.Produced()-consumed) {
		h.hdr.SetConsumedWaited(true)
		if err := futex.Wait(h.hdr.ConsumedAddr(), consumed); err != nil {
			shmringerr.Abort("futex_wait consumed", err)
		}
		h.hdr.SetConsumedWaited(false)

		consumed = h.hdr.Consumed()
	}

	*size = h.capacity - (h.hdr.Produced() - consumed)

	off := uintptr(h.hdr.Produced() % h.capacity)
	return h.region.Window(off, uintptr(*size))
}

// Add publishes the first size bytes of the slice most recently returned
// by GetFree as produced, making them visible to GetData on the consumer
// side, and wakes any consumer currently blocked in GetData.
func (h *Handle) Add(size uint32) {
	h.hdr.SetProduced(h.hdr.Produced() + size)

	if h.hdr.ProducedWaited() {
		if err := futex.Wake(h.hdr.ProducedAddr()); err != nil {
			shmringerr.Abort("futex_wake produced", err)
		}
	}
}

// GetData returns a contiguous window of unconsumed data at the
// consumer's read position. *size on entry is the minimum number of
// bytes the caller needs; GetData blocks until that much data has been
// produced, then updates *size to the actual amount available (which may
// be larger) and returns a slice of exactly that length. Passing
// *size == 0 never blocks.
//
// The returned slice aliases the mapped file; it is valid until the next
// call to Del, GetData, or Close on this Handle.
func (h *Handle) GetData(size *uint32) []byte {
	produced := h.hdr.Produced()
	for *size > produced-h.hdr.Consumed() {
		h.hdr.SetProducedWaited(true)
		if err := futex.Wait(h.hdr.ProducedAddr(), produced); err != nil {
			shmringerr.Abort("futex_wait produced", err)
		}
		h.hdr.SetProducedWaited(false)

		produced = h.hdr.Produced()
	}

	*size = produced - h.hdr.Consumed()

	off := uintptr(h.hdr.Consumed() % h.capacity)
	return h.region.Window(off, uintptr(*size))
}

// Del retires the first size bytes of the slice most recently returned
// by GetData, freeing that space for the producer, and wakes any
// producer currently blocked in GetFree.
func (h *Handle) Del(size uint32) {
	h.hdr.SetConsumed(h.hdr.Consumed() + size)

	if h.hdr.ConsumedWaited() {
		if err := futex.Wake(h.hdr.ConsumedAddr()); err != nil {
			shmringerr.Abort("futex_wake consumed", err)
		}
	}
}

// Close unmaps the buffer and closes the backing file descriptor. It
// does not truncate or remove the file: the next Open call on the same
// path resumes the same buffer state. A failure to unmap calls
// shmringerr.Abort; the returned error is that of closing the file.
func (h *Handle) Close() error {
	if err := h.region.Close(); err != nil {
		shmringerr.Abort("munmap region", err)
	}
	return h.file.Close()
}

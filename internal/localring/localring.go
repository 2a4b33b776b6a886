// Package localring implements the same modular-arithmetic index protocol
// as the mmap-backed Handle in the root shmring package — a pair of
// ever-increasing produced/consumed counters whose difference is the used
// byte count and whose values, modulo capacity, are the write and read
// positions — but entirely in-process, over a plain Go byte slice instead
// of a mapped file. Unlike Handle, whose capacity is a page multiple, a
// Ring's capacity is a power of 2, and its windows stop at the end of the
// slice instead of continuing across the wrap. It exists so the wraparound and capacity-accounting logic can be
// unit-tested directly, without the cost or platform restriction of
// exercising mmap and futex.
package localring

import (
	"errors"
	"sync/atomic"
)

// ErrInsufficientSpace is returned by Produce when asked to publish more
// bytes than the ring currently has free.
var ErrInsufficientSpace = errors.New("localring: insufficient space")

// ErrInsufficientData is returned by Consume when asked to retire more
// bytes than the ring currently holds.
var ErrInsufficientData = errors.New("localring: insufficient data")

// Ring is a lock-free single-producer single-consumer byte ring. Produce
// and its accessors must only be called by the producer side; Consume
// and its accessors must only be called by the consumer side.
type Ring struct {
	buffer   []byte
	capacity uint32
	mask     uint32
	produced atomic.Uint32
	consumed atomic.Uint32
}

// New creates a ring with the given capacity, rounded up to the next
// power of 2 so the index math can use a bitmask instead of a modulo.
func New(capacity uint32) *Ring {
	capacity = nextPowerOf2(capacity)
	return &Ring{
		buffer:   make([]byte, capacity),
		capacity: capacity,
		mask:     capacity - 1,
	}
}

// Capacity returns the ring's capacity in bytes.
func (r *Ring) Capacity() uint32 {
	return r.capacity
}

// Free returns the number of bytes currently free for writing.
func (r *Ring) Free() uint32 {
	return r.capacity - (r.produced.Load() - r.consumed.Load())
}

// Used returns the number of bytes currently available for reading.
func (r *Ring) Used() uint32 {
	return r.produced.Load() - r.consumed.Load()
}

// ContiguousFree returns a slice of the free region starting at the
// current write position, truncated at the point it would wrap. A
// caller that needs more than one contiguous slice's worth of space
// calls Produce after exhausting this one and calls ContiguousFree
// again.
func (r *Ring) ContiguousFree() []byte {
	free := r.Free()
	if free == 0 {
		return nil
	}
	start := r.produced.Load() & r.mask
	run := r.capacity - start
	if run > free {
		run = free
	}
	return r.buffer[start : start+run]
}

// Produce publishes n bytes most recently written into the slice
// returned by ContiguousFree as produced. It returns ErrInsufficientSpace
// without effect if n exceeds Free().
func (r *Ring) Produce(n uint32) error {
	if n == 0 {
		return nil
	}
	if n > r.Free() {
		return ErrInsufficientSpace
	}
	r.produced.Store(r.produced.Load() + n)
	return nil
}

// ContiguousUsed returns a slice of the used region starting at the
// current read position, truncated at the point it would wrap.
func (r *Ring) ContiguousUsed() []byte {
	used := r.Used()
	if used == 0 {
		return nil
	}
	start := r.consumed.Load() & r.mask
	run := r.capacity - start
	if run > used {
		run = used
	}
	return r.buffer[start : start+run]
}

// Consume retires n bytes most recently read from the slice returned by
// ContiguousUsed, freeing that space for the producer. It returns
// ErrInsufficientData without effect if n exceeds Used().
func (r *Ring) Consume(n uint32) error {
	if n == 0 {
		return nil
	}
	if n > r.Used() {
		return ErrInsufficientData
	}
	r.consumed.Store(r.consumed.Load() + n)
	return nil
}

// nextPowerOf2 rounds n up to the next power of 2.
func nextPowerOf2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

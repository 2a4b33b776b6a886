// Package header provides a typed, atomics-based view over the shared
// header page described in spec.md §3.1 and §6.1: capacity, the produced
// and consumed counters, and their sticky-waiter hint flags. All fields
// are 32-bit and live at fixed offsets within the first page of the
// backing file, mapped read-write into every peer.
package header

import (
	"sync/atomic"
	"unsafe"
)

// Field offsets within the header page, per spec.md §6.1. Order is
// implementation-internal but must be stable across a single build so
// peers compiled from the same source agree.
const (
	offCapacity       = 0x00
	offProduced       = 0x04
	offProducedWaited = 0x08
	offConsumed       = 0x0C
	offConsumedWaited = 0x10

	// Size is the logical size of the fields above. The header page itself
	// is one full system page; bytes from Size up to the page boundary are
	// reserved and left zero.
	Size = 0x14
)

// Header is a view over a mapped header page. It does not own the backing
// memory; callers are responsible for keeping the underlying mapping alive
// for the Header's lifetime.
type Header struct {
	base []byte
}

// New wraps base, which must be at least Size bytes, as a Header.
func New(base []byte) *Header {
	if len(base) < Size {
		panic("header: mapped page shorter than header size")
	}
	return &Header{base: base}
}

func (h *Header) addr(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.base[off]))
}

// CapacityAddr returns the address of the capacity field, for use with the
// wait/wake coordinator during the zero-capacity negotiation wait.
func (h *Header) CapacityAddr() *uint32 { return h.addr(offCapacity) }

// Capacity loads the capacity field. It is written at most once, by
// whichever peer's CompareAndSwapCapacity call first succeeds.
func (h *Header) Capacity() uint32 {
	return atomic.LoadUint32(h.addr(offCapacity))
}

// CompareAndSwapCapacity attempts the one-time 0 → new publication of
// capacity described in spec.md §4.3. It reports whether this call is the
// one that published new.
func (h *Header) CompareAndSwapCapacity(old, new uint32) bool {
	return atomic.CompareAndSwapUint32(h.addr(offCapacity), old, new)
}

// ProducedAddr returns the address of the produced counter, for use with
// the wait/wake coordinator.
func (h *Header) ProducedAddr() *uint32 { return h.addr(offProduced) }

// Produced loads the produced counter with acquire semantics: a consumer
// that observes a new value here also observes the bytes the producer
// stored before publishing it (spec.md §4.1).
func (h *Header) Produced() uint32 {
	return atomic.LoadUint32(h.addr(offProduced))
}

// SetProduced stores the produced counter with release semantics.
func (h *Header) SetProduced(v uint32) {
	atomic.StoreUint32(h.addr(offProduced), v)
}

// ConsumedAddr returns the address of the consumed counter.
func (h *Header) ConsumedAddr() *uint32 { return h.addr(offConsumed) }

// Consumed loads the consumed counter with acquire semantics.
func (h *Header) Consumed() uint32 {
	return atomic.LoadUint32(h.addr(offConsumed))
}

// SetConsumed stores the consumed counter with release semantics.
func (h *Header) SetConsumed(v uint32) {
	atomic.StoreUint32(h.addr(offConsumed), v)
}

// ProducedWaited reports the sticky hint that a consumer is currently
// blocked in GetData. Relaxed: correctness does not depend on ordering
// here because the wait primitive always re-checks the counter it's
// waiting on (spec.md §4.1).
func (h *Header) ProducedWaited() bool {
	return atomic.LoadUint32(h.addr(offProducedWaited)) != 0
}

// SetProducedWaited sets or clears the produced-waited hint.
func (h *Header) SetProducedWaited(v bool) {
	atomic.StoreUint32(h.addr(offProducedWaited), boolToU32(v))
}

// ConsumedWaited reports the sticky hint that a producer is currently
// blocked in GetFree.
func (h *Header) ConsumedWaited() bool {
	return atomic.LoadUint32(h.addr(offConsumedWaited)) != 0
}

// SetConsumedWaited sets or clears the consumed-waited hint.
func (h *Header) SetConsumedWaited(v bool) {
	atomic.StoreUint32(h.addr(offConsumedWaited), boolToU32(v))
}

func boolToU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

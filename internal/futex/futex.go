//go:build linux

// Package futex wraps Linux's futex(2) as the wait/wake coordinator
// described in spec.md §4.4: Wait blocks while the 32-bit value at addr
// still equals expected, and Wake releases every waiter currently blocked
// on an address. Both operate on addresses inside shared mappings, so
// waiters in different processes coordinate through the same kernel
// futex queue.
package futex

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Wait blocks the calling thread until the 32-bit value at addr no longer
// equals expected, or until a peer calls Wake(addr). It may also return
// spuriously; per spec.md §4.4 the "value already changed" and "woken"
// outcomes are indistinguishable to the caller and both are treated as
// "go re-check", which is what every call site in this module does.
func Wait(addr *uint32, expected uint32) error {
	for {
		_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(addr)), uintptr(unix.FUTEX_WAIT), uintptr(expected),
			0, 0, 0)
		switch errno {
		case 0, unix.EAGAIN:
			return nil
		case unix.EINTR:
			continue
		default:
			return fmt.Errorf("futex_wait: %w", errno)
		}
	}
}

// Wake wakes every waiter currently blocked on addr.
func Wake(addr *uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), uintptr(unix.FUTEX_WAKE), uintptr(0x7fffffff),
		0, 0, 0)
	if errno != 0 {
		return fmt.Errorf("futex_wake: %w", errno)
	}
	return nil
}

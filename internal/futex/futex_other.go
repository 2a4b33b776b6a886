//go:build !linux

package futex

import "errors"

// ErrUnsupported is returned on platforms without a futex-equivalent
// primitive wired up. spec.md's wait/wake coordinator is specified in
// terms of Linux's FUTEX_WAIT/FUTEX_WAKE; a port to another kernel would
// need an equivalent cross-process primitive (e.g. a named semaphore)
// here instead.
var ErrUnsupported = errors.New("futex: unsupported on this platform")

func Wait(addr *uint32, expected uint32) error { return ErrUnsupported }

func Wake(addr *uint32) error { return ErrUnsupported }

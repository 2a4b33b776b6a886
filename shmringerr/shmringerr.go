// Package shmringerr defines the error taxonomy for the shmring core:
// failures to open the backing file, and unrecoverable internal syscall
// failures that the core treats as kernel-level invariant violations.
package shmringerr

import "fmt"

// OpenFailed wraps a filesystem-level failure to create or open the
// backing file. Open returns a nil handle together with an *OpenFailed;
// Cause carries the underlying *os.PathError or syscall errno.
type OpenFailed struct {
	Cause error
}

func (e *OpenFailed) Error() string {
	return fmt.Sprintf("shmring: open failed: %v", e.Cause)
}

func (e *OpenFailed) Unwrap() error { return e.Cause }

// Fatal marks an internal syscall failure — stat, mmap, munmap, ftruncate,
// or the futex wait/wake primitive — once the backing file is open, whether
// inside Open itself or in a later operation on the Handle.
// The core has no recovery strategy for these: they indicate the kernel
// violated an assumption the protocol depends on (a mapping that should
// exist no longer does, a truncate silently failed, and so on), so the
// only correct action is to stop rather than continue operating on
// possibly-corrupt shared state.
type Fatal struct {
	Op    string
	Cause error
}

func (e *Fatal) Error() string {
	return fmt.Sprintf("shmring: fatal: %s: %v", e.Op, e.Cause)
}

func (e *Fatal) Unwrap() error { return e.Cause }

// Abort panics with a *Fatal wrapping op and cause. Every internal syscall
// site that spec.md §7 classifies as unrecoverable calls this instead of
// returning an error, mirroring the C implementation's die()-on-syscall-
// failure behavior. A caller that wants to recover rather than crash may
// recover() and type-assert the panic value to *Fatal.
func Abort(op string, cause error) {
	panic(&Fatal{Op: op, Cause: cause})
}

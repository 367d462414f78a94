// Package unfairlock provides an unfair, non-reentrant lock that lives in
// the same allocation as the state it protects.
//
// # Quick Start
//
//	counter := unfairlock.New(0)
//
//	err := counter.WithLock(func(n *int) error {
//		*n++
//		return nil
//	})
//
//	n, err := unfairlock.WithLockResult(counter, func(n *int) (int, error) {
//		return *n, nil
//	})
//
// # Backends
//
// A lock is bound to one of two interchangeable backends when it is
// constructed, and keeps it for life:
//
//   - Native: a futex-backed lock. Waiters sleep in the kernel.
//     Selected on Linux 2.6.22 and later when futex(2) is permitted.
//   - Portable: a pure-Go lock built from a LockBox (the state followed by
//     a lock word in one allocation). Waiters spin, yield and then back
//     off. Selected everywhere else.
//
// Both backends have identical observable behavior. Force one with the
// WithBackend option or the UNFAIRLOCK_BACKEND environment variable
// (auto, native, portable).
//
// # Semantics
//
//   - Mutual exclusion: at most one body runs per lock at a time, and
//     writes made under the lock are visible to the next holder.
//   - Release on every exit: WithLock releases the lock when body returns,
//     returns an error, or panics.
//   - Non-blocking variants: WithLockIfAvailable and TryLock never wait.
//     Failing to acquire is a normal outcome, reported as false.
//   - Unfair: there is no wakeup order among waiters.
//   - Not reentrant: acquiring a lock the calling goroutine already holds
//     terminates the process. So does releasing a lock the caller does
//     not hold, and a failed Precondition. These are programming errors;
//     they cannot be recovered.
//
// # Blocking
//
// Acquisition may block the calling goroutine, and with the native backend
// its OS thread, for an unbounded time. Never wait for another goroutine
// that needs the same lock while holding it, and keep critical sections
// free of channel operations and other calls that may park the goroutine
// indefinitely.
//
// # Copies
//
// Lock and VoidLock are handles. Copies share the lock and the state;
// there is no way to duplicate a lock by copying.
//
// # Diagnostics
//
// Set UNFAIRLOCK_TRACK_SITES=1 to record where each lock was acquired.
// Fatal misuse reports then include the holder's acquisition stack.
package unfairlock

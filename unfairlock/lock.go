package unfairlock

import (
	"github.com/kolkov/unfairlock/internal/fatal"
	"github.com/kolkov/unfairlock/internal/native"
	"github.com/kolkov/unfairlock/internal/portable"
)

// Lock is an unfair, non-reentrant lock protecting a value of type T.
//
// A Lock is a small handle. Copying it copies the reference, not the lock:
// all copies guard the same state with the same lock word. The handle is
// bound to one backend at construction and keeps it for life.
//
// The zero Lock is not usable; create locks with New.
type Lock[T any] struct {
	backend  Backend
	native   native.Lock[T]
	portable portable.Lock[T]
}

// New returns a Lock protecting initial.
//
// The backend is chosen once, here: the WithBackend option if given, else
// the UNFAIRLOCK_BACKEND environment knob, else Native when the platform
// supports it and Portable otherwise.
func New[T any](initial T, opts ...Option) Lock[T] {
	o := buildOptions(opts)
	return bind(resolve(o.backend), initial)
}

// bind constructs a lock on exactly backend b.
func bind[T any](b Backend, initial T) Lock[T] {
	switch b {
	case Native:
		return Lock[T]{backend: Native, native: native.New(initial)}
	case Portable:
		return Lock[T]{backend: Portable, portable: portable.New(initial)}
	}
	fatal.Throwf("cannot bind lock to backend %v", b)
	panic("unreachable")
}

// bound returns the backend of l. It aborts if the handle does not carry
// an implementation for its recorded backend, as with the zero Lock.
func (l Lock[T]) bound() Backend {
	switch {
	case l.backend == Native && l.native.Valid():
		return Native
	case l.backend == Portable && l.portable.Valid():
		return Portable
	}
	fatal.Throwf("backend dispatch inconsistent: lock bound to %v has no implementation", l.backend)
	panic("unreachable")
}

// Backend returns the backend l is bound to.
func (l Lock[T]) Backend() Backend {
	return l.bound()
}

// WithLock blocks until it acquires the lock, runs body with exclusive
// access to the state, and releases the lock.
//
// The lock is released on every exit path of body: normal return, error
// return and panic. WithLock returns body's error; a panic in body
// continues after the lock has been released.
//
// Calling WithLock on a lock the calling goroutine already holds, for
// example from inside body, terminates the process.
func (l Lock[T]) WithLock(body func(state *T) error) error {
	switch l.bound() {
	case Native:
		return l.native.WithLock(body)
	case Portable:
		return l.portable.WithLock(body)
	}
	panic("unreachable")
}

// WithLockUnchecked is WithLock for state that holds references which are
// not safe to use from other goroutines. The caller guarantees that body
// does not let such references escape the critical section.
func (l Lock[T]) WithLockUnchecked(body func(state *T) error) error {
	return l.WithLock(body)
}

// WithLockIfAvailable is WithLock without blocking. If the lock is held,
// including by the calling goroutine, it returns false without running
// body. Otherwise it returns true and body's error.
func (l Lock[T]) WithLockIfAvailable(body func(state *T) error) (bool, error) {
	switch l.bound() {
	case Native:
		return l.native.WithLockIfAvailable(body)
	case Portable:
		return l.portable.WithLockIfAvailable(body)
	}
	panic("unreachable")
}

// WithLockIfAvailableUnchecked is WithLockIfAvailable for state that is
// not safe to share between goroutines; see WithLockUnchecked.
func (l Lock[T]) WithLockIfAvailableUnchecked(body func(state *T) error) (bool, error) {
	return l.WithLockIfAvailable(body)
}

// Precondition terminates the process unless the calling goroutine's
// relation to the lock matches o. It is a debugging aid for functions
// that must be called with, or without, the lock held.
func (l Lock[T]) Precondition(o Ownership) {
	var owner bool
	switch o {
	case Owner:
		owner = true
	case NotOwner:
	default:
		fatal.Throwf("invalid ownership %v", o)
	}

	switch l.bound() {
	case Native:
		l.native.Precondition(owner)
	case Portable:
		l.portable.Precondition(owner)
	}
}

func (l Lock[T]) lock() {
	switch l.bound() {
	case Native:
		l.native.Lock()
	case Portable:
		l.portable.Lock()
	}
}

func (l Lock[T]) unlock() {
	switch l.bound() {
	case Native:
		l.native.Unlock()
	case Portable:
		l.portable.Unlock()
	}
}

func (l Lock[T]) tryLock() bool {
	switch l.bound() {
	case Native:
		return l.native.TryLock()
	case Portable:
		return l.portable.TryLock()
	}
	panic("unreachable")
}

// WithLockResult is WithLock for a body that produces a value.
func WithLockResult[T, R any](l Lock[T], body func(state *T) (R, error)) (R, error) {
	var r R
	err := l.WithLock(func(state *T) error {
		var err error
		r, err = body(state)
		return err
	})
	return r, err
}

// WithLockIfAvailableResult is WithLockIfAvailable for a body that
// produces a value. If the lock is held it returns the zero R and false.
func WithLockIfAvailableResult[T, R any](l Lock[T], body func(state *T) (R, error)) (R, bool, error) {
	var r R
	ok, err := l.WithLockIfAvailable(func(state *T) error {
		var err error
		r, err = body(state)
		return err
	})
	return r, ok, err
}

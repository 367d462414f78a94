// Package portable implements the pure-Go unfair lock.
//
// A Lock is a LockBox (state plus trailing lock word in one allocation)
// driven by the portable lock word. It runs on every GOOS and GOARCH and is
// the fallback when the native backend is unavailable.
package portable

import (
	"github.com/kolkov/unfairlock/internal/lockbox"
)

// Lock is a handle to a LockBox. Copies of a Lock alias the same box.
// The zero Lock is not usable; use New.
type Lock[T any] struct {
	box *lockbox.Box[T]
}

// New returns a Lock protecting initial.
func New[T any](initial T) Lock[T] {
	return Lock[T]{box: lockbox.New(initial)}
}

// WithLock runs body with exclusive access to the state.
//
// The lock is released on every exit path of body. If body panics, the
// panic continues after the release.
func (l Lock[T]) WithLock(body func(state *T) error) error {
	w := l.box.Word()
	w.Acquire()
	defer w.Release()
	return body(l.box.State())
}

// WithLockIfAvailable is WithLock without blocking. If the lock is held,
// it returns false and does not run body.
func (l Lock[T]) WithLockIfAvailable(body func(state *T) error) (bool, error) {
	w := l.box.Word()
	if !w.TryAcquire() {
		return false, nil
	}
	defer w.Release()
	return true, body(l.box.State())
}

// Lock acquires the lock word without scoping.
func (l Lock[T]) Lock() {
	l.box.Word().Acquire()
}

// Unlock releases a lock acquired with Lock or TryLock.
func (l Lock[T]) Unlock() {
	l.box.Word().Release()
}

// TryLock acquires the lock word if it is free.
func (l Lock[T]) TryLock() bool {
	return l.box.Word().TryAcquire()
}

// Precondition aborts the process unless the calling goroutine's ownership
// of the lock matches owner.
func (l Lock[T]) Precondition(owner bool) {
	if owner {
		l.box.Word().AssertOwner()
	} else {
		l.box.Word().AssertNotOwner()
	}
}

// Valid reports whether l was created by New.
func (l Lock[T]) Valid() bool {
	return l.box != nil
}

package unfairlock

import "sync"

// VoidLock is a Lock that protects no state.
//
// Besides scoped locking it offers manual Lock and Unlock for critical
// sections that do not fit a closure, such as acquiring in one function
// and releasing in another. Manual pairs lose the release-on-every-exit
// guarantee of WithLock; prefer WithLock where it fits.
//
// Like Lock, a VoidLock is a handle and copies alias the same lock.
type VoidLock struct {
	l Lock[struct{}]
}

var _ sync.Locker = VoidLock{}

// NewVoid returns an unlocked VoidLock.
func NewVoid(opts ...Option) VoidLock {
	return VoidLock{l: New(struct{}{}, opts...)}
}

// Backend returns the backend v is bound to.
func (v VoidLock) Backend() Backend {
	return v.l.Backend()
}

// Lock blocks until the calling goroutine holds v. Locking a VoidLock
// the caller already holds terminates the process.
//
// Do not wait on other goroutines that need v while holding it.
func (v VoidLock) Lock() {
	v.l.lock()
}

// Unlock releases v. Unlocking a VoidLock the calling goroutine does not
// hold terminates the process.
func (v VoidLock) Unlock() {
	v.l.unlock()
}

// TryLock acquires v if it is free and reports whether it did.
func (v VoidLock) TryLock() bool {
	return v.l.tryLock()
}

// WithLock runs body while holding v; see Lock.WithLock.
func (v VoidLock) WithLock(body func() error) error {
	return v.l.WithLock(func(*struct{}) error { return body() })
}

// WithLockUnchecked is WithLock for bodies that touch state not safe to
// share between goroutines.
func (v VoidLock) WithLockUnchecked(body func() error) error {
	return v.l.WithLockUnchecked(func(*struct{}) error { return body() })
}

// WithLockIfAvailable runs body if v is free; see Lock.WithLockIfAvailable.
func (v VoidLock) WithLockIfAvailable(body func() error) (bool, error) {
	return v.l.WithLockIfAvailable(func(*struct{}) error { return body() })
}

// WithLockIfAvailableUnchecked is the unchecked form of WithLockIfAvailable.
func (v VoidLock) WithLockIfAvailableUnchecked(body func() error) (bool, error) {
	return v.l.WithLockIfAvailableUnchecked(func(*struct{}) error { return body() })
}

// Precondition terminates the process unless the calling goroutine's
// relation to v matches o.
func (v VoidLock) Precondition(o Ownership) {
	v.l.Precondition(o)
}

// Package native implements the platform-native unfair lock.
//
// On Linux the lock key is a futex word. Waiters sleep in the kernel with
// FUTEX_WAIT, which parks the OS thread inside the system call while the Go
// scheduler hands the P to other goroutines. The key follows the usual
// three-state protocol:
//
//	0  unlocked
//	1  locked, no waiters
//	2  locked, waiters may be sleeping
//
// Release wakes one sleeper only when the key was 2, so the uncontended
// path never enters the kernel.
//
// A goroutine blocked in FUTEX_WAIT holds its OS thread, and the runtime
// starts another thread to keep running goroutines. Only a few times
// GOMAXPROCS waiters sleep in the kernel at once; the others wait in the
// scheduler with the portable lock word's backoff and retry the key. A woken waiter competes with newly
// arriving goroutines; there is no handoff and no fairness.
//
// The state lives in the same allocation as the key, after the key and
// the ownership record.
//
// Use Detect to learn whether the running platform supports the native
// backend. On other platforms the package still builds and the waiters
// yield instead of sleeping in the kernel.
package native

import (
	"runtime"
	"sync/atomic"

	"github.com/kolkov/unfairlock/internal/fatal"
	"github.com/kolkov/unfairlock/internal/goid"
	"github.com/kolkov/unfairlock/internal/holder"
	"github.com/kolkov/unfairlock/internal/lockword"
)

const (
	unlocked  uint32 = 0
	locked    uint32 = 1
	contended uint32 = 2
)

// Spins of a contended acquire before it first sleeps.
const (
	activeSpin  = 4
	passiveSpin = 1
)

// sleepersPerP bounds the goroutines parked in futexWait at once, process
// wide, as a multiple of GOMAXPROCS.
const sleepersPerP = 4

// sleepers is the number of goroutines currently in futexWait.
var sleepers atomic.Int32

func maxSleepers() int32 {
	return int32(sleepersPerP * runtime.GOMAXPROCS(0))
}

type cell[T any] struct {
	key    uint32 // futex word
	holder holder.Holder
	state  T
}

// Lock is a handle to a native lock cell. Copies of a Lock alias the same
// cell. The zero Lock is not usable; use New.
type Lock[T any] struct {
	c *cell[T]
}

// New returns a Lock protecting initial.
func New[T any](initial T) Lock[T] {
	return Lock[T]{c: &cell[T]{state: initial}}
}

func (c *cell[T]) acquire() {
	if atomic.CompareAndSwapUint32(&c.key, unlocked, locked) {
		c.holder.Claim(goid.Get())
		return
	}

	gid := goid.Get()
	c.holder.CheckRecursive(gid)
	c.acquireSlow()
	c.holder.Claim(gid)
}

func (c *cell[T]) acquireSlow() {
	// Short critical sections usually end within a few spins; try to take
	// the key before touching the kernel.
	for i := 0; i < activeSpin+passiveSpin; i++ {
		if atomic.LoadUint32(&c.key) == unlocked &&
			atomic.CompareAndSwapUint32(&c.key, unlocked, locked) {
			return
		}
		if i >= activeSpin {
			runtime.Gosched()
		}
	}

	// Mark the key contended before sleeping so that the holder's
	// release wakes us. Whoever swaps 0 out of the key owns the lock.
	var spins int
	for atomic.SwapUint32(&c.key, contended) != unlocked {
		if sleepers.Add(1) <= maxSleepers() {
			futexWait(&c.key, contended)
			sleepers.Add(-1)
			continue
		}
		// Every goroutine in futexWait pins an OS thread. Past the cap,
		// wait in the scheduler instead and poll the key.
		sleepers.Add(-1)
		lockword.Backoff(&spins)
	}
}

func (c *cell[T]) tryAcquire() bool {
	if !atomic.CompareAndSwapUint32(&c.key, unlocked, locked) {
		return false
	}
	c.holder.Claim(goid.Get())
	return true
}

func (c *cell[T]) release() {
	c.holder.Disown(goid.Get())
	switch atomic.SwapUint32(&c.key, unlocked) {
	case unlocked:
		fatal.Throwf("unlock of unlocked lock")
	case contended:
		futexWake(&c.key, 1)
	}
}

// WithLock runs body with exclusive access to the state.
//
// The lock is released on every exit path of body. If body panics, the
// panic continues after the release.
func (l Lock[T]) WithLock(body func(state *T) error) error {
	l.c.acquire()
	defer l.c.release()
	return body(&l.c.state)
}

// WithLockIfAvailable is WithLock without blocking. If the lock is held,
// it returns false and does not run body.
func (l Lock[T]) WithLockIfAvailable(body func(state *T) error) (bool, error) {
	if !l.c.tryAcquire() {
		return false, nil
	}
	defer l.c.release()
	return true, body(&l.c.state)
}

// Lock acquires the lock without scoping.
func (l Lock[T]) Lock() { l.c.acquire() }

// Unlock releases a lock acquired with Lock or TryLock.
func (l Lock[T]) Unlock() { l.c.release() }

// TryLock acquires the lock if it is free.
func (l Lock[T]) TryLock() bool { return l.c.tryAcquire() }

// Precondition aborts the process unless the calling goroutine's ownership
// of the lock matches owner.
func (l Lock[T]) Precondition(owner bool) {
	gid := goid.Get()
	if owner {
		l.c.holder.AssertOwner(gid)
	} else {
		l.c.holder.AssertNotOwner(gid)
	}
}

// Valid reports whether l was created by New.
func (l Lock[T]) Valid() bool {
	return l.c != nil
}

// Package lockword implements the portable unfair lock word.
//
// A Word is a fixed-size token with two states, unlocked and
// locked-by-goroutine. It offers the raw operations every lock in this
// module is built from:
//
//	Acquire()        block until the word is locked by the caller
//	Release()        unlock a word held by the caller
//	TryAcquire()     lock without blocking; report success
//	AssertOwner()    abort unless the caller holds the word
//	AssertNotOwner() abort if the caller holds the word
//
// The word is unfair: there is no queue of waiters. A waiter spins,
// then yields its P, then sleeps with exponential backoff, and a goroutine
// arriving while the word is free may take it ahead of goroutines that
// have waited longer.
//
// Cost: an uncontended Acquire is one compare-and-swap plus goid.Get to
// record the holder, and Release calls goid.Get again to check it. Each
// goid.Get parses runtime.Stack output and takes about 1µs, far more than
// the compare-and-swap, so an uncontended Acquire/Release pair costs
// roughly 2µs. That is the price of diagnosing recursive acquisition and
// foreign release.
//
// The word is not reentrant. Acquire by the holder terminates the process
// rather than deadlocking; TryAcquire by the holder reports false.
//
// Memory ordering: Release is a sequentially consistent store of the key,
// and a successful Acquire or TryAcquire is a compare-and-swap of the same
// key, so everything written by the previous holder is visible to the next.
package lockword

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/kolkov/unfairlock/internal/fatal"
	"github.com/kolkov/unfairlock/internal/goid"
	"github.com/kolkov/unfairlock/internal/holder"
)

const (
	unlocked uint32 = iota
	locked
	finalized
)

// Backoff schedule of a contended Acquire.
const (
	activeSpins   = 16 // busy re-checks of the key
	passiveSpins  = 8  // runtime.Gosched between re-checks
	maxSleepShift = 10 // sleeps double from 1µs up to ~1ms
)

// Word is an unfair, non-reentrant lock word.
//
// A Word must be initialized with Init before use and must not be copied
// after first use.
type Word struct {
	key    uint32
	holder holder.Holder
}

// Init puts w into the unlocked state.
func (w *Word) Init() {
	w.holder.Reset()
	atomic.StoreUint32(&w.key, unlocked)
}

// Finalize retires w. The word must be unlocked; a locked word at
// finalization is a contract violation that is not checked.
func (w *Word) Finalize() {
	w.holder.Reset()
	atomic.StoreUint32(&w.key, finalized)
}

// Acquire blocks until the calling goroutine holds w.
func (w *Word) Acquire() {
	if atomic.CompareAndSwapUint32(&w.key, unlocked, locked) {
		w.holder.Claim(goid.Get())
		return
	}

	gid := goid.Get()
	w.holder.CheckRecursive(gid)
	w.acquireSlow()
	w.holder.Claim(gid)
}

func (w *Word) acquireSlow() {
	var spins int
	for {
		switch atomic.LoadUint32(&w.key) {
		case unlocked:
			if atomic.CompareAndSwapUint32(&w.key, unlocked, locked) {
				return
			}
		case finalized:
			fatal.Throwf("acquire of finalized lock")
		}
		Backoff(&spins)
	}
}

// Backoff waits before the next attempt on a contended key. spins counts
// the attempts so far; start it at zero. The first attempts spin, the next
// ones yield the P, and the rest sleep from 1µs doubling up to about 1ms.
func Backoff(spins *int) {
	n := *spins
	*spins++
	switch {
	case n < activeSpins:
	case n < activeSpins+passiveSpins:
		runtime.Gosched()
	default:
		shift := min(n-(activeSpins+passiveSpins), maxSleepShift)
		time.Sleep(time.Microsecond << shift)
	}
}

// TryAcquire locks w if it is free and reports whether it did.
// It never blocks, and reports false if the caller already holds w.
func (w *Word) TryAcquire() bool {
	if !atomic.CompareAndSwapUint32(&w.key, unlocked, locked) {
		return false
	}
	w.holder.Claim(goid.Get())
	return true
}

// Release unlocks w. The calling goroutine must hold w.
func (w *Word) Release() {
	w.holder.Disown(goid.Get())
	if !atomic.CompareAndSwapUint32(&w.key, locked, unlocked) {
		fatal.Throwf("unlock of unlocked lock")
	}
}

// AssertOwner aborts the process unless the calling goroutine holds w.
func (w *Word) AssertOwner() {
	w.holder.AssertOwner(goid.Get())
}

// AssertNotOwner aborts the process if the calling goroutine holds w.
func (w *Word) AssertNotOwner() {
	w.holder.AssertNotOwner(goid.Get())
}

// Locked reports whether w is currently held by some goroutine.
// The answer may be stale by the time it is returned.
func (w *Word) Locked() bool {
	return atomic.LoadUint32(&w.key) == locked
}

// Finalized reports whether Finalize has been called on w.
func (w *Word) Finalized() bool {
	return atomic.LoadUint32(&w.key) == finalized
}

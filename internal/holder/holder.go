// Package holder tracks which goroutine holds a lock word.
//
// Both lock backends embed a Holder next to their lock key. The key alone
// decides who wins the lock; the Holder records the winner so that misuse
// can be diagnosed:
//
//   - acquiring a lock the caller already holds aborts instead of deadlocking,
//   - releasing a lock the caller does not hold aborts,
//   - ownership preconditions compare the holder with the caller.
//
// Only the holding goroutine writes its own ID into a Holder, and it clears
// the ID before the key is released. A goroutine therefore never observes
// its own ID in a Holder it does not hold.
package holder

import (
	"sync"
	"sync/atomic"

	"github.com/kolkov/unfairlock/internal/envknob"
	"github.com/kolkov/unfairlock/internal/fatal"
	"github.com/kolkov/unfairlock/internal/stackdepot"
)

var trackSites = sync.OnceValue(func() bool {
	return envknob.Bool(envknob.TrackSites)
})

// Holder is the ownership record of one lock word.
// The zero value records no holder.
type Holder struct {
	gid  atomic.Int64  // goroutine ID of the holder; 0 if none
	site atomic.Uint64 // stackdepot hash of the acquisition site; 0 if untracked
}

// Reset clears the record.
func (h *Holder) Reset() {
	h.site.Store(0)
	h.gid.Store(0)
}

// Holds reports whether gid is the recorded holder.
func (h *Holder) Holds(gid int64) bool {
	return h.gid.Load() == gid
}

// CheckRecursive aborts the process if gid already holds the lock.
// It must be called before blocking on a contended key.
func (h *Holder) CheckRecursive(gid int64) {
	if h.Holds(gid) {
		fatal.Throw("recursive acquisition of lock by its holder", h.site.Load())
	}
}

// Claim records gid as the holder. The caller must have just won the key.
func (h *Holder) Claim(gid int64) {
	if trackSites() {
		h.site.Store(stackdepot.Capture(1))
	}
	h.gid.Store(gid)
}

// Disown clears the record on behalf of gid before the key is released.
// It aborts if the lock is not held, or is held by another goroutine.
func (h *Holder) Disown(gid int64) {
	switch cur := h.gid.Load(); {
	case cur == 0:
		fatal.Throw("unlock of unlocked lock", 0)
	case cur != gid:
		fatal.Throw("unlock of lock held by another goroutine", h.site.Load())
	}
	h.site.Store(0)
	h.gid.Store(0)
}

// AssertOwner aborts unless gid holds the lock.
func (h *Holder) AssertOwner(gid int64) {
	if !h.Holds(gid) {
		fatal.Throw("lock precondition failure: caller does not hold the lock", h.site.Load())
	}
}

// AssertNotOwner aborts if gid holds the lock.
func (h *Holder) AssertNotOwner(gid int64) {
	if h.Holds(gid) {
		fatal.Throw("lock precondition failure: caller holds the lock", h.site.Load())
	}
}

// Site returns the recorded acquisition site hash, or 0.
func (h *Holder) Site() uint64 {
	return h.site.Load()
}

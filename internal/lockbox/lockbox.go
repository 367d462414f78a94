// Package lockbox co-locates a lock word with the state it protects.
//
// A Box is a single heap allocation laid out as
//
//	+-----------------+----------------+
//	| state T         | lockword.Word  |
//	+-----------------+----------------+
//	  header            trailing element
//
// The two fields never move independently: the address of the Box is the
// identity of the lock. The Box performs no synchronization itself;
// callers dereference State only while holding Word.
package lockbox

import (
	"runtime"

	"github.com/kolkov/unfairlock/internal/lockword"
)

// Box holds one value of T and the lock word guarding it.
type Box[T any] struct {
	state T
	word  lockword.Word
}

// New allocates a Box holding initial, with an unlocked word.
//
// When the Box becomes unreachable its word is finalized. The word must be
// unlocked at that point; dropping a locked Box is not defended against.
func New[T any](initial T) *Box[T] {
	b := &Box[T]{state: initial}
	b.word.Init()
	runtime.SetFinalizer(b, (*Box[T]).finalize)
	return b
}

// finalize runs once the Box is unreachable.
func (b *Box[T]) finalize() {
	b.word.Finalize()
}

// State returns the protected value. Only dereference it while holding
// the word returned by Word.
func (b *Box[T]) State() *T {
	return &b.state
}

// Word returns the lock word guarding State.
func (b *Box[T]) Word() *lockword.Word {
	return &b.word
}

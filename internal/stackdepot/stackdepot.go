// Package stackdepot stores deduplicated acquisition-site stacks.
//
// When site tracking is enabled, every successful lock acquisition records
// the caller's stack. Acquisitions from the same call site are frequent and
// identical, so the stack is stored once and referenced by a 64-bit hash
// that fits into the holder record next to the owner's goroutine ID.
// Misuse reports (recursive acquisition, foreign release) use the hash to
// print where the lock was taken.
//
// Usage:
//
//	site := stackdepot.Capture(1)
//	...
//	fmt.Print(stackdepot.Get(site).Format())
package stackdepot

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// MaxFrames is the maximum number of stack frames to capture.
const MaxFrames = 16

// Stack is a captured stack trace of fixed size.
type Stack struct {
	PC [MaxFrames]uintptr
}

var depot sync.Map // uint64 (hash) → *Stack

// Capture records the calling goroutine's stack and returns its hash.
//
// skip is the number of frames to skip above Capture's caller, so
// Capture(0) starts at the function that called Capture.
// Returns 0 if no stack is available.
func Capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	// +2: runtime.Callers and Capture itself.
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])
	if _, ok := depot.Load(hash); ok {
		return hash
	}
	depot.Store(hash, &Stack{PC: pcs})
	return hash
}

// Get returns the stack stored under hash, or nil.
func Get(hash uint64) *Stack {
	if hash == 0 {
		return nil
	}
	v, ok := depot.Load(hash)
	if !ok {
		return nil
	}
	return v.(*Stack)
}

// hashStack computes the FNV-1a hash of program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // G103: reading the PC value as bytes for hashing
		b := (*[unsafe.Sizeof(pc)]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(b)
	}
	// Never hand out the "no stack" sentinel.
	if sum := h.Sum64(); sum != 0 {
		return sum
	}
	return 1
}

// Format renders the stack in the layout of a Go traceback:
//
//	main.worker()
//	    /path/to/file.go:45
//
// Runtime frames are omitted.
func (s *Stack) Format() string {
	if s == nil {
		return "\t<unknown>\n"
	}

	frames := runtime.CallersFrames(s.PC[:])
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "%s()\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	if buf.Len() == 0 {
		return "\t<runtime internal>\n"
	}
	return buf.String()
}

// Reset clears the depot. Not safe for concurrent use; tests only.
func Reset() {
	depot = sync.Map{}
}

// Len returns the number of unique stacks stored.
func Len() int {
	n := 0
	depot.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Copyright 2025 The unfairlock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goid extracts the identity of the calling goroutine.
//
// Lock ownership is tracked per goroutine: the goroutine that acquired a
// lock word is its holder, and only the holder may release it. The Go
// runtime does not export goroutine identity, so it is parsed from the
// first line of the goroutine's own stack trace:
//
//	goroutine 123 [running]:
//
// IDs are positive, stable for the lifetime of a goroutine, and never
// reused while that goroutine is alive.
//
// Get is slow: about 1µs per call, dominated by runtime.Stack. Every lock
// acquisition and release in this module calls it, so it sets the floor
// for the cost of an uncontended critical section.
package goid

import "runtime"

// Get returns the current goroutine ID, or 0 if it cannot be determined.
//
// Performance: ~1µs per call (dominated by runtime.Stack).
func Get() int64 {
	// Only the first line is needed.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the goroutine ID from stack trace bytes.
//
// Expected format: "goroutine 123 [running]:..."
// Returns the numeric ID (123 in this example) or 0 if the format is invalid.
func parse(buf []byte) int64 {
	const prefix = "goroutine "

	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			// Usually the space before "[running]".
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}

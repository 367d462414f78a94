// Copyright 2025 The unfairlock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goid

import (
	"sync"
	"testing"
)

// TestGet_Stable tests that the ID is positive and stable within a goroutine.
func TestGet_Stable(t *testing.T) {
	id := Get()
	if id <= 0 {
		t.Fatalf("Get() returned non-positive ID: %d", id)
	}
	if id2 := Get(); id2 != id {
		t.Errorf("Get() not stable: first=%d, second=%d", id, id2)
	}
}

// TestGet_Unique tests that concurrently live goroutines have distinct IDs.
func TestGet_Unique(t *testing.T) {
	const numGoroutines = 100

	ids := make(chan int64, numGoroutines)
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- Get()
			// Stay alive until every goroutine has reported, so that
			// no ID can be recycled.
			<-release
		}()
	}

	seen := make(map[int64]bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		id := <-ids
		if id <= 0 {
			t.Errorf("goroutine got non-positive ID: %d", id)
		}
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}
	close(release)
	wg.Wait()

	if seen[Get()] {
		t.Error("test goroutine shares an ID with a spawned goroutine")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"running", "goroutine 1 [running]:\nmain.main()", 1},
		{"large", "goroutine 123456789 [running]:", 123456789},
		{"no_suffix", "goroutine 42", 42},
		{"empty", "", 0},
		{"short", "gorout", 0},
		{"wrong_prefix", "goroutines 12 [running]:", 0},
		{"no_digits", "goroutine [running]:", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parse([]byte(tt.in)); got != tt.want {
				t.Errorf("parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkGet(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Get()
	}
}

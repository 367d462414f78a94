package native

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// TestWithLock_Contended tests mutual exclusion with enough contention
// to drive waiters into futex sleeps.
func TestWithLock_Contended(t *testing.T) {
	const (
		numGoroutines = 64
		numIterations = 200
	)

	l := New(0)
	var g errgroup.Group
	for i := 0; i < numGoroutines; i++ {
		g.Go(func() error {
			for j := 0; j < numIterations; j++ {
				err := l.WithLock(func(n *int) error {
					*n++
					if j%50 == 0 {
						// Hold the lock long enough for others to sleep.
						time.Sleep(10 * time.Microsecond)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	_ = l.WithLock(func(n *int) error {
		if want := numGoroutines * numIterations; *n != want {
			t.Errorf("counter = %d, want %d", *n, want)
		}
		return nil
	})
	if k := atomic.LoadUint32(&l.c.key); k != unlocked {
		t.Errorf("key = %d after all releases, want %d", k, unlocked)
	}
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	l := New(0)
	errBoom := errors.New("boom")
	if err := l.WithLock(func(*int) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("WithLock error = %v, want %v", err, errBoom)
	}
	if !l.TryLock() {
		t.Fatal("lock still held after body error")
	}
	l.Unlock()
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	l := New(0)
	func() {
		defer func() { _ = recover() }()
		_ = l.WithLock(func(*int) error { panic("boom") })
	}()
	if !l.TryLock() {
		t.Fatal("lock still held after body panic")
	}
	l.Unlock()
}

func TestTryLock_Held(t *testing.T) {
	l := New(0)
	l.Lock()

	if l.TryLock() {
		t.Error("TryLock by holder succeeded")
	}
	res := make(chan bool)
	go func() {
		ok, _ := l.WithLockIfAvailable(func(*int) error { return nil })
		res <- ok
	}()
	if <-res {
		t.Error("WithLockIfAvailable succeeded while held")
	}

	l.Unlock()
	go func() {
		ok, _ := l.WithLockIfAvailable(func(*int) error { return nil })
		res <- ok
	}()
	if !<-res {
		t.Error("WithLockIfAvailable failed after release")
	}
}

// TestWake tests that a sleeping waiter is woken and sees the holder's writes.
func TestWake(t *testing.T) {
	l := New(0)
	l.Lock()

	got := make(chan int)
	go func() {
		_ = l.WithLock(func(n *int) error {
			got <- *n
			return nil
		})
	}()

	// Wait until the waiter has marked the key contended.
	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadUint32(&l.c.key) != contended {
		if time.Now().After(deadline) {
			t.Fatal("waiter never marked the key contended")
		}
		time.Sleep(time.Millisecond)
	}

	l.c.state = 7
	l.Unlock()

	select {
	case n := <-got:
		if n != 7 {
			t.Errorf("waiter saw %d, want 7", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestPrecondition(t *testing.T) {
	l := New(0)
	l.Precondition(false)
	l.Lock()
	l.Precondition(true)
	l.Unlock()
}

func TestCopiesAlias(t *testing.T) {
	l := New(0)
	c := l
	l.Lock()
	defer l.Unlock()
	if c.TryLock() {
		t.Fatal("copy of a held lock could be locked independently")
	}
}

// TestAcquire_ManyWaiters tests that waiters beyond the sleeper cap still
// acquire the lock, and that the sleeper count drains afterwards.
func TestAcquire_ManyWaiters(t *testing.T) {
	n := 50 * maxSleepers()
	l := New(0)

	var g errgroup.Group
	for i := int32(0); i < n; i++ {
		g.Go(func() error {
			return l.WithLock(func(c *int) error {
				*c++
				for start := time.Now(); time.Since(start) < 2*time.Microsecond; {
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if l.c.state != int(n) {
		t.Errorf("counter = %d, want %d", l.c.state, n)
	}
	if s := sleepers.Load(); s != 0 {
		t.Errorf("sleepers = %d after all waiters finished, want 0", s)
	}
}

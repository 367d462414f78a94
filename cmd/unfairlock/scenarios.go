package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/unfairlock/unfairlock"
)

// maxPolls bounds how long runSet waits for all inserts to land.
const maxPolls = 10_000_000

// runCount starts n goroutines that each increment a shared counter once
// under the lock, then checks that no increment was lost.
func runCount(ctx context.Context, a *app, n int, b unfairlock.Backend) error {
	counter := unfairlock.New(0, unfairlock.WithBackend(b))
	a.logger.Debugw("count: start", "goroutines", n, "backend", counter.Backend())

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return counter.WithLock(func(v *int) error {
				*v++
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("count: %w", err)
	}

	total, err := unfairlock.WithLockResult(counter, func(v *int) (int, error) {
		return *v, nil
	})
	if err != nil {
		return fmt.Errorf("count: read total: %w", err)
	}
	fmt.Fprintln(a.out, total)
	if total != n {
		return fmt.Errorf("count: total %d, want %d", total, n)
	}
	a.logger.Infow("count: ok", "total", total, "backend", counter.Backend())
	return nil
}

// runSet has n goroutines insert their index into a shared set while the
// caller polls the set size until every insert is visible.
func runSet(ctx context.Context, a *app, n int, b unfairlock.Backend) error {
	set := unfairlock.New(make(map[int]struct{}, n), unfairlock.WithBackend(b))
	a.logger.Debugw("set: start", "goroutines", n, "backend", set.Backend())

	for i := 0; i < n; i++ {
		go func() {
			_ = set.WithLock(func(m *map[int]struct{}) error {
				(*m)[i] = struct{}{}
				return nil
			})
		}()
	}

	var size, polls int
	for ; polls < maxPolls; polls++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("set: %w", err)
		}
		_ = set.WithLockUnchecked(func(m *map[int]struct{}) error {
			size = len(*m)
			return nil
		})
		if size == n {
			break
		}
		runtime.Gosched()
	}
	fmt.Fprintln(a.out, size)
	if size != n {
		return fmt.Errorf("set: size %d after %d polls, want %d", size, polls, n)
	}
	a.logger.Infow("set: ok", "size", size, "polls", polls, "backend", set.Backend())
	return nil
}

var errUnexpected = errors.New("unexpected result")

// runTrylock holds a lock in a helper goroutine and checks that
// non-blocking acquisition fails without running the body, then succeeds
// once the helper releases.
func runTrylock(ctx context.Context, a *app, b unfairlock.Backend) error {
	l := unfairlock.New(0, unfairlock.WithBackend(b))
	v := unfairlock.NewVoid(unfairlock.WithBackend(b))

	held := make(chan struct{})
	release := make(chan struct{})
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v.Lock()
		defer v.Unlock()
		return l.WithLock(func(*int) error {
			close(held)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		})
	})

	select {
	case <-held:
	case <-ctx.Done():
		return g.Wait()
	}

	ran := false
	ok, err := l.WithLockIfAvailable(func(*int) error {
		ran = true
		return nil
	})
	try := v.TryLock()
	report(a.out, "held", ok, try)
	close(release)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("trylock: %w", err)
	}
	if ok || ran || err != nil || try {
		return fmt.Errorf("trylock: while held: %w", errUnexpected)
	}

	ok, err = l.WithLockIfAvailable(func(*int) error {
		ran = true
		return nil
	})
	try = v.TryLock()
	if try {
		v.Unlock()
	}
	report(a.out, "free", ok, try)
	if !ok || !ran || err != nil || !try {
		return fmt.Errorf("trylock: after release: %w", errUnexpected)
	}
	a.logger.Infow("trylock: ok", "backend", l.Backend())
	return nil
}

func report(w io.Writer, phase string, withLock, tryLock bool) {
	fmt.Fprintf(w, "%s: WithLockIfAvailable=%v TryLock=%v\n", phase, withLock, tryLock)
}

// runReenter acquires a lock and then acquires it again from inside the
// critical section. The lock treats this as a fatal contract violation, so
// runReenter only returns if the violation went undetected.
func runReenter(a *app, b unfairlock.Backend) error {
	l := unfairlock.New(0, unfairlock.WithBackend(b))
	a.logger.Infow("reenter: acquiring held lock; the process is expected to abort", "backend", l.Backend())
	_ = l.WithLock(func(*int) error {
		return l.WithLock(func(*int) error { return nil })
	})
	return fmt.Errorf("reenter: nested acquisition was not detected")
}

func printInfo(w io.Writer, info unfairlock.Info) {
	fmt.Fprintf(w, "version:          %s\n", info.Version)
	fmt.Fprintf(w, "default backend:  %v\n", info.DefaultBackend)
	fmt.Fprintf(w, "native available: %v\n", info.NativeAvailable)
	if info.KernelRelease != "" {
		fmt.Fprintf(w, "kernel release:   %s\n", info.KernelRelease)
	}
	if info.NativeReason != "" {
		fmt.Fprintf(w, "native reason:    %s\n", info.NativeReason)
	}
}

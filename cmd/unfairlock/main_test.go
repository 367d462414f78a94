package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/kolkov/unfairlock/unfairlock"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	return &app{logger: zaptest.NewLogger(t).Sugar(), out: &out}, &out
}

var backends = []unfairlock.Backend{unfairlock.Native, unfairlock.Portable}

func TestRunCount(t *testing.T) {
	for _, b := range backends {
		for _, n := range []int{1, 2, 100, 1000} {
			a, out := newTestApp(t)
			if err := runCount(context.Background(), a, n, b); err != nil {
				t.Fatalf("%v/%d: %v", b, n, err)
			}
			if got, want := strings.TrimSpace(out.String()), strconv.Itoa(n); got != want {
				t.Errorf("%v/%d: printed %q, want %q", b, n, got, want)
			}
		}
	}
}

func TestRunCount_Canceled(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runCount(ctx, a, 10, unfairlock.Portable)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("runCount with canceled context = %v, want context.Canceled", err)
	}
}

func TestRunSet(t *testing.T) {
	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			a, out := newTestApp(t)
			if err := runSet(context.Background(), a, 20, b); err != nil {
				t.Fatal(err)
			}
			if got := strings.TrimSpace(out.String()); got != "20" {
				t.Errorf("printed %q, want 20", got)
			}
		})
	}
}

func TestRunTrylock(t *testing.T) {
	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			a, out := newTestApp(t)
			if err := runTrylock(context.Background(), a, b); err != nil {
				t.Fatal(err)
			}
			want := "held: WithLockIfAvailable=false TryLock=false\n" +
				"free: WithLockIfAvailable=true TryLock=true\n"
			if diff := cmp.Diff(want, out.String()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, unfairlock.Info{
		Version:        "1.2.3",
		DefaultBackend: unfairlock.Portable,
		NativeReason:   "no futex support on plan9",
	})
	want := "version:          1.2.3\n" +
		"default backend:  portable\n" +
		"native available: false\n" +
		"native reason:    no futex support on plan9\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("printInfo (-want +got):\n%s", diff)
	}
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"count", "-n", "5", "-backend", "portable"}, "5\n"},
		{[]string{"set", "-n", "3"}, "3\n"},
		{[]string{"version"}, "unfairlock version " + unfairlock.Version + "\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			a, out := newTestApp(t)
			root := newRootCommand(a)
			if err := root.ParseAndRun(context.Background(), tt.args); err != nil {
				t.Fatal(err)
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

const reenterEnv = "UNFAIRLOCK_CMD_TEST_REENTER"

// TestReenterAborts runs the reenter scenario in a child process and
// checks that the lock terminated it with a report.
func TestReenterAborts(t *testing.T) {
	if b := os.Getenv(reenterEnv); b != "" {
		a := &app{logger: newLogger(false), out: os.Stdout}
		var backend unfairlock.Backend
		if err := backend.Set(b); err != nil {
			os.Exit(4)
		}
		runReenter(a, backend)
		os.Exit(3)
	}

	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^TestReenterAborts$")
			cmd.Env = append(os.Environ(), reenterEnv+"="+b.String())
			var stderr bytes.Buffer
			cmd.Stderr = &stderr
			err := cmd.Run()
			if ctx.Err() != nil {
				t.Fatalf("reenter hung:\n%s", stderr.String())
			}

			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
				t.Fatalf("child exited with %v, want status 2\n%s", err, stderr.String())
			}
			if !strings.Contains(stderr.String(), "fatal error: unfairlock: recursive acquisition") {
				t.Errorf("missing report:\n%s", stderr.String())
			}
		})
	}
}

package unfairlock

import (
	"fmt"
	"log"
	"sync"

	"github.com/kolkov/unfairlock/internal/envknob"
	"github.com/kolkov/unfairlock/internal/native"
)

// Backend identifies the implementation bound to a lock.
type Backend uint8

const (
	// Auto selects Native when the platform supports it, else Portable.
	// A constructed lock is never bound to Auto.
	Auto Backend = iota

	// Native is the futex-backed lock (Linux 2.6.22 and later).
	Native

	// Portable is the pure-Go lock built from a LockBox and the portable
	// lock word. It runs everywhere.
	Portable
)

func (b Backend) String() string {
	switch b {
	case Auto:
		return "auto"
	case Native:
		return "native"
	case Portable:
		return "portable"
	}
	return fmt.Sprintf("Backend(%d)", uint8(b))
}

// ParseBackend parses "auto", "native" or "portable".
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "native":
		return Native, nil
	case "portable":
		return Portable, nil
	}
	return 0, fmt.Errorf("unfairlock: unknown backend %q", s)
}

// Set implements flag.Value.
func (b *Backend) Set(s string) error {
	v, err := ParseBackend(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// defaultBackend is the backend requested by the UNFAIRLOCK_BACKEND knob.
var defaultBackend = sync.OnceValue(func() Backend {
	s := envknob.String(envknob.Backend)
	b, err := ParseBackend(s)
	if err != nil {
		log.Fatalf("invalid %s value %q", envknob.Backend, s)
	}
	return b
})

// resolve turns a requested backend into the one a lock is bound to.
// Native is only granted when the platform probe succeeds.
func resolve(req Backend) Backend {
	if req == Auto {
		req = defaultBackend()
	}
	if req == Portable || !native.Available() {
		return Portable
	}
	return Native
}

// DefaultBackend returns the backend New binds to when no option is given.
func DefaultBackend() Backend {
	return resolve(Auto)
}

// Option configures a lock at construction.
type Option func(*options)

type options struct {
	backend Backend
}

// WithBackend requests a backend. Requesting Native on a platform without
// native support binds Portable.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Package envknob provides access to environment-variable tweakable
// settings of the lock runtime.
//
// Knobs are read lazily and the values are meant to be consulted once
// per process; they are not a way to reconfigure live locks.
package envknob

import (
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Knob names understood by the library.
const (
	// Backend selects the default lock backend: auto, native or portable.
	Backend = "UNFAIRLOCK_BACKEND"

	// TrackSites records the acquisition stack of every lock holder so
	// that misuse reports can show where a lock was taken.
	TrackSites = "UNFAIRLOCK_TRACK_SITES"
)

var (
	mu  sync.Mutex
	set = map[string]string{}
)

func noteEnv(k, v string) {
	mu.Lock()
	defer mu.Unlock()
	if v != "" {
		set[k] = v
	} else {
		delete(set, k)
	}
}

// LogCurrent logs the currently set environment knobs.
func LogCurrent(logf func(format string, args ...any)) {
	mu.Lock()
	defer mu.Unlock()

	list := make([]string, 0, len(set))
	for k := range set {
		list = append(list, k)
	}
	sort.Strings(list)
	for _, k := range list {
		logf("envknob: %s=%q", k, set[k])
	}
}

// String returns the named environment variable, trimmed and lowercased.
//
// If the variable is non-empty, it's also tracked as an in-use knob.
func String(envVar string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(envVar)))
	noteEnv(envVar, v)
	return v
}

// Bool returns the boolean value of the named environment variable.
// If the variable is not set, it returns false.
// An invalid value exits the program with a failure.
func Bool(envVar string) bool {
	val := os.Getenv(envVar)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Fatalf("invalid boolean environment variable %s value %q", envVar, val)
	}
	noteEnv(envVar, strconv.FormatBool(b)) // canonicalize
	return b
}

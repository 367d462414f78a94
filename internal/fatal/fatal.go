// Package fatal terminates the process on lock contract violations.
//
// Recursive acquisition, releasing a lock the caller does not hold and
// failed ownership preconditions are programming errors. They are reported
// the way the Go runtime reports its own fatal errors and the process exits
// with status 2. Nothing here can be recovered with recover().
package fatal

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/kolkov/unfairlock/internal/stackdepot"
)

// ExitCode is the status the process exits with, matching runtime.throw.
const ExitCode = 2

// Prefix starts every report.
const Prefix = "fatal error: unfairlock: "

// Throw writes a report for msg to stderr and exits with ExitCode.
//
// site is a stackdepot hash of the holder's acquisition site, or 0 when
// unknown or when site tracking is disabled.
func Throw(msg string, site uint64) {
	write(os.Stderr, msg, site, debug.Stack())
	os.Exit(ExitCode)
}

// Throwf is Throw with a formatted message and no acquisition site.
func Throwf(format string, args ...any) {
	Throw(fmt.Sprintf(format, args...), 0)
}

func write(w io.Writer, msg string, site uint64, stack []byte) {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(msg)
	b.WriteString("\n")
	if st := stackdepot.Get(site); st != nil {
		b.WriteString("\nlock acquired at:\n")
		b.WriteString(st.Format())
	}
	if len(stack) > 0 {
		b.WriteString("\n")
		b.Write(stack)
	}
	// Best effort: the process is about to exit.
	_, _ = io.WriteString(w, b.String())
}

package native

import (
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// MinKernel is the first Linux release with private futexes.
const MinKernel = "v2.6.22"

// Probe is the outcome of the native feature check.
type Probe struct {
	// Available reports whether the native backend can be used.
	Available bool

	// KernelRelease is the running kernel's release string, if known.
	KernelRelease string

	// Reason explains why the backend is unavailable. Empty if Available.
	Reason string
}

// Detect runs the feature check once per process and returns its outcome.
var Detect = sync.OnceValue(detect)

// Available reports whether the native backend can be used on this platform.
func Available() bool {
	return Detect().Available
}

// kernelVersion turns a kernel release string such as
// "5.15.0-1051-azure" into a semantic version ("v5.15.0").
// It returns "" if release does not start with a version number.
func kernelVersion(release string) string {
	end := strings.IndexFunc(release, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if end < 0 {
		end = len(release)
	}
	v := strings.Trim(release[:end], ".")
	// semver accepts at most major.minor.patch.
	if parts := strings.Split(v, "."); len(parts) > 3 {
		v = strings.Join(parts[:3], ".")
	}
	if v == "" || !semver.IsValid("v"+v) {
		return ""
	}
	return "v" + v
}

// kernelSupported reports whether release is at least MinKernel.
func kernelSupported(release string) bool {
	v := kernelVersion(release)
	return v != "" && semver.Compare(v, MinKernel) >= 0
}

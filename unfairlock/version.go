package unfairlock

import "github.com/kolkov/unfairlock/internal/native"

// Version information for unfairlock.
const (
	// Version is the current version of the module.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the lock runtime on the running platform.
type Info struct {
	// Version is the module version string.
	Version string

	// DefaultBackend is the backend New binds to without options.
	DefaultBackend Backend

	// NativeAvailable reports whether the native backend passed its probe.
	NativeAvailable bool

	// KernelRelease is the kernel release seen by the probe, if any.
	KernelRelease string

	// NativeReason explains why the native backend is unavailable.
	NativeReason string
}

// GetInfo returns information about the lock runtime.
//
// Example:
//
//	info := unfairlock.GetInfo()
//	fmt.Printf("unfairlock %s (default backend %v)\n", info.Version, info.DefaultBackend)
func GetInfo() Info {
	p := native.Detect()
	return Info{
		Version:         Version,
		DefaultBackend:  DefaultBackend(),
		NativeAvailable: p.Available,
		KernelRelease:   p.KernelRelease,
		NativeReason:    p.Reason,
	}
}

package native

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func detect() Probe {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return Probe{Reason: fmt.Sprintf("uname: %v", err)}
	}
	p := Probe{KernelRelease: unix.ByteSliceToString(uts.Release[:])}

	if !kernelSupported(p.KernelRelease) {
		p.Reason = fmt.Sprintf("kernel %q is older than %s or unrecognized", p.KernelRelease, MinKernel)
		return p
	}

	// Sandboxes may filter futex(2) even on a recent kernel.
	var word uint32
	if err := futexWakeErr(&word, 1); errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EPERM) {
		p.Reason = fmt.Sprintf("futex unavailable: %v", err)
		return p
	}

	p.Available = true
	return p
}

//go:build !linux

package native

import "runtime"

func detect() Probe {
	return Probe{Reason: "no futex support on " + runtime.GOOS}
}

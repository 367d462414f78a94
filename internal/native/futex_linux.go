package native

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// futex(2) operations on process-private words.
const (
	futexPrivateFlag = 128
	futexWaitPrivate = 0 | futexPrivateFlag
	futexWakePrivate = 1 | futexPrivateFlag
)

// futexWait sleeps while *addr == val. Spurious and early returns
// (EAGAIN, EINTR) are expected; callers re-check the key.
func futexWait(addr *uint32, val uint32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWaitPrivate,
		uintptr(val),
		0, 0, 0)
}

// futexWake wakes up to n sleepers on addr.
func futexWake(addr *uint32, n int) {
	_ = futexWakeErr(addr, n)
}

func futexWakeErr(addr *uint32, n int) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWakePrivate,
		uintptr(n),
		0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

package unfairlock

import "fmt"

// Ownership is the subject of a lock precondition.
type Ownership uint8

const (
	// Owner asserts that the calling goroutine holds the lock.
	Owner Ownership = iota + 1

	// NotOwner asserts that the calling goroutine does not hold the lock.
	NotOwner
)

func (o Ownership) String() string {
	switch o {
	case Owner:
		return "owner"
	case NotOwner:
		return "notOwner"
	}
	return fmt.Sprintf("Ownership(%d)", uint8(o))
}

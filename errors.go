package listeners

import "fmt"

// ErrCallQueueClosed is returned when a CallQueue reports itself closed at
// the moment a Call would have been posted to it. The Call is dropped
// silently from the closed queue's point of view, but the caller of
// Call/Queue/Call1/Queue1/Update still receives this error for the
// affected queue.
var ErrCallQueueClosed = fmt.Errorf("listeners: call queue is closed")

// ErrCallAllocationFailed is returned when the Call free-store has reached
// its configured capacity and cannot allocate a new Call. Publisher state
// is left unchanged when this occurs — no partial broadcast is recorded.
type ErrCallAllocationFailed struct {
	Capacity int
}

func (e ErrCallAllocationFailed) Error() string {
	return fmt.Sprintf("listeners: call pool exhausted (capacity %d)", e.Capacity)
}

// ErrReentrantAdd is the panic value raised when Add is called, on the
// same goroutine, while that goroutine is already inside a notification
// dispatched by the same Publisher. See the Open Questions entry in
// DESIGN.md: re-entrant Add into the same publisher is a contract
// violation, not an allowed-but-racy pattern.
var ErrReentrantAdd = ContractViolation{Reason: "Add called re-entrantly from inside a notification of the same Publisher"}

// ContractViolation is panicked for misuse the original design classifies
// as a fatal assertion rather than a recoverable error: Add with a nil
// subscriber or CallQueue, Add of a subscriber already registered on the
// Publisher, Remove of a subscriber not registered on it, and re-entrant
// Add (ErrReentrantAdd). Go has no separate debug/release build mode, so
// these checks are always on. ObserverPool.Close also returns one, as an
// error rather than a panic, when its workers do not drain in time.
type ContractViolation struct {
	Reason string
}

func (e ContractViolation) Error() string {
	return "listeners: contract violation: " + e.Reason
}

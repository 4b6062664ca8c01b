package listeners

// CallQueue is the external collaborator every Group is bound to. A
// Publisher never creates or schedules threads itself; it only ever hands
// work to a CallQueue the caller supplied when registering a subscriber.
//
// Implementations live in the callqueue subpackage. A CallQueue is used as
// a map key internally (one Group per distinct CallQueue), so an
// implementation must be comparable — a pointer receiver type, which every
// reference implementation here is, satisfies that for free.
type CallQueue interface {
	// Post hands work to the queue for eventual, in-order execution on
	// whatever goroutine services it. Post must not block the caller
	// waiting for work to run.
	Post(work func())

	// IsOnServicingThread reports whether the calling goroutine is the one
	// that services this queue. A queue with no fixed servicing goroutine
	// (work may run on any of several) always returns false; call/call1
	// then behave exactly like queue/queue1 against it.
	IsOnServicingThread() bool

	// Synchronize blocks until every item of work posted before this call
	// has finished running. It does not prevent new work posted
	// concurrently by other goroutines from also draining.
	Synchronize()

	// IsClosed reports whether the queue is permanently done accepting
	// work. Once true it must stay true; work posted to a closed queue is
	// dropped silently by the queue itself, never causing a panic.
	IsClosed() bool
}

// Kind identifies which notification a coalescing Update targets. It is
// the byte-wise identity of a bound method value, truncated/zero-padded to
// 16 bytes — the direct translation of the original's pointer-to-member
// key, produced by KindOf. Callers that would rather use a hand-picked
// comparable tag can build a Kind directly; either way Proxy only ever
// compares Kind values for equality.
type Kind [16]byte

package listeners

import "sync"

// cacheLinePad is wide enough to push whatever follows it onto its own
// cache line on every architecture this module targets (64-byte lines on
// amd64/arm64). The Group set lock, the Proxy set lock, and a Group's own
// entry-list lock each sit behind one of these: they are taken far more
// often from a mutator's own goroutine than they are mutated, and without
// the pad, adjacent locks sharing a line turn an unrelated writer's cache
// invalidation into contention on a lock nobody meant to touch.
type cacheLinePad [64]byte

// paddedRWMutex is a sync.RWMutex with trailing padding so two of them
// never share a cache line when embedded back to back in a struct.
type paddedRWMutex struct {
	sync.RWMutex
	_ cacheLinePad
}

// paddedMutex is the exclusive-lock equivalent of paddedRWMutex, used for
// the single-writer structures (Proxy sub-entry bookkeeping) that never
// need concurrent readers.
type paddedMutex struct {
	sync.Mutex
	_ cacheLinePad
}

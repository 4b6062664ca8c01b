package listeners

import "sync/atomic"

// Tick is the Publisher-scoped logical clock a broadcast is stamped with.
// A subscriber added at tick t sees every broadcast stamped with a tick
// strictly greater than t, and none stamped with a tick less than or equal
// to t. 64 bits is load-bearing, not cosmetic: a 32-bit counter on a
// publisher broadcasting at a sustained high rate can wrap within a single
// process lifetime, and a wrapped tick would make an old subscriber see a
// notification twice or a new one miss one it should have seen.
type Tick uint64

// tickSource hands out strictly increasing ticks. Ticks are taken after the
// caller already holds the Group-set read lock, so the tick order a Group's
// doCall loop sees a broadcast at matches the order Add observed when it
// recorded the new Entry's tickAtAdd.
type tickSource struct {
	n atomic.Uint64
}

func (t *tickSource) next() Tick {
	return Tick(t.n.Add(1))
}

func (t *tickSource) current() Tick {
	return Tick(t.n.Load())
}

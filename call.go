package listeners

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Call is a single pool-allocated, reference-counted unit of deferred
// notification work. A Call outlives the Publisher call (Call, Queue,
// Call1, Queue1 or Update) that created it for as long as any CallQueue still has it pending, and is
// returned to the free-store only once every queue it was posted to has
// invoked or dropped it.
type Call struct {
	id        string
	fn        func(subscriber any)
	createdAt time.Time
	refs      atomic.Int32
	pool      *callPool
}

// ID is a diagnostic identifier for logging; it plays no part in ordering
// or delivery correctness.
func (c *Call) ID() string { return c.id }

func (c *Call) invoke(subscriber any) {
	c.fn(subscriber)
}

// addRef records one more pending delivery of this Call. Paired with a
// release once that delivery completes or is dropped.
func (c *Call) addRef() {
	c.refs.Add(1)
}

// release drops one pending delivery. Once the count reaches zero the Call
// is cleared and returned to its pool for reuse.
func (c *Call) release() {
	if c.refs.Add(-1) == 0 {
		pool := c.pool
		c.fn = nil
		c.id = ""
		c.pool = nil
		pool.put(c)
	}
}

// callPool is the C1 free-store: a bounded, FIFO-biased allocator for
// Calls. "Bounded" is the idiomatic Go rendition of the original's
// fixed-size-block free-store contract (see spec §6): an unbounded
// sync.Pool never reports exhaustion, so a configured capacity of zero
// or less here means unbounded, and any positive capacity is enforced
// with a buffered-channel semaphore — the same channel-as-semaphore
// idiom the teacher's ObserverPool uses for its event buffer, just
// inverted from a drop-on-full queue into an acquire/release token set.
type callPool struct {
	pool     sync.Pool
	tokens   chan struct{}
	capacity int
}

func newCallPool(capacity int) *callPool {
	cp := &callPool{
		pool:     sync.Pool{New: func() any { return &Call{} }},
		capacity: capacity,
	}
	if capacity > 0 {
		cp.tokens = make(chan struct{}, capacity)
		for i := 0; i < capacity; i++ {
			cp.tokens <- struct{}{}
		}
	}
	return cp
}

func (cp *callPool) alloc(fn func(subscriber any), now time.Time) (*Call, error) {
	if cp.tokens != nil {
		select {
		case <-cp.tokens:
		default:
			return nil, ErrCallAllocationFailed{Capacity: cp.capacity}
		}
	}
	c := cp.pool.Get().(*Call)
	c.fn = fn
	c.id = uuid.NewString()
	c.createdAt = now
	c.refs.Store(1)
	c.pool = cp
	return c, nil
}

func (cp *callPool) put(c *Call) {
	cp.pool.Put(c)
	if cp.tokens != nil {
		cp.tokens <- struct{}{}
	}
}

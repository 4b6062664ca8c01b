package listeners

import (
	"container/list"

	"github.com/trickstertwo/xlog"
)

// entry is one subscriber's registration on a Group, carrying the tick it
// joined at so the as-of-add visibility rule can be applied per broadcast.
type entry struct {
	subscriber any
	tickAtAdd  Tick
}

// Group is C3: the set of subscribers that share a single CallQueue. A
// Publisher holds exactly one Group per distinct CallQueue that currently
// has at least one subscriber registered on it; a Group left empty by
// Remove is retired.
//
// Two structures are guarded by the same lock: the ordered entry list
// (container/list, the same structure the pack's own idiomatic listener
// registry uses for this) and a subscriber->element index for O(1)
// membership checks and removal. Holding both under one paddedRWMutex
// keeps add/remove/lookup linearizable with respect to each other without
// a second lock to order against.
type Group struct {
	queue   CallQueue
	logger  *xlog.Logger
	mu      paddedRWMutex
	entries *list.List
	index   map[any]*list.Element
}

func newGroup(q CallQueue, logger *xlog.Logger) *Group {
	return &Group{
		queue:   q,
		logger:  logger,
		entries: list.New(),
		index:   make(map[any]*list.Element),
	}
}

// add registers subscriber at tick, the logical moment Add took the Group
// set's write lock. Panics with ContractViolation if subscriber already
// has an entry on this exact Group — Publisher.Add already guards against
// this across the whole index, so reaching this panic means the index and
// the Group it points at have gone out of sync.
func (g *Group) add(subscriber any, tick Tick) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.index[subscriber]; exists {
		panic(ContractViolation{Reason: "subscriber already has an entry on this Group"})
	}
	el := g.entries.PushBack(&entry{subscriber: subscriber, tickAtAdd: tick})
	g.index[subscriber] = el
	return nil
}

// remove drops subscriber's entry. Safe to call while a doCall pass that
// already snapshotted this Group is mid-delivery: the pass re-checks
// membership before each invocation, so it skips this subscriber if it has
// not reached it yet, and no pass that snapshots after this call returns
// includes it. This holds when the caller is a subscriber removing itself
// or another subscriber from inside its own callback.
func (g *Group) remove(subscriber any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	el, ok := g.index[subscriber]
	if !ok {
		return false
	}
	g.entries.Remove(el)
	delete(g.index, subscriber)
	return true
}

func (g *Group) contains(subscriber any) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.index[subscriber]
	return ok
}

func (g *Group) size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entries.Len()
}

func (g *Group) isEmpty() bool {
	return g.size() == 0
}

// logDropped records a notification silently dropped because this
// Group's queue is already closed. A nil logger (as the tests pass to
// newGroup) is a no-op.
func (g *Group) logDropped(c *Call) {
	if g.logger == nil {
		return
	}
	g.logger.Warn().Str("call", c.ID()).Msg("listeners: dropped, call queue closed")
}

func (g *Group) snapshot() []entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entry, 0, g.entries.Len())
	for el := g.entries.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*entry))
	}
	return out
}

// doCall delivers call to every subscriber on this Group whose tickAtAdd
// is strictly less than asOf — the as-of-add rule. If drain is true and
// the Group's queue reports it is running on its own servicing thread
// right now, delivery happens inline on the calling goroutine instead of
// being posted; this and doCall1 are the only paths that ever deliver
// synchronously.
func (g *Group) doCall(c *Call, asOf Tick, drain bool) error {
	if g.queue.IsClosed() {
		g.logDropped(c)
		return ErrCallQueueClosed
	}

	work := func() {
		for _, e := range g.snapshot() {
			if e.tickAtAdd >= asOf {
				continue
			}
			if !g.contains(e.subscriber) {
				continue
			}
			c.invoke(e.subscriber)
		}
		c.release()
	}

	c.addRef()
	if drain && g.queue.IsOnServicingThread() {
		work()
		return nil
	}
	g.queue.Post(work)
	return nil
}

// doCall1 delivers call to exactly one subscriber, the same as doCall but
// without the as-of-add tick filter: a targeted notification is always
// deliverable to a currently-registered subscriber regardless of when it
// joined, matching the original's call1/queue1 semantics.
func (g *Group) doCall1(subscriber any, c *Call, drain bool) error {
	if g.queue.IsClosed() {
		g.logDropped(c)
		return ErrCallQueueClosed
	}

	work := func() {
		if g.contains(subscriber) {
			c.invoke(subscriber)
		}
		c.release()
	}

	c.addRef()
	if drain && g.queue.IsOnServicingThread() {
		work()
		return nil
	}
	g.queue.Post(work)
	return nil
}

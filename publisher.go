package listeners

import (
	"sync"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"

	"github.com/corrosive-labs/listeners/internal/gid"
)

// Publisher is C5: the registry subscribers attach to and callers
// broadcast or target notifications through. It owns the Group set (one
// per distinct CallQueue), the Proxy set (one per distinct Kind), the
// publisher-scoped tick counter, and the Call free-store every broadcast
// allocates from.
type Publisher struct {
	logger *xlog.Logger
	clock  xclock.Clock
	tick   tickSource
	calls  *callPool

	groupsMu paddedRWMutex
	groups   map[CallQueue]*Group
	index    map[any]*Group

	proxiesMu paddedRWMutex
	proxies   map[Kind]*Proxy

	observers *ObserverPool

	activeGoroutines sync.Map
}

func newPublisher(logger *xlog.Logger, clock xclock.Clock, callPoolCap int, observers []Observer, obsWorkers, obsBuffer int) *Publisher {
	return &Publisher{
		logger:    logger,
		clock:     clock,
		calls:     newCallPool(callPoolCap),
		groups:    make(map[CallQueue]*Group),
		index:     make(map[any]*Group),
		proxies:   make(map[Kind]*Proxy),
		observers: NewObserverPool(observers, obsWorkers, obsBuffer),
	}
}

// NewPublisher builds a Publisher with default logging, clock, and
// unbounded call-pool settings. Equivalent to NewPublisherBuilder().Build().
func NewPublisher() *Publisher {
	p, _ := NewPublisherBuilder().Build()
	return p
}

func (p *Publisher) notify(e Event) {
	p.observers.Notify(e)
}

// Add registers subscriber on the Group for q, creating that Group if this
// is the first subscriber ever seen on q. Panics with ContractViolation if
// subscriber is already registered — on q or on any other queue, since a
// subscriber may only ever belong to one Group on one Publisher at a time;
// a double-Add is a caller bug, not a recoverable condition.
//
// Panics with ErrReentrantAdd if called, on the same goroutine, from
// inside a notification this same Publisher is currently dispatching.
func (p *Publisher) Add(subscriber any, q CallQueue) error {
	if subscriber == nil || q == nil {
		panic(ContractViolation{Reason: "Add called with a nil subscriber or CallQueue"})
	}
	if _, active := p.activeGoroutines.Load(gid.Current()); active {
		panic(ErrReentrantAdd)
	}

	p.groupsMu.Lock()
	if _, exists := p.index[subscriber]; exists {
		p.groupsMu.Unlock()
		panic(ContractViolation{Reason: "Add called for a subscriber already registered on this Publisher"})
	}
	g, ok := p.groups[q]
	if !ok {
		g = newGroup(q, p.logger)
		p.groups[q] = g
	}
	tick := p.tick.current()
	if err := g.add(subscriber, tick); err != nil {
		p.groupsMu.Unlock()
		return err
	}
	p.index[subscriber] = g
	p.groupsMu.Unlock()

	p.notify(Event{Type: EventAdd, Tick: tick})
	return nil
}

// Remove drops subscriber from whichever Group it is registered on. If
// that Group becomes empty, it and any Proxy sub-entries referencing it
// are retired. Panics with ContractViolation if subscriber is not
// currently registered — removing something never added is a caller bug,
// not a recoverable condition.
func (p *Publisher) Remove(subscriber any) error {
	p.groupsMu.Lock()
	g, ok := p.index[subscriber]
	if !ok {
		p.groupsMu.Unlock()
		panic(ContractViolation{Reason: "Remove called for a subscriber not registered on this Publisher"})
	}
	g.remove(subscriber)
	delete(p.index, subscriber)
	empty := g.isEmpty()
	var queueOfEmptied CallQueue
	if empty {
		for q, gg := range p.groups {
			if gg == g {
				queueOfEmptied = q
				delete(p.groups, q)
				break
			}
		}
	}
	p.groupsMu.Unlock()

	if empty && queueOfEmptied != nil {
		p.proxiesMu.RLock()
		proxies := make([]*Proxy, 0, len(p.proxies))
		for _, pr := range p.proxies {
			proxies = append(proxies, pr)
		}
		p.proxiesMu.RUnlock()
		for _, pr := range proxies {
			pr.dropGroup(g)
		}
	}

	p.notify(Event{Type: EventRemove})
	return nil
}

func (p *Publisher) markActive() {
	p.activeGoroutines.Store(gid.Current(), struct{}{})
}

func (p *Publisher) unmarkActive() {
	p.activeGoroutines.Delete(gid.Current())
}

// broadcast is the shared implementation behind Call and Queue: allocate
// one Call, stamp the current tick under the Group-set read lock (so the
// as-of-add rule is well defined relative to any concurrent Add), fan it
// out to every Group, and release the allocator's own reference once every
// Group has taken its own.
func (p *Publisher) broadcast(fn func(subscriber any), drain bool) error {
	p.groupsMu.RLock()
	tick := p.tick.next()
	groups := make([]*Group, 0, len(p.groups))
	for _, g := range p.groups {
		groups = append(groups, g)
	}
	p.groupsMu.RUnlock()

	start := p.clock.Now()
	c, err := p.calls.alloc(fn, start)
	if err != nil {
		p.notify(Event{Type: EventDrop, Tick: tick, Err: err})
		return err
	}

	p.markActive()
	defer p.unmarkActive()

	var firstErr error
	for _, g := range groups {
		if err := g.doCall(c, tick, drain); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.release()

	evType := EventQueue
	if drain {
		evType = EventCall
	}
	p.notify(Event{Type: evType, Tick: tick, Duration: p.clock.Since(start), Err: firstErr})
	return firstErr
}

// Call broadcasts fn to every currently-registered subscriber whose Add
// predates this call's tick. If invoked on a Group's own servicing thread,
// that Group's delivery drains inline before Call returns; every other
// Group's delivery is posted as usual.
func (p *Publisher) Call(fn func(subscriber any)) error {
	return p.broadcast(fn, true)
}

// Queue behaves like Call but never drains inline, even for a Group whose
// queue is serviced by the calling goroutine.
func (p *Publisher) Queue(fn func(subscriber any)) error {
	return p.broadcast(fn, false)
}

// target is the shared implementation behind Call1 and Queue1. A
// subscriber not currently registered — most often one that was Removed,
// possibly by itself, between the caller deciding to target it and this
// call running — is a silent no-op, not an error: a targeted publish
// racing a removal is an expected, unreported outcome.
func (p *Publisher) target(subscriber any, fn func(subscriber any), drain bool) error {
	p.groupsMu.RLock()
	g, ok := p.index[subscriber]
	p.groupsMu.RUnlock()
	if !ok {
		return nil
	}

	start := p.clock.Now()
	c, err := p.calls.alloc(fn, start)
	if err != nil {
		p.notify(Event{Type: EventDrop, Err: err})
		return err
	}

	p.markActive()
	defer p.unmarkActive()

	err = g.doCall1(subscriber, c, drain)
	c.release()

	evType := EventQueue1
	if drain {
		evType = EventCall1
	}
	p.notify(Event{Type: evType, Duration: p.clock.Since(start), Err: err})
	return err
}

// Call1 delivers fn to exactly one subscriber, draining inline if called
// from that subscriber's Group's own servicing thread.
func (p *Publisher) Call1(subscriber any, fn func(subscriber any)) error {
	return p.target(subscriber, fn, true)
}

// Queue1 behaves like Call1 but never drains inline.
func (p *Publisher) Queue1(subscriber any, fn func(subscriber any)) error {
	return p.target(subscriber, fn, false)
}

func (p *Publisher) proxyFor(kind Kind) *Proxy {
	p.proxiesMu.RLock()
	pr, ok := p.proxies[kind]
	p.proxiesMu.RUnlock()
	if ok {
		return pr
	}

	p.proxiesMu.Lock()
	defer p.proxiesMu.Unlock()
	if pr, ok = p.proxies[kind]; ok {
		return pr
	}
	pr = newProxy(kind)
	p.proxies[kind] = pr
	return pr
}

// Update coalesces fn under kind: if a delivery for kind is already
// pending on some Group (posted, its drain not yet started), fn replaces it
// there rather than queuing a second one. At most one delivery per Group is
// ever pending per burst, and it always carries the most recently Updated fn.
//
// Update stamps its own tick under the Group-set read lock, the same as
// broadcast, and that tick governs the eventual drain's as-of-add
// visibility: a subscriber Added after this Update was posted but before
// its drain runs is excluded, exactly as a plain Call/Queue would exclude
// it.
func (p *Publisher) Update(kind Kind, fn func(subscriber any)) error {
	pr := p.proxyFor(kind)

	p.groupsMu.RLock()
	tick := p.tick.next()
	groups := make([]*Group, 0, len(p.groups))
	for _, g := range p.groups {
		groups = append(groups, g)
	}
	p.groupsMu.RUnlock()

	start := p.clock.Now()
	c, err := p.calls.alloc(fn, start)
	if err != nil {
		p.notify(Event{Type: EventDrop, Kind: kind, Tick: tick, Err: err})
		return err
	}

	var firstErr error
	for _, g := range groups {
		coalesced, err := pr.update(g, c, tick)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if coalesced {
			p.notify(Event{Type: EventCoalesce, Kind: kind, Tick: tick})
		}
	}
	c.release()

	p.notify(Event{Type: EventUpdate, Kind: kind, Tick: tick, Duration: p.clock.Since(start), Err: firstErr})
	return firstErr
}

// Close stops the Publisher's telemetry pipeline. It does not close any
// CallQueue a subscriber registered with — those are owned by their
// callers, not by the Publisher.
func (p *Publisher) Close() error {
	return p.observers.Close(5 * time.Second)
}

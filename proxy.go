package listeners

import "sync/atomic"

// proxySubEntry is one Group's coalescing slot within a Proxy: at most one
// Call is ever pending (posted and not yet drained) to this Group for this
// Proxy's Kind at a time.
type proxySubEntry struct {
	pending atomic.Pointer[Call]
}

// Proxy is C4: one per distinct notification Kind, coalescing bursts of
// Update calls so a fast producer pushing state updates never queues more
// than one undelivered update per Group — the newest one always wins.
type Proxy struct {
	kind Kind
	mu   paddedMutex
	subs map[*Group]*proxySubEntry
}

func newProxy(kind Kind) *Proxy {
	return &Proxy{kind: kind, subs: make(map[*Group]*proxySubEntry)}
}

func (p *Proxy) subEntry(g *Group) *proxySubEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	se, ok := p.subs[g]
	if !ok {
		se = &proxySubEntry{}
		p.subs[g] = se
	}
	return se
}

// update installs c as the pending Call for Group g under this Proxy's
// Kind, to be delivered to whichever subscribers were already on g as of
// tickAtPost (the same as-of-add rule Group.doCall applies to a plain
// broadcast — a subscriber that joins after this Update was posted but
// before its drain runs must not receive it). If a drain is already queued
// for g and has not started yet, c simply replaces whatever was pending — the
// replaced Call is released and never delivered, and update reports that
// replacement via its coalesced return so the caller can surface it as
// telemetry. Otherwise (nothing pending, including while an earlier drain
// is already running) this is the first update of a new burst and a
// single drain is posted to g's queue.
func (p *Proxy) update(g *Group, c *Call, tickAtPost Tick) (coalesced bool, err error) {
	if g.queue.IsClosed() {
		return false, ErrCallQueueClosed
	}

	se := p.subEntry(g)
	c.addRef()
	old := se.pending.Swap(c)
	if old != nil {
		old.release()
		return true, nil
	}

	g.queue.Post(func() {
		cur := se.pending.Swap(nil)
		if cur == nil {
			return
		}
		for _, e := range g.snapshot() {
			if e.tickAtAdd >= tickAtPost {
				continue
			}
			if g.contains(e.subscriber) {
				cur.invoke(e.subscriber)
			}
		}
		cur.release()
	})
	return false, nil
}

// dropGroup removes a Group's coalescing slot, releasing any Call still
// pending in it. Called when a Group becomes empty and the Publisher
// retires it, so a Proxy never pins a Call alive for a Group nothing is
// registered on anymore.
func (p *Proxy) dropGroup(g *Group) {
	p.mu.Lock()
	se, ok := p.subs[g]
	if ok {
		delete(p.subs, g)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	if cur := se.pending.Swap(nil); cur != nil {
		cur.release()
	}
}

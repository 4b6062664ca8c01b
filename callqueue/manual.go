// Package callqueue provides reference listeners.CallQueue implementations:
// Manual, pumped explicitly by its owner (the original's ManualCallQueue,
// built for audio-callback-style code that must never let a notification
// run on a thread it doesn't control), and Loop, a dedicated background
// goroutine that drains continuously (the original's GuiCallQueue, for
// message-thread-style code).
package callqueue

import (
	"sync"
	"sync/atomic"

	"github.com/corrosive-labs/listeners/internal/gid"
)

// Manual is a CallQueue with no goroutine of its own: work accumulates
// until the owner calls Pump, at which point everything pending so far
// runs synchronously on whatever goroutine called Pump. IsOnServicingThread
// is only ever true for the goroutine currently inside Pump.
type Manual struct {
	mu      sync.Mutex
	pending []func()
	pumper  atomic.Uint64
	closed  atomic.Bool
}

// NewManual returns an empty Manual queue.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(work func()) {
	if m.closed.Load() {
		return
	}
	m.mu.Lock()
	m.pending = append(m.pending, work)
	m.mu.Unlock()
}

func (m *Manual) IsOnServicingThread() bool {
	id := m.pumper.Load()
	return id != 0 && id == gid.Current()
}

func (m *Manual) IsClosed() bool { return m.closed.Load() }

// Synchronize is Pump: a Manual queue has no other thread that could ever
// drain it, so synchronizing against it and pumping it are the same act.
func (m *Manual) Synchronize() { m.Pump() }

// Pump runs every work item posted so far, synchronously, on the calling
// goroutine. Work posted by a callback while Pump is running (a listener
// re-entering Add/Remove/Broadcast against a Publisher bound to this same
// queue) is picked up by the same Pump call rather than left for the next
// one, matching the original's "pump until empty" contract.
func (m *Manual) Pump() {
	m.pumper.Store(gid.Current())
	defer m.pumper.Store(0)
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return
		}
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()
		for _, work := range batch {
			work()
		}
	}
}

// Close marks the queue closed; further Posts are dropped silently, and
// anything already pending is discarded rather than run.
func (m *Manual) Close() {
	m.closed.Store(true)
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

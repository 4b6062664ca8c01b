package callqueue

import (
	"sync/atomic"

	"github.com/corrosive-labs/listeners/internal/gid"
)

// Loop is a CallQueue serviced by one dedicated background goroutine that
// runs for the queue's entire lifetime, draining work in posted order. It
// is the reference queue for GUI/message-thread-style subscribers that
// always want notifications delivered on the same goroutine.
type Loop struct {
	workCh       chan func()
	doneCh       chan struct{}
	servicingGID atomic.Uint64
	closed       atomic.Bool
	dropped      atomic.Uint64
}

// NewLoop starts a Loop queue with the given backlog buffer size. A
// bufferSize of zero or less falls back to a default large enough to
// absorb ordinary bursts without dropping.
func NewLoop(bufferSize int) *Loop {
	if bufferSize < 1 {
		bufferSize = 256
	}
	l := &Loop{
		workCh: make(chan func(), bufferSize),
		doneCh: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	l.servicingGID.Store(gid.Current())
	for work := range l.workCh {
		work()
	}
	close(l.doneCh)
}

// Post enqueues work. If the backlog buffer is full, work is dropped
// rather than blocking the poster — the same silent-drop-under-pressure
// contract a closed queue has, just triggered by backpressure instead of
// shutdown. Dropped() reports how often this has happened.
func (l *Loop) Post(work func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.workCh <- work:
	default:
		l.dropped.Add(1)
	}
}

func (l *Loop) IsOnServicingThread() bool {
	return l.servicingGID.Load() == gid.Current()
}

func (l *Loop) IsClosed() bool { return l.closed.Load() }

// Synchronize blocks until every item posted before this call has run, by
// posting a marker and waiting for it to execute.
func (l *Loop) Synchronize() {
	if l.closed.Load() {
		return
	}
	done := make(chan struct{})
	l.workCh <- func() { close(done) }
	<-done
}

// Dropped reports how many Posts were discarded because the backlog
// buffer was full.
func (l *Loop) Dropped() uint64 { return l.dropped.Load() }

// Close stops accepting work and waits for the servicing goroutine to
// finish draining whatever was already posted.
func (l *Loop) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.workCh)
	<-l.doneCh
}

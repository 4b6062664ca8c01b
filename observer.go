package listeners

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xlog"
)

// LoggingObserver emits fabric Events via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnEvent(e Event) {
	if o.Logger == nil {
		return
	}
	ev := o.Logger.With(
		xlog.Str("type", string(e.Type)),
		xlog.Str("tick", strconv.FormatUint(uint64(e.Tick), 10)),
	)
	switch e.Type {
	case EventDrop:
		ev.Warn().Err(e.Err).Msg("listeners event")
	default:
		if e.Duration > 0 {
			ev = ev.With(xlog.Dur("duration", e.Duration))
		}
		ev.Debug().Msg("listeners event")
	}
}

// ObserverPool dispatches Events to a fixed set of Observers on background
// goroutines, so a slow or misbehaving Observer can never add latency to
// the Add/Remove/Broadcast path that produced the Event. Non-blocking:
// Notify drops an Event rather than let the buffer apply backpressure to
// the fabric.
type ObserverPool struct {
	observers []Observer
	eventCh   chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    atomic.Bool
	dropped   atomic.Uint64
	processed atomic.Uint64
}

// NewObserverPool starts a pool with the given workers and buffer size.
// Zero or negative values fall back to small defaults suitable for a
// single Publisher's telemetry volume.
func NewObserverPool(observers []Observer, workers, bufferSize int) *ObserverPool {
	if workers < 1 {
		workers = 2
	}
	if bufferSize < 1 {
		bufferSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	op := &ObserverPool{
		observers: append([]Observer(nil), observers...),
		eventCh:   make(chan Event, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		op.wg.Add(1)
		go op.worker()
	}
	return op
}

// Notify queues e for asynchronous dispatch to every configured Observer.
func (op *ObserverPool) Notify(e Event) {
	if op.closed.Load() || len(op.observers) == 0 {
		return
	}
	select {
	case op.eventCh <- e:
	default:
		op.dropped.Add(1)
	}
}

func (op *ObserverPool) worker() {
	defer op.wg.Done()
	for {
		select {
		case <-op.ctx.Done():
			for {
				select {
				case e := <-op.eventCh:
					op.dispatch(e)
				default:
					return
				}
			}
		case e := <-op.eventCh:
			op.dispatch(e)
			op.processed.Add(1)
		}
	}
}

func (op *ObserverPool) dispatch(e Event) {
	for _, obs := range op.observers {
		if obs == nil {
			continue
		}
		func() {
			defer func() { recover() }()
			obs.OnEvent(e)
		}()
	}
}

// Close stops accepting new Events and waits for already-queued ones to
// drain, up to timeout.
func (op *ObserverPool) Close(timeout time.Duration) error {
	if op.closed.Swap(true) {
		return nil
	}
	op.cancel()
	done := make(chan struct{})
	go func() {
		op.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ContractViolation{Reason: "observer pool did not drain within timeout"}
	}
}

// Stats reports current pool counters, mainly for tests.
type ObserverPoolStats struct {
	Dropped   uint64
	Processed uint64
}

func (op *ObserverPool) Stats() ObserverPoolStats {
	return ObserverPoolStats{Dropped: op.dropped.Load(), Processed: op.processed.Load()}
}

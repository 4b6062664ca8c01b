package listeners

import (
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
	"github.com/trickstertwo/xlog/adapter/zerolog"
)

// PublisherBuilder constructs Publishers (Builder pattern), mirroring the
// teacher's BusBuilder: sensible defaults, fluent With* setters, a Build
// that validates before handing back a usable value.
type PublisherBuilder struct {
	logger          *xlog.Logger
	clock           xclock.Clock
	observers       []Observer
	observerWorkers int
	observerBuffer  int
	callPoolCap     int
}

// NewPublisherBuilder returns a builder with defaults matching what a
// Publisher built with zero configuration would use.
func NewPublisherBuilder() *PublisherBuilder {
	return &PublisherBuilder{
		observerWorkers: 2,
		observerBuffer:  256,
		callPoolCap:     0, // unbounded
	}
}

func (pb *PublisherBuilder) WithLogger(l *xlog.Logger) *PublisherBuilder {
	pb.logger = l
	return pb
}

func (pb *PublisherBuilder) WithClock(c xclock.Clock) *PublisherBuilder {
	pb.clock = c
	return pb
}

func (pb *PublisherBuilder) WithObserver(obs ...Observer) *PublisherBuilder {
	for _, o := range obs {
		if o != nil {
			pb.observers = append(pb.observers, o)
		}
	}
	return pb
}

func (pb *PublisherBuilder) WithObserverPool(workers, bufferSize int) *PublisherBuilder {
	if workers > 0 {
		pb.observerWorkers = workers
	}
	if bufferSize > 0 {
		pb.observerBuffer = bufferSize
	}
	return pb
}

// WithCallPoolCapacity bounds the Call free-store. Zero or negative means
// unbounded, which is the default.
func (pb *PublisherBuilder) WithCallPoolCapacity(capacity int) *PublisherBuilder {
	pb.callPoolCap = capacity
	return pb
}

// Build validates configuration and returns a ready-to-use Publisher.
func (pb *PublisherBuilder) Build() (*Publisher, error) {
	lg := pb.logger
	if lg == nil {
		lg = zerolog.Use(zerolog.Config{
			MinLevel: xlog.LevelInfo,
			Console:  true,
		}).With(xlog.Str("component", "listeners"))
	}
	clk := pb.clock
	if clk == nil {
		clk = xclock.Default()
	}
	return newPublisher(lg, clk, pb.callPoolCap, pb.observers, pb.observerWorkers, pb.observerBuffer), nil
}

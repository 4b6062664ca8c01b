// Package redisstream mirrors fabric telemetry onto a Redis Stream for
// cross-process dashboards. It is an Observer, nothing more: it never
// reads from the stream, never participates in notification delivery, and
// its absence or failure never changes what a listener receives.
package redisstream

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corrosive-labs/listeners"
)

// Field names written to each stream entry.
const (
	fieldType     = "type"
	fieldKind     = "kind"
	fieldTick     = "tick"
	fieldDuration = "durationNs"
	fieldErr      = "err"
)

// Config configures a Sink's connection to Redis and the stream it writes to.
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	Stream       string
	MaxLenApprox int64
	BufferSize   int
}

// Defaults returns a Config with a local Redis address and a bounded
// in-process buffer, matching the teacher's adapter defaults in spirit.
func Defaults() Config {
	return Config{
		Addr:         "127.0.0.1:6379",
		Stream:       "listeners:events",
		MaxLenApprox: 10_000,
		BufferSize:   1024,
	}
}

// Sink is a listeners.Observer that asynchronously XAdds every Event onto
// a Redis Stream. OnEvent never blocks the caller on network I/O: events
// are buffered in a channel and written by one background goroutine,
// dropped if that buffer is ever full.
type Sink struct {
	client  *redis.Client
	cfg     Config
	eventCh chan listeners.Event
	closed  atomic.Bool
	dropped atomic.Uint64
	wg      sync.WaitGroup
}

// New connects to Redis per cfg and starts the background writer.
func New(cfg Config) *Sink {
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1024
	}
	s := &Sink{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		cfg:     cfg,
		eventCh: make(chan listeners.Event, cfg.BufferSize),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sink) OnEvent(e listeners.Event) {
	if s.closed.Load() {
		return
	}
	select {
	case s.eventCh <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *Sink) run() {
	defer s.wg.Done()
	for e := range s.eventCh {
		s.write(e)
	}
}

func (s *Sink) write(e listeners.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errStr := ""
	if e.Err != nil {
		errStr = e.Err.Error()
	}

	args := &redis.XAddArgs{
		Stream: s.cfg.Stream,
		ID:     "*",
		Values: map[string]any{
			fieldType:     string(e.Type),
			fieldKind:     hex.EncodeToString(e.Kind[:]),
			fieldTick:     strconv.FormatUint(uint64(e.Tick), 10),
			fieldDuration: strconv.FormatInt(int64(e.Duration), 10),
			fieldErr:      errStr,
		},
	}
	if s.cfg.MaxLenApprox > 0 {
		args.MaxLen = s.cfg.MaxLenApprox
		args.Approx = true
	}
	s.client.XAdd(ctx, args)
}

// Dropped reports how many Events were discarded because the internal
// buffer was full.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

// Close stops accepting new Events, waits for the background writer to
// drain, and closes the Redis client.
func (s *Sink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.eventCh)
	s.wg.Wait()
	return s.client.Close()
}

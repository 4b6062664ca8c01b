package redisstream

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrosive-labs/listeners"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "127.0.0.1:6379", cfg.Addr)
	assert.Equal(t, "listeners:events", cfg.Stream)
	assert.Equal(t, 1024, cfg.BufferSize)
}

func pingable(t *testing.T, addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	return client
}

func TestSink_WritesEventToStream(t *testing.T) {
	client := pingable(t, "127.0.0.1:6379")
	defer client.Close()

	cfg := Defaults()
	cfg.Stream = "listeners:events:test"
	defer client.Del(context.Background(), cfg.Stream)

	s := New(cfg)
	s.OnEvent(listeners.Event{Type: listeners.EventAdd, Tick: 1})
	require.NoError(t, s.Close())

	entries, err := client.XRange(context.Background(), cfg.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "add", entries[0].Values[fieldType])
}

package callqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoop_DrainsInPostOrder(t *testing.T) {
	l := NewLoop(8)
	defer l.Close()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		n := i
		l.Post(func() { order = append(order, n) })
	}
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loop to drain")
	}
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestLoop_IsOnServicingThread(t *testing.T) {
	l := NewLoop(8)
	defer l.Close()

	assert.False(t, l.IsOnServicingThread())

	var onThread bool
	l.Post(func() { onThread = l.IsOnServicingThread() })
	l.Synchronize()
	assert.True(t, onThread)
}

func TestLoop_DropsWhenBufferFull(t *testing.T) {
	l := NewLoop(1)
	defer l.Close()

	block := make(chan struct{})
	release := make(chan struct{})
	l.Post(func() { close(block); <-release })
	<-block

	// The worker is blocked inside the first job; the buffer (capacity 1)
	// absorbs exactly one more post, and every post after that is dropped.
	for i := 0; i < 4; i++ {
		l.Post(func() {})
	}
	close(release)
	l.Synchronize()

	require.Equal(t, uint64(3), l.Dropped())
}

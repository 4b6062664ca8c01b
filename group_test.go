package listeners

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrosive-labs/listeners/callqueue"
)

func TestGroup_AsOfAddVisibility(t *testing.T) {
	q := callqueue.NewManual()
	defer q.Close()
	g := newGroup(q, nil)

	early := "early"
	require.NoError(t, g.add(early, 0))

	var seen []string
	pool := newCallPool(0)
	c, err := pool.alloc(func(s any) { seen = append(seen, s.(string)) }, time.Now())
	require.NoError(t, err)

	// A broadcast stamped at tick 1 is visible to "early" (tickAtAdd 0 < 1).
	require.NoError(t, g.doCall(c, 1, false))
	c.release()
	q.Pump()
	assert.Equal(t, []string{"early"}, seen)

	// A subscriber added at tick 1 does not see a broadcast also stamped 1.
	late := "late"
	require.NoError(t, g.add(late, 1))

	seen = nil
	c2, err := pool.alloc(func(s any) { seen = append(seen, s.(string)) }, time.Now())
	require.NoError(t, err)
	require.NoError(t, g.doCall(c2, 1, false))
	c2.release()
	q.Pump()
	assert.Equal(t, []string{"early"}, seen, "late joiner must not see the tick it joined at")
}

func TestGroup_DoubleAddPanics(t *testing.T) {
	q := callqueue.NewManual()
	defer q.Close()
	g := newGroup(q, nil)

	sub := "x"
	require.NoError(t, g.add(sub, 0))
	assert.Panics(t, func() { _ = g.add(sub, 1) })
}

func TestGroup_SelfRemoveDuringDelivery(t *testing.T) {
	q := callqueue.NewManual()
	defer q.Close()
	g := newGroup(q, nil)

	pool := newCallPool(0)

	calls := 0
	var self string
	fn := func(s any) {
		calls++
		g.remove(self)
	}
	self = "self"
	require.NoError(t, g.add(self, 0))

	c, err := pool.alloc(fn, time.Now())
	require.NoError(t, err)
	require.NoError(t, g.doCall(c, 1, false))
	c.release()
	q.Pump()
	assert.Equal(t, 1, calls)
	assert.False(t, g.contains(self))

	// A subsequent broadcast must not invoke it again.
	c2, err := pool.alloc(fn, time.Now())
	require.NoError(t, err)
	require.NoError(t, g.doCall(c2, 2, false))
	c2.release()
	q.Pump()
	assert.Equal(t, 1, calls, "removed subscriber must not be invoked again")
}

func TestGroup_ClosedQueueDropsCall(t *testing.T) {
	q := callqueue.NewManual()
	g := newGroup(q, nil)
	require.NoError(t, g.add("x", 0))
	q.Close()

	pool := newCallPool(0)
	c, err := pool.alloc(func(any) {}, time.Now())
	require.NoError(t, err)
	defer c.release()

	err = g.doCall(c, 1, false)
	require.ErrorIs(t, err, ErrCallQueueClosed)
}

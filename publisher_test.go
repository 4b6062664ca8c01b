package listeners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrosive-labs/listeners/callqueue"
)

func TestPublisher_AddRemoveCall(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()

	q := callqueue.NewManual()
	defer q.Close()

	var got []string
	sub := "alice"
	require.NoError(t, pub.Add(sub, q))

	require.NoError(t, pub.Queue(func(s any) { got = append(got, s.(string)) }))
	q.Pump()
	assert.Equal(t, []string{"alice"}, got)

	require.NoError(t, pub.Remove(sub))
	got = nil
	require.NoError(t, pub.Queue(func(s any) { got = append(got, s.(string)) }))
	q.Pump()
	assert.Empty(t, got)
}

func TestPublisher_AddDuplicatePanics(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	q := callqueue.NewManual()
	defer q.Close()

	require.NoError(t, pub.Add("x", q))
	assert.Panics(t, func() { _ = pub.Add("x", q) })
}

func TestPublisher_RemoveUnknownPanics(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	assert.Panics(t, func() { _ = pub.Remove("ghost") })
}

func TestPublisher_Queue1TargetsOneSubscriber(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	q := callqueue.NewManual()
	defer q.Close()

	require.NoError(t, pub.Add("a", q))
	require.NoError(t, pub.Add("b", q))

	var got []string
	require.NoError(t, pub.Queue1("a", func(s any) { got = append(got, s.(string)) }))
	q.Pump()
	assert.Equal(t, []string{"a"}, got)
}

func TestPublisher_Call1UnknownSubscriberIsNoOp(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	require.NoError(t, pub.Call1("ghost", func(any) {}))
}

func TestPublisher_LateJoinerMissesPastBroadcasts(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	q := callqueue.NewManual()
	defer q.Close()

	require.NoError(t, pub.Add("early", q))
	var got []string
	require.NoError(t, pub.Queue(func(s any) { got = append(got, s.(string)) }))
	q.Pump()
	require.Equal(t, []string{"early"}, got)

	require.NoError(t, pub.Add("late", q))
	got = nil
	require.NoError(t, pub.Queue(func(s any) { got = append(got, s.(string)) }))
	q.Pump()
	assert.ElementsMatch(t, []string{"early", "late"}, got, "both see a broadcast after late joined")
}

func TestPublisher_UpdateCoalescesBurstToLatest(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	q := callqueue.NewManual()
	defer q.Close()

	require.NoError(t, pub.Add("a", q))

	kind := Kind{0: 9}
	var got []int
	for i := 0; i < 5; i++ {
		n := i
		require.NoError(t, pub.Update(kind, func(any) { got = append(got, n) }))
	}
	q.Pump()
	assert.Equal(t, []int{4}, got)
}

func TestPublisher_InlineDrainOnServicingThread(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	q := callqueue.NewManual()
	defer q.Close()
	require.NoError(t, pub.Add("a", q))

	var got []string
	q.Post(func() {
		// Inside Pump, this goroutine IS the servicing thread: Call must
		// run inline rather than requiring a second Pump.
		require.NoError(t, pub.Call(func(s any) { got = append(got, s.(string)) }))
	})
	q.Pump()
	assert.Equal(t, []string{"a"}, got)
}

func TestPublisher_ReentrantAddPanics(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()
	q := callqueue.NewManual()
	defer q.Close()
	require.NoError(t, pub.Add("a", q))

	require.NoError(t, pub.Queue(func(s any) {
		assert.Panics(t, func() {
			_ = pub.Add("b", q)
		})
	}))
	q.Pump()
}

func TestPublisher_CallPoolExhaustionFailsAllocation(t *testing.T) {
	pub, err := NewPublisherBuilder().WithCallPoolCapacity(1).Build()
	require.NoError(t, err)
	defer pub.Close()

	q := callqueue.NewLoop(8)
	defer q.Close()
	require.NoError(t, pub.Add("a", q))

	hold := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = pub.Call(func(any) {
			close(hold)
			<-release
		})
	}()
	<-hold

	_, err = pub.calls.alloc(func(any) {}, pub.clock.Now())
	require.Error(t, err)
	close(release)
	q.Synchronize()
}

package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chime/internal/clock"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecorder_Record_ReadBack(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	c, err := clock.NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 2).
		AddPartition("min", 3).
		AddPeriodicPulse("p", 2).
		Build()
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, r.Record(ctx, c.Tick()))
	}

	outcomes, err := r.ReadOutcomes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	// Tick 2: sec wrapped, min carried, pulse "p" fired.
	second := outcomes[1]
	assert.Equal(t, uint64(2), second.Snapshot.Tick)
	assert.Equal(t, uint64(0), second.Snapshot.Epoch)
	assert.False(t, second.Overflowed)
	require.Len(t, second.Snapshot.Partitions, 2)
	assert.Equal(t, "sec", second.Snapshot.Partitions[0].Name)
	assert.Equal(t, uint64(0), second.Snapshot.Partitions[0].Value)
	assert.Equal(t, uint64(2), second.Snapshot.Partitions[0].Modulus)
	assert.Equal(t, "min", second.Snapshot.Partitions[1].Name)
	assert.Equal(t, uint64(1), second.Snapshot.Partitions[1].Value)
	require.Len(t, second.Pulses, 1)
	assert.Equal(t, "p", second.Pulses[0].Name)
	assert.Equal(t, uint64(2), second.Pulses[0].Tick)

	// Tick 3: no pulse.
	assert.Empty(t, outcomes[2].Pulses)
}

func TestRecorder_ReadOutcomes_Limit(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	c := clock.Default()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(ctx, c.Tick()))
	}

	outcomes, err := r.ReadOutcomes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, uint64(1), outcomes[0].Snapshot.Tick)
	assert.Equal(t, uint64(2), outcomes[1].Snapshot.Tick)
}

func TestRecorder_ReadOutcomes_EmptyLog(t *testing.T) {
	r := openTestRecorder(t)

	outcomes, err := r.ReadOutcomes(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestRecorder_Count(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	c := clock.Default()
	require.NoError(t, r.Record(ctx, c.Tick()))
	require.NoError(t, r.Record(ctx, c.Tick()))

	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorder_Record_PreservesOverflowRecord(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	outcome := clock.TickOutcome{
		Snapshot:   clock.Snapshot{Tick: 0, Epoch: 1},
		Overflowed: true,
		Pulses: []clock.PulseFired{
			{Name: clock.OverflowPulseName, Tick: 0, Epoch: 1},
		},
	}
	require.NoError(t, r.Record(ctx, outcome))

	outcomes, err := r.ReadOutcomes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Overflowed)
	require.Len(t, outcomes[0].Pulses, 1)
	assert.Equal(t, clock.OverflowPulseName, outcomes[0].Pulses[0].Name)
	assert.Equal(t, uint64(1), outcomes[0].Pulses[0].Epoch)
}

func TestRecorder_Drain_ConsumesSubscriptionUntilClose(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	c := clock.Default()
	sub := c.SubscribeUnbounded()

	done := make(chan struct{})
	go func() {
		r.Drain(ctx, sub)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		c.Tick()
	}

	// The drain loop records asynchronously; wait for it to catch up.
	require.Eventually(t, func() bool {
		n, err := r.Count(ctx)
		return err == nil && n == 3
	}, 2*time.Second, 10*time.Millisecond)

	sub.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drain did not return after subscription close")
	}
}

func TestRecorder_Open_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.db")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Record(context.Background(), clock.TickOutcome{}))

	n, err := r.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

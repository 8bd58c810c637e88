package clock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Tick_CascadesLeastSignificantFirst(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 2).
		AddPartition("min", 3).
		Build()
	require.NoError(t, err)

	tick1 := c.Tick()
	assert.Equal(t, uint64(1), tick1.Snapshot.Get("sec"))
	assert.Equal(t, uint64(0), tick1.Snapshot.Get("min"))

	tick2 := c.Tick()
	assert.Equal(t, uint64(0), tick2.Snapshot.Get("sec"))
	assert.Equal(t, uint64(1), tick2.Snapshot.Get("min"), "carry propagates exactly once")
}

func TestClock_Tick_CascadesMostSignificantFirst(t *testing.T) {
	// MSF walks index-descending: the last partition is least significant.
	c, err := NewBuilder().
		MostSignificantFirst().
		AddPartition("min", 3).
		AddPartition("sec", 2).
		Build()
	require.NoError(t, err)

	tick1 := c.Tick()
	assert.Equal(t, uint64(1), tick1.Snapshot.Get("sec"))
	assert.Equal(t, uint64(0), tick1.Snapshot.Get("min"))

	tick2 := c.Tick()
	assert.Equal(t, uint64(0), tick2.Snapshot.Get("sec"))
	assert.Equal(t, uint64(1), tick2.Snapshot.Get("min"))
}

func TestClock_Tick_MixedRadixEncoding(t *testing.T) {
	// After N ticks the decoded mixed-radix value equals N mod (m1*m2*...*mk).
	moduli := []uint64{2, 3, 5}
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("a", moduli[0]).
		AddPartition("b", moduli[1]).
		AddPartition("c", moduli[2]).
		Build()
	require.NoError(t, err)

	product := moduli[0] * moduli[1] * moduli[2]
	for n := uint64(1); n <= 2*product+3; n++ {
		snap := c.Tick().Snapshot

		decoded := uint64(0)
		weight := uint64(1)
		for i, part := range snap.Partitions {
			decoded += part.Value * weight
			weight *= moduli[i]
		}
		require.Equal(t, n%product, decoded, "decoded value after %d ticks", n)
	}
}

func TestClock_Tick_FinalCarryIsDiscarded(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("bit", 2).
		Build()
	require.NoError(t, err)

	c.Tick()
	outcome := c.Tick() // bit wraps 1 -> 0, carry has nowhere to go

	assert.Equal(t, uint64(0), outcome.Snapshot.Get("bit"))
	assert.Equal(t, uint64(2), outcome.Snapshot.Tick)
	assert.False(t, outcome.Overflowed, "partition carry is not tick overflow")
}

func TestClock_Tick_PeriodicPulse(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 10).
		AddPeriodicPulse("p", 3).
		Build()
	require.NoError(t, err)

	for tick := uint64(1); tick <= 9; tick++ {
		outcome := c.Tick()
		if tick%3 == 0 {
			require.Len(t, outcome.Pulses, 1, "tick %d", tick)
			assert.Equal(t, "p", outcome.Pulses[0].Name)
			assert.Equal(t, tick, outcome.Pulses[0].Tick)
			assert.Equal(t, uint64(0), outcome.Pulses[0].Epoch)
		} else {
			require.Empty(t, outcome.Pulses, "tick %d", tick)
		}
	}
}

func TestClock_Tick_PulsesFireInDeclarationOrder(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 10).
		AddPeriodicPulse("second", 2).
		AddPeriodicPulse("first", 1).
		AddConditionalPulse("third", TickRange(0, 100)).
		Build()
	require.NoError(t, err)

	c.Tick()
	outcome := c.Tick()

	require.Len(t, outcome.Pulses, 3)
	assert.Equal(t, "second", outcome.Pulses[0].Name)
	assert.Equal(t, "first", outcome.Pulses[1].Name)
	assert.Equal(t, "third", outcome.Pulses[2].Name)
}

func TestClock_Tick_ConditionalPulseSeesPostCascadeState(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 3).
		AddConditionalPulse("wrap", PartitionEquals("sec", 0)).
		Build()
	require.NoError(t, err)

	assert.Empty(t, c.Tick().Pulses, "sec=1")
	assert.Empty(t, c.Tick().Pulses, "sec=2")

	outcome := c.Tick() // sec wraps to 0
	require.Len(t, outcome.Pulses, 1)
	assert.Equal(t, "wrap", outcome.Pulses[0].Name)
}

func TestClock_Tick_OverflowWrapsAndBumpsEpoch(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 60).
		AddPeriodicPulse("p", 2).
		Build()
	require.NoError(t, err)

	// Position the counter one step before wraparound.
	c.tick = math.MaxUint64

	outcome := c.Tick()

	assert.True(t, outcome.Overflowed)
	assert.Equal(t, uint64(0), outcome.Snapshot.Tick)
	assert.Equal(t, uint64(1), outcome.Snapshot.Epoch)

	// "p" cannot fire at tick 0; only the synthetic record appears, last.
	require.Len(t, outcome.Pulses, 1)
	assert.Equal(t, OverflowPulseName, outcome.Pulses[0].Name)
	assert.Equal(t, uint64(0), outcome.Pulses[0].Tick)
	assert.Equal(t, uint64(1), outcome.Pulses[0].Epoch)
}

func TestClock_Tick_OverflowRecordAppendedAfterUserPulses(t *testing.T) {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddConditionalPulse("always", TickRange(0, math.MaxUint64)).
		Build()
	require.NoError(t, err)

	c.tick = math.MaxUint64
	outcome := c.Tick()

	require.Len(t, outcome.Pulses, 2)
	assert.Equal(t, "always", outcome.Pulses[0].Name)
	assert.Equal(t, OverflowPulseName, outcome.Pulses[1].Name)
}

func TestClock_Snapshot_DoesNotAdvance(t *testing.T) {
	c := Default()
	c.Tick()

	snap1 := c.Snapshot()
	snap2 := c.Snapshot()

	assert.Equal(t, snap1, snap2)
	assert.Equal(t, uint64(1), c.TickCount())
}

func TestClock_Snapshot_IsACopy(t *testing.T) {
	c := Default()
	snap := c.Snapshot()

	snap.Partitions[0].Value = 42
	c.Tick()

	assert.Equal(t, uint64(1), c.Snapshot().Get("sec"),
		"mutating an issued snapshot must not affect the clock")
}

func TestClock_Default(t *testing.T) {
	c := Default()

	outcome := c.Tick()

	assert.Equal(t, uint64(1), outcome.Snapshot.Tick)
	assert.Equal(t, uint64(0), outcome.Snapshot.Epoch)
	assert.Equal(t, uint64(1), outcome.Snapshot.Get("sec"))
	assert.Equal(t, uint64(0), outcome.Snapshot.Get("min"))
	assert.Equal(t, uint64(0), outcome.Snapshot.Get("hour"))
	assert.Empty(t, outcome.Pulses)
	assert.Equal(t, uint64(1), c.TickCount())
	assert.Equal(t, uint64(0), c.Epoch())
}

func TestClock_Default_MinuteRollover(t *testing.T) {
	c := Default()

	var last TickOutcome
	for i := 0; i < 60; i++ {
		last = c.Tick()
	}

	assert.Equal(t, uint64(0), last.Snapshot.Get("sec"))
	assert.Equal(t, uint64(1), last.Snapshot.Get("min"))
	assert.Equal(t, uint64(0), last.Snapshot.Get("hour"))
}

func TestSnapshot_Partition_MissingReturnsNil(t *testing.T) {
	snap := Default().Snapshot()

	assert.Nil(t, snap.Partition("ghost"))
	assert.Equal(t, uint64(0), snap.Get("ghost"), "Get defaults to 0 on absence")
}

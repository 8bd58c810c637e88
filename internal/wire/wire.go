// Package wire encodes clock snapshots and pulse firings into flat
// fixed-layout 32-bit word buffers for zero-copy transfer to embedding
// hosts.
//
// This is a boundary collaborator: the clock core exposes only typed
// operations, and nothing here feeds back into clock semantics.
//
// Snapshot buffer layout (little-endian word pairs for 64-bit fields):
//
//	word 0-1: tick (lo, hi)
//	word 2-3: epoch (lo, hi)
//	word 4:   overflow flag (0 or 1)
//	word 5:   partition count
//	word 6+:  one (lo, hi) pair per partition value, in sequence order
//
// The pulse bitset is a parallel buffer with one bit per configured pulse,
// indexed by declaration order, plus a trailing bit for the synthetic
// overflow record.
package wire

import (
	"fmt"

	"github.com/roach88/chime/internal/clock"
)

const (
	headerWords        = 6
	tickLoWord         = 0
	epochLoWord        = 2
	overflowedWord     = 4
	partitionCountWord = 5
)

// SnapshotWords returns the buffer length in 32-bit words required to
// encode a snapshot with the given partition count.
func SnapshotWords(partitionCount int) int {
	return headerWords + 2*partitionCount
}

// BitsetWords returns the buffer length in 32-bit words required for the
// pulse bitset of a clock with pulseCount configured pulses. One extra bit
// holds the synthetic overflow record.
func BitsetWords(pulseCount int) int {
	return (pulseCount + 1 + 31) / 32
}

// EncodeSnapshot writes a snapshot and overflow flag into out.
// Fails if out is shorter than SnapshotWords(len(snap.Partitions)).
func EncodeSnapshot(out []uint32, snap clock.Snapshot, overflowed bool) error {
	required := SnapshotWords(len(snap.Partitions))
	if len(out) < required {
		return fmt.Errorf("snapshot buffer requires %d words, have %d", required, len(out))
	}

	putWord64(out, tickLoWord, snap.Tick)
	putWord64(out, epochLoWord, snap.Epoch)
	out[overflowedWord] = 0
	if overflowed {
		out[overflowedWord] = 1
	}
	out[partitionCountWord] = uint32(len(snap.Partitions))

	index := headerWords
	for _, part := range snap.Partitions {
		putWord64(out, index, part.Value)
		index += 2
	}
	return nil
}

// DecodeSnapshot reads a snapshot buffer previously written by
// EncodeSnapshot. Partition names are not part of the wire format; values
// come back in sequence order.
func DecodeSnapshot(in []uint32) (tick, epoch uint64, overflowed bool, values []uint64, err error) {
	if len(in) < headerWords {
		return 0, 0, false, nil, fmt.Errorf("snapshot buffer requires at least %d words, have %d", headerWords, len(in))
	}

	count := int(in[partitionCountWord])
	required := SnapshotWords(count)
	if len(in) < required {
		return 0, 0, false, nil, fmt.Errorf("snapshot buffer declares %d partitions but holds %d words", count, len(in))
	}

	tick = word64(in, tickLoWord)
	epoch = word64(in, epochLoWord)
	overflowed = in[overflowedWord] != 0

	values = make([]uint64, count)
	index := headerWords
	for i := range values {
		values[i] = word64(in, index)
		index += 2
	}
	return tick, epoch, overflowed, values, nil
}

// EncodePulseBitset clears out and sets one bit per fired pulse, indexed by
// the pulse's position in pulseNames (the clock's declaration order). The
// synthetic overflow record maps to the bit at index len(pulseNames).
func EncodePulseBitset(out []uint32, pulseNames []string, outcome clock.TickOutcome) error {
	required := BitsetWords(len(pulseNames))
	if len(out) < required {
		return fmt.Errorf("pulse bitset requires %d words, have %d", required, len(out))
	}

	for i := range out {
		out[i] = 0
	}

	for _, pulse := range outcome.Pulses {
		if pulse.Name == clock.OverflowPulseName {
			continue
		}
		for idx, name := range pulseNames {
			if name == pulse.Name {
				setBit(out, idx)
			}
		}
	}

	if outcome.Overflowed {
		setBit(out, len(pulseNames))
	}
	return nil
}

// Bit reports whether the bit at index is set.
func Bit(in []uint32, index int) bool {
	word := index / 32
	if word >= len(in) {
		return false
	}
	return in[word]&(1<<uint(index%32)) != 0
}

func setBit(out []uint32, index int) {
	out[index/32] |= 1 << uint(index%32)
}

func putWord64(out []uint32, index int, value uint64) {
	out[index] = uint32(value)
	out[index+1] = uint32(value >> 32)
}

func word64(in []uint32, index int) uint64 {
	return uint64(in[index]) | uint64(in[index+1])<<32
}

package clock

// Snapshot is an immutable point-in-time copy of tick, epoch, and all
// partition states. Produced fresh on every tick; the clock retains no
// reference to issued snapshots, so consumers own them outright.
type Snapshot struct {
	Tick       uint64
	Epoch      uint64
	Partitions []PartitionState
}

// Partition returns the named partition state, or nil if absent.
// Linear scan over the partition sequence.
func (s Snapshot) Partition(name string) *PartitionState {
	for i := range s.Partitions {
		if s.Partitions[i].Name == name {
			return &s.Partitions[i]
		}
	}
	return nil
}

// Get returns the named partition's value, or 0 if the partition is absent.
// The zero default is a convenience, not a misconfiguration signal; callers
// that need to distinguish absence should use Partition.
func (s Snapshot) Get(name string) uint64 {
	if part := s.Partition(name); part != nil {
		return part.Value
	}
	return 0
}

// TickOutcome bundles everything produced by one tick: the post-cascade
// snapshot, the pulses that fired in declaration order (the synthetic
// overflow record last, if any), and whether the tick counter wrapped.
type TickOutcome struct {
	Snapshot   Snapshot
	Pulses     []PulseFired
	Overflowed bool
}

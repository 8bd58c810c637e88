package clock

// PartitionOrder determines the cascade direction over the partition sequence.
type PartitionOrder int

const (
	// LeastSignificantFirst cascades index-ascending (sec, min, hour).
	LeastSignificantFirst PartitionOrder = iota + 1
	// MostSignificantFirst cascades index-descending (hour, min, sec).
	MostSignificantFirst
)

// String returns the order name used in configuration and logs.
func (o PartitionOrder) String() string {
	switch o {
	case LeastSignificantFirst:
		return "least_significant_first"
	case MostSignificantFirst:
		return "most_significant_first"
	default:
		return "unknown"
	}
}

// PartitionSpec is the immutable construction input for one partition
// (a single mixed-radix digit).
type PartitionSpec struct {
	Name    string
	Modulus uint64
}

// PartitionState is the runtime counter for one partition.
// Value is always in [0, Modulus) and is mutated exclusively by the
// cascade step of Tick().
type PartitionState struct {
	Name    string
	Modulus uint64
	Value   uint64
}

// increment advances the partition by one step.
// Returns true if the value wrapped to zero (carry into the
// next-significant partition).
func (p *PartitionState) increment() bool {
	p.Value++
	if p.Value >= p.Modulus {
		p.Value = 0
		return true
	}
	return false
}

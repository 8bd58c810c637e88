package clock

// OverflowPulseName is the reserved name of the synthetic pulse emitted when
// the tick counter wraps around. User pulses may not use this name; Build()
// rejects it.
const OverflowPulseName = "__overflow__"

// PulseSpec names a pulse and the condition under which it fires.
// Immutable after construction.
type PulseSpec struct {
	Name      string
	Condition Condition
}

// PulseFired records one pulse whose condition held on a given tick.
type PulseFired struct {
	Name  string
	Tick  uint64
	Epoch uint64
}

package clock

// Builder accumulates partition and pulse specs and produces a validated
// Clock. Specs are validated exhaustively and fail-fast in Build(): the
// first violation aborts construction and no partially-valid clock is ever
// returned.
//
// A builder that failed validation is left in an unspecified state and must
// not be reused.
type Builder struct {
	partitions []PartitionSpec
	pulses     []PulseSpec
	order      PartitionOrder
	orderSet   bool
}

// NewBuilder creates an empty builder with no partitions, pulses, or order.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetOrder sets the cascade direction explicitly.
func (b *Builder) SetOrder(order PartitionOrder) *Builder {
	b.order = order
	b.orderSet = true
	return b
}

// LeastSignificantFirst configures index-ascending cascade order.
func (b *Builder) LeastSignificantFirst() *Builder {
	return b.SetOrder(LeastSignificantFirst)
}

// MostSignificantFirst configures index-descending cascade order.
func (b *Builder) MostSignificantFirst() *Builder {
	return b.SetOrder(MostSignificantFirst)
}

// AddPartition appends a partition spec. Sequence position determines
// significance together with the configured order.
func (b *Builder) AddPartition(name string, modulus uint64) *Builder {
	b.partitions = append(b.partitions, PartitionSpec{Name: name, Modulus: modulus})
	return b
}

// AddPeriodicPulse appends a pulse firing every period ticks.
func (b *Builder) AddPeriodicPulse(name string, period uint64) *Builder {
	return b.AddConditionalPulse(name, Every(period))
}

// AddConditionalPulse appends a pulse with an arbitrary condition tree.
func (b *Builder) AddConditionalPulse(name string, condition Condition) *Builder {
	b.pulses = append(b.pulses, PulseSpec{Name: name, Condition: condition})
	return b
}

// Build validates the accumulated specs and constructs the clock.
//
// Validation order:
//  1. Order must be explicit whenever at least one partition exists
//     (there is cascading to orient); with zero partitions it defaults to
//     LeastSignificantFirst.
//  2. Every partition modulus must be > 0.
//  3. Every pulse name must not be the reserved overflow name, and its
//     condition tree must validate recursively against the configured
//     partition names.
//
// On success all partition values start at 0, with tick and epoch 0.
func (b *Builder) Build(opts ...Option) (*Clock, error) {
	order := b.order
	if !b.orderSet {
		if len(b.partitions) > 0 {
			return nil, &ConfigError{
				Code:    ErrCodeMissingOrder,
				Message: "partition order must be set explicitly when partitions are configured",
			}
		}
		order = LeastSignificantFirst
	}

	known := make(map[string]struct{}, len(b.partitions))
	states := make([]PartitionState, 0, len(b.partitions))
	for _, spec := range b.partitions {
		if spec.Modulus == 0 {
			return nil, &ConfigError{
				Code:      ErrCodeZeroModulus,
				Message:   "partition modulus must be > 0",
				Partition: spec.Name,
			}
		}
		known[spec.Name] = struct{}{}
		states = append(states, PartitionState{Name: spec.Name, Modulus: spec.Modulus})
	}

	for _, pulse := range b.pulses {
		if pulse.Name == OverflowPulseName {
			return nil, &ConfigError{
				Code:    ErrCodeReservedPulseName,
				Message: "pulse name is reserved for the synthetic overflow record",
				Pulse:   pulse.Name,
			}
		}
		if err := pulse.Condition.validate(known, pulse.Name); err != nil {
			return nil, err
		}
	}

	// Copy pulses so later builder mutation cannot break declaration order.
	pulses := make([]PulseSpec, len(b.pulses))
	copy(pulses, b.pulses)

	c := &Clock{
		partitions: states,
		order:      order,
		pulses:     pulses,
		idGen:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

package clock

// Clock is the tick-driven orchestrator: it advances the tick counter,
// cascades partitions, evaluates pulses, and broadcasts each outcome.
//
// CRITICAL: All mutation happens in Tick(), which performs no internal
// locking. The clock is a single-owner state machine; concurrent Tick()
// calls on one instance require external serialization.
//
// INVARIANTS:
//   - partition slice order NEVER changes after construction
//   - pulse slice order NEVER changes after construction
//   - every partition value stays in [0, modulus)
type Clock struct {
	tick       uint64
	epoch      uint64
	partitions []PartitionState
	order      PartitionOrder
	pulses     []PulseSpec
	subs       []*Subscription
	idGen      IDGenerator
}

// Option configures a clock at build time.
type Option func(*Clock)

// WithIDGenerator overrides the subscription ID generator.
// Tests use this with FixedGenerator for deterministic IDs.
func WithIDGenerator(gen IDGenerator) Option {
	return func(c *Clock) {
		c.idGen = gen
	}
}

// Default returns the standard wall-time-shaped clock: least-significant-first
// partitions sec(60), min(60), hour(24) and no pulses.
func Default() *Clock {
	c, err := NewBuilder().
		LeastSignificantFirst().
		AddPartition("sec", 60).
		AddPartition("min", 60).
		AddPartition("hour", 24).
		Build()
	if err != nil {
		// The default configuration is statically valid.
		panic("default clock configuration invalid: " + err.Error())
	}
	return c
}

// TickCount returns the current tick counter value.
func (c *Clock) TickCount() uint64 {
	return c.tick
}

// Epoch returns the epoch counter (increments once per tick wraparound).
func (c *Clock) Epoch() uint64 {
	return c.epoch
}

// Order returns the configured cascade direction.
func (c *Clock) Order() PartitionOrder {
	return c.order
}

// PulseNames returns the configured pulse names in declaration order.
// The returned slice is a copy.
func (c *Clock) PulseNames() []string {
	names := make([]string, len(c.pulses))
	for i, p := range c.pulses {
		names[i] = p.Name
	}
	return names
}

// Snapshot returns the current state without advancing time.
func (c *Clock) Snapshot() Snapshot {
	parts := make([]PartitionState, len(c.partitions))
	copy(parts, c.partitions)
	return Snapshot{
		Tick:       c.tick,
		Epoch:      c.epoch,
		Partitions: parts,
	}
}

// SubscribeUnbounded registers a delivery sink whose backlog grows without
// limit. No outcome is ever dropped for this subscription.
func (c *Clock) SubscribeUnbounded() *Subscription {
	sub := newSubscription(c.idGen.Generate(), Unbounded)
	c.subs = append(c.subs, sub)
	return sub
}

// SubscribeBounded registers a delivery sink with a fixed backlog capacity.
// When full, outcomes are silently dropped for this subscription only.
func (c *Clock) SubscribeBounded(capacity int) *Subscription {
	sub := newSubscription(c.idGen.Generate(), capacity)
	c.subs = append(c.subs, sub)
	return sub
}

// SubscriberCount returns the number of currently registered subscriptions.
// Closed subscriptions count until the next broadcast prunes them.
func (c *Clock) SubscriberCount() int {
	return len(c.subs)
}

// Tick advances logical time by one step and returns the outcome.
//
// Steps, atomic from the caller's point of view:
//  1. Increment the tick counter; on wraparound, increment the epoch
//     counter (itself wrapping).
//  2. Cascade partitions in the configured direction, stopping at the
//     first increment that does not carry. A carry out of the last
//     partition in the walk is discarded.
//  3. Snapshot the post-cascade state.
//  4. Evaluate pulses in declaration order against (tick, snapshot).
//  5. On wraparound, append the synthetic overflow pulse after user pulses.
//  6. Broadcast the outcome to subscribers, then return it.
//
// Tick never fails and never blocks on a subscriber.
func (c *Clock) Tick() TickOutcome {
	c.tick++
	overflowed := c.tick == 0
	if overflowed {
		c.epoch++
	}

	c.cascade()

	snap := c.Snapshot()

	var fired []PulseFired
	for _, pulse := range c.pulses {
		if pulse.Condition.met(c.tick, snap) {
			fired = append(fired, PulseFired{
				Name:  pulse.Name,
				Tick:  c.tick,
				Epoch: c.epoch,
			})
		}
	}

	if overflowed {
		fired = append(fired, PulseFired{
			Name:  OverflowPulseName,
			Tick:  c.tick,
			Epoch: c.epoch,
		})
	}

	outcome := TickOutcome{
		Snapshot:   snap,
		Pulses:     fired,
		Overflowed: overflowed,
	}

	c.broadcast(outcome)

	return outcome
}

// cascade walks the partition sequence in the configured direction,
// incrementing while the previous step carried.
func (c *Clock) cascade() {
	carry := true
	switch c.order {
	case MostSignificantFirst:
		for i := len(c.partitions) - 1; i >= 0 && carry; i-- {
			carry = c.partitions[i].increment()
		}
	default: // LeastSignificantFirst
		for i := 0; i < len(c.partitions) && carry; i++ {
			carry = c.partitions[i].increment()
		}
	}
	// A final carry has nowhere to go and is discarded.
}

// broadcast delivers an outcome to every live subscription in registration
// order, pruning subscriptions whose consumer side has closed. This lazy
// removal is the only subscription garbage collection.
func (c *Clock) broadcast(outcome TickOutcome) {
	live := c.subs[:0]
	for _, sub := range c.subs {
		if sub.deliver(outcome) {
			live = append(live, sub)
		}
	}
	for i := len(live); i < len(c.subs); i++ {
		c.subs[i] = nil
	}
	c.subs = live
}

// Package clock implements a partitioned logical clock with predicate pulses.
//
// The clock is tick-driven: time advances only on explicit Tick() calls and
// has no relation to wall-clock time. State is a mixed-radix counter made of
// named partitions (e.g. sec/min/hour) that cascade like an odometer, plus a
// monotonic tick counter and an epoch counter that increments when the tick
// counter wraps.
//
// Pulses are named events whose firing condition is re-evaluated on every
// tick. Conditions form a recursive predicate tree (Every, PartitionEquals,
// PartitionModulo, TickRange, Not, And, Or) evaluated against the tick number
// and a snapshot of the cascaded partition state.
//
// ARCHITECTURE:
//
// Single-Owner State Machine:
// Tick() mutates clock state with no internal locking. Callers that share a
// clock across goroutines must serialize access externally; within Tick()
// everything is synchronous and bounded (linear in partition count plus
// condition tree size).
//
// CRITICAL PATTERNS:
//
// Deterministic Evaluation:
// Partitions cascade in the configured significance order and pulses are
// evaluated in declaration order. The pulse slice order NEVER changes after
// construction.
//
// Build-Time Validation:
// All configuration errors surface from Builder.Build(). Tick() has no error
// path: defensive lookup failures (conditions naming a partition missing from
// the snapshot) evaluate false instead of failing.
//
// Fire-and-Forget Broadcast:
// Each outcome is delivered to subscribers without blocking the producer.
// Bounded subscriptions drop outcomes when full; closed subscriptions are
// pruned lazily on the next broadcast.
package clock

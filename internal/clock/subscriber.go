package clock

import (
	"context"
	"sync"
)

// Unbounded is the capacity value for subscriptions whose backlog grows
// without limit. Unbounded subscriptions never drop outcomes; the accepted
// tradeoff is unbounded memory growth if the consumer lags.
const Unbounded = 0

// Subscription is the consumer side of one outcome delivery sink.
//
// The clock delivers every TickOutcome to each live subscription during
// Tick(). Delivery is fire-and-forget: a bounded subscription at capacity
// silently drops the outcome for that tick and remains registered; the
// producer never blocks.
//
// Consumers close the subscription when they lose interest. There is no
// unsubscribe call on the clock: a closed subscription is detected and
// removed at the next broadcast attempt.
//
// Thread-safety model:
//   - Next()/TryNext()/Len()/Close(): safe from any goroutine
//   - deliver(): called only by the owning clock's Tick()
type Subscription struct {
	id       string
	capacity int // Unbounded (0) or a fixed maximum backlog

	mu       sync.Mutex
	outcomes []TickOutcome
	closed   bool
	signal   chan struct{} // Signals outcome availability (buffered, size 1)
}

func newSubscription(id string, capacity int) *Subscription {
	return &Subscription{
		id:       id,
		capacity: capacity,
		outcomes: make([]TickOutcome, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// ID returns the subscription's identity, used for logs and diagnostics.
func (s *Subscription) ID() string {
	return s.id
}

// deliver appends an outcome to the backlog.
// Returns false if the subscription has been closed, signalling the clock
// to prune it. A bounded subscription at capacity drops the outcome but
// still returns true: drop-on-full must not unregister the subscriber.
func (s *Subscription) deliver(outcome TickOutcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if s.capacity > 0 && len(s.outcomes) >= s.capacity {
		// At-most-once policy: the outcome for this tick is lost to this
		// subscriber only. No backpressure reaches the producer.
		return true
	}

	s.outcomes = append(s.outcomes, outcome)

	// Signal availability (non-blocking - buffer of 1 coalesces signals)
	select {
	case s.signal <- struct{}{}:
	default:
	}

	return true
}

// TryNext attempts to take the oldest pending outcome without blocking.
// Returns (TickOutcome{}, false) if the backlog is empty.
func (s *Subscription) TryNext() (TickOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.outcomes) == 0 {
		return TickOutcome{}, false
	}

	outcome := s.outcomes[0]

	// Nil out the slot so the backing array does not retain the outcome's
	// slices until reallocation.
	s.outcomes[0] = TickOutcome{}

	if len(s.outcomes) == 1 {
		s.outcomes = s.outcomes[:0]
	} else {
		s.outcomes = s.outcomes[1:]
	}

	return outcome, true
}

// Next blocks until an outcome is available, the subscription is closed and
// drained, or the context is cancelled. Returns false when no further
// outcomes will arrive.
func (s *Subscription) Next(ctx context.Context) (TickOutcome, bool) {
	for {
		if outcome, ok := s.TryNext(); ok {
			return outcome, true
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return TickOutcome{}, false
		}

		select {
		case <-ctx.Done():
			return TickOutcome{}, false
		case <-s.signal:
			// Loop back to TryNext. The signal channel closes when the
			// subscription closes, so this case fires immediately then.
		}
	}
}

// Len returns the number of pending outcomes.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// Close marks the consumer side as gone. The clock removes the subscription
// on its next broadcast attempt; already-buffered outcomes remain readable
// via TryNext.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.signal) // Wakes all waiters
}

package clock

// Condition is a predicate over (tick, snapshot) describing when a pulse
// fires. Conditions form a recursive tree; composite nodes (Not, And, Or)
// own their children. The set of variants is sealed: only this package
// implements the interface.
//
// Evaluation is pure and total - a condition never errors and never mutates
// the snapshot. References to partitions that are absent from the snapshot
// evaluate false; validated construction guarantees this cannot happen, so
// the fallback exists only as a silent degradation path.
type Condition interface {
	// met reports whether the condition holds at the given tick.
	met(tick uint64, snap Snapshot) bool

	// validate checks structural invariants against the configured
	// partition names. pulse is the owning pulse name, used in errors.
	validate(partitions map[string]struct{}, pulse string) error
}

type everyCondition struct {
	period uint64
}

type partitionEqualsCondition struct {
	name  string
	value uint64
}

type partitionModuloCondition struct {
	name      string
	modulus   uint64
	remainder uint64
}

type tickRangeCondition struct {
	start uint64
	end   uint64
}

type notCondition struct {
	child Condition
}

type andCondition struct {
	children []Condition
}

type orCondition struct {
	children []Condition
}

// Every fires when the tick counter is a positive multiple of period.
// Tick 0 (before any advancement) never fires.
func Every(period uint64) Condition {
	return everyCondition{period: period}
}

// PartitionEquals fires when the named partition holds exactly value.
func PartitionEquals(name string, value uint64) Condition {
	return partitionEqualsCondition{name: name, value: value}
}

// PartitionModulo fires when the named partition's value modulo modulus
// equals remainder.
func PartitionModulo(name string, modulus, remainder uint64) Condition {
	return partitionModuloCondition{name: name, modulus: modulus, remainder: remainder}
}

// TickRange fires when start <= tick <= end (inclusive on both ends).
func TickRange(start, end uint64) Condition {
	return tickRangeCondition{start: start, end: end}
}

// Not negates a condition.
func Not(c Condition) Condition {
	return notCondition{child: c}
}

// And fires when every child fires. An empty conjunction evaluates false
// so that an accidentally-empty And cannot vacuously fire every tick.
func And(children ...Condition) Condition {
	return andCondition{children: children}
}

// Or fires when any child fires. An empty disjunction evaluates false,
// symmetric with And.
func Or(children ...Condition) Condition {
	return orCondition{children: children}
}

func (c everyCondition) met(tick uint64, _ Snapshot) bool {
	return tick != 0 && tick%c.period == 0
}

func (c partitionEqualsCondition) met(_ uint64, snap Snapshot) bool {
	part := snap.Partition(c.name)
	return part != nil && part.Value == c.value
}

func (c partitionModuloCondition) met(_ uint64, snap Snapshot) bool {
	if c.modulus == 0 {
		return false
	}
	part := snap.Partition(c.name)
	return part != nil && part.Value%c.modulus == c.remainder
}

func (c tickRangeCondition) met(tick uint64, _ Snapshot) bool {
	return tick >= c.start && tick <= c.end
}

func (c notCondition) met(tick uint64, snap Snapshot) bool {
	return !c.child.met(tick, snap)
}

func (c andCondition) met(tick uint64, snap Snapshot) bool {
	if len(c.children) == 0 {
		return false
	}
	for _, child := range c.children {
		if !child.met(tick, snap) {
			return false
		}
	}
	return true
}

func (c orCondition) met(tick uint64, snap Snapshot) bool {
	for _, child := range c.children {
		if child.met(tick, snap) {
			return true
		}
	}
	return false
}

func (c everyCondition) validate(_ map[string]struct{}, pulse string) error {
	if c.period == 0 {
		return &ConfigError{
			Code:    ErrCodeZeroPeriod,
			Message: "pulse period must be > 0",
			Pulse:   pulse,
		}
	}
	return nil
}

func (c partitionEqualsCondition) validate(partitions map[string]struct{}, pulse string) error {
	if _, ok := partitions[c.name]; !ok {
		return newUnknownPartitionError(pulse, c.name)
	}
	return nil
}

func (c partitionModuloCondition) validate(partitions map[string]struct{}, pulse string) error {
	if c.modulus == 0 {
		return &ConfigError{
			Code:      ErrCodeZeroConditionModulus,
			Message:   "condition modulus must be > 0",
			Pulse:     pulse,
			Partition: c.name,
		}
	}
	if _, ok := partitions[c.name]; !ok {
		return newUnknownPartitionError(pulse, c.name)
	}
	return nil
}

func (c tickRangeCondition) validate(_ map[string]struct{}, pulse string) error {
	if c.start > c.end {
		return &ConfigError{
			Code:    ErrCodeInvalidTickRange,
			Message: "tick range start exceeds end",
			Pulse:   pulse,
			Start:   c.start,
			End:     c.end,
		}
	}
	return nil
}

func (c notCondition) validate(partitions map[string]struct{}, pulse string) error {
	return c.child.validate(partitions, pulse)
}

func (c andCondition) validate(partitions map[string]struct{}, pulse string) error {
	for _, child := range c.children {
		if err := child.validate(partitions, pulse); err != nil {
			return err
		}
	}
	return nil
}

func (c orCondition) validate(partitions map[string]struct{}, pulse string) error {
	for _, child := range c.children {
		if err := child.validate(partitions, pulse); err != nil {
			return err
		}
	}
	return nil
}

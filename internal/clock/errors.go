package clock

import (
	"errors"
	"fmt"
)

// ConfigError represents an error detected while building a clock.
//
// All errors are configuration errors raised only during Build(), never
// during Tick(): zero partition modulus, zero pulse period, missing explicit
// partition order, a condition referencing an unknown partition, zero
// modulus inside a modulo condition, an inverted tick range, and a user
// pulse claiming the reserved overflow name.
//
// ConfigError includes structured fields identifying the offending partition
// or pulse for diagnostics.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Partition identifies the offending partition, when applicable.
	Partition string

	// Pulse identifies the offending pulse, when applicable.
	Pulse string

	// Start and End carry the offending range bounds for tick-range errors.
	Start uint64
	End   uint64
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeZeroModulus indicates a partition with modulus 0.
	ErrCodeZeroModulus ConfigErrorCode = "ZERO_MODULUS"

	// ErrCodeZeroPeriod indicates a periodic pulse with period 0.
	ErrCodeZeroPeriod ConfigErrorCode = "ZERO_PERIOD"

	// ErrCodeMissingOrder indicates partitions were added without an
	// explicit partition order.
	ErrCodeMissingOrder ConfigErrorCode = "MISSING_ORDER"

	// ErrCodeUnknownPartition indicates a condition referencing a
	// partition that was never configured.
	ErrCodeUnknownPartition ConfigErrorCode = "UNKNOWN_PARTITION"

	// ErrCodeZeroConditionModulus indicates a modulo condition with
	// modulus 0.
	ErrCodeZeroConditionModulus ConfigErrorCode = "ZERO_CONDITION_MODULUS"

	// ErrCodeInvalidTickRange indicates a tick range with start > end.
	ErrCodeInvalidTickRange ConfigErrorCode = "INVALID_TICK_RANGE"

	// ErrCodeReservedPulseName indicates a user pulse named with the
	// reserved synthetic overflow name.
	ErrCodeReservedPulseName ConfigErrorCode = "RESERVED_PULSE_NAME"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch {
	case e.Pulse != "" && e.Partition != "":
		return fmt.Sprintf("%s: %s (pulse=%q, partition=%q)", e.Code, e.Message, e.Pulse, e.Partition)
	case e.Pulse != "":
		return fmt.Sprintf("%s: %s (pulse=%q)", e.Code, e.Message, e.Pulse)
	case e.Partition != "":
		return fmt.Sprintf("%s: %s (partition=%q)", e.Code, e.Message, e.Partition)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsConfigError reports whether err is a ConfigError with the given code.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newUnknownPartitionError(pulse, partition string) *ConfigError {
	return &ConfigError{
		Code:      ErrCodeUnknownPartition,
		Message:   "condition references unknown partition",
		Pulse:     pulse,
		Partition: partition,
	}
}

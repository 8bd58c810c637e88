package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/chime/internal/clock"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure (invalid definition)
	ExitCommandError = 2 // Command error (missing files, database not found)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Data   any    `json:"data,omitempty"`  // success payload
	Error  string `json:"error,omitempty"` // error message
}

// Success outputs a successful result in the configured format.
// In text mode, data is written with fmt's default formatting; commands
// needing richer text output write their own lines and pass a summary.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// outcomeJSON is the JSON projection of one tick outcome.
type outcomeJSON struct {
	Tick       uint64          `json:"tick"`
	Epoch      uint64          `json:"epoch"`
	Overflowed bool            `json:"overflowed,omitempty"`
	Partitions []partitionJSON `json:"partitions"`
	Pulses     []string        `json:"pulses,omitempty"`
}

type partitionJSON struct {
	Name    string `json:"name"`
	Modulus uint64 `json:"modulus"`
	Value   uint64 `json:"value"`
}

func toOutcomeJSON(outcome clock.TickOutcome) outcomeJSON {
	out := outcomeJSON{
		Tick:       outcome.Snapshot.Tick,
		Epoch:      outcome.Snapshot.Epoch,
		Overflowed: outcome.Overflowed,
		Partitions: make([]partitionJSON, 0, len(outcome.Snapshot.Partitions)),
	}
	for _, part := range outcome.Snapshot.Partitions {
		out.Partitions = append(out.Partitions, partitionJSON{
			Name:    part.Name,
			Modulus: part.Modulus,
			Value:   part.Value,
		})
	}
	for _, pulse := range outcome.Pulses {
		out.Pulses = append(out.Pulses, pulse.Name)
	}
	return out
}

// formatOutcome renders one outcome as a stable single text line:
//
//	tick=3 epoch=0 sec=0 min=1 pulses=[tock,top]
func formatOutcome(outcome clock.TickOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick=%d epoch=%d", outcome.Snapshot.Tick, outcome.Snapshot.Epoch)
	for _, part := range outcome.Snapshot.Partitions {
		fmt.Fprintf(&b, " %s=%d", part.Name, part.Value)
	}
	if len(outcome.Pulses) > 0 {
		names := make([]string, len(outcome.Pulses))
		for i, pulse := range outcome.Pulses {
			names[i] = pulse.Name
		}
		fmt.Fprintf(&b, " pulses=[%s]", strings.Join(names, ","))
	}
	if outcome.Overflowed {
		b.WriteString(" overflowed")
	}
	return b.String()
}

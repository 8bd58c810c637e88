package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chime/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// validateResult is the success payload for the validate command.
type validateResult struct {
	File       string   `json:"file"`
	Order      string   `json:"order"`
	Partitions int      `json:"partitions"`
	Pulses     []string `json:"pulses,omitempty"`
}

func (r validateResult) String() string {
	return fmt.Sprintf("✓ definition valid: %d partition(s), %d pulse(s), order=%s",
		r.Partitions, len(r.Pulses), r.Order)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <definition.yaml>",
		Short: "Validate a clock definition",
		Long: `Validate a clock definition file.

The definition is schema-checked, decoded, and passed through the full
builder validation gate. Nothing is executed.

Examples:
  chime validate ./clock.yaml
  chime validate ./clock.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	def, err := config.LoadDefinition(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load definition", err)
	}

	c, err := def.Build()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid definition", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(validateResult{
		File:       path,
		Order:      c.Order().String(),
		Partitions: len(c.Snapshot().Partitions),
		Pulses:     c.PulseNames(),
	})
}

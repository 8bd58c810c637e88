package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chime/internal/recorder"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// traceResult is the JSON payload for the trace command.
type traceResult struct {
	Recorded int           `json:"recorded"`
	Outcomes []outcomeJSON `json:"outcomes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read recorded outcomes from an outcome log",
		Long: `Read outcomes previously recorded by 'chime run --db' and print
them in the order the clock produced them.

Examples:
  chime trace --db ./outcomes.db
  chime trace --db ./outcomes.db --limit 10
  chime trace --db ./outcomes.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite outcome log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum outcomes to read (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rec, err := recorder.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open outcome log", err)
	}
	defer rec.Close()

	outcomes, err := rec.ReadOutcomes(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outcomes", err)
	}

	if opts.Format == "json" {
		result := traceResult{
			Recorded: len(outcomes),
			Outcomes: make([]outcomeJSON, 0, len(outcomes)),
		}
		for _, outcome := range outcomes {
			result.Outcomes = append(result.Outcomes, toOutcomeJSON(outcome))
		}
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}

	for _, outcome := range outcomes {
		fmt.Fprintln(cmd.OutOrStdout(), formatOutcome(outcome))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d outcome(s)\n", len(outcomes))
	return nil
}

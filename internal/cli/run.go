package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chime/internal/clock"
	"github.com/roach88/chime/internal/config"
	"github.com/roach88/chime/internal/recorder"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Ticks    uint64
	Database string

	// IDGenerator allows overriding the subscription ID generator (for
	// testing). If nil, the clock's UUIDv7 default is used.
	IDGenerator clock.IDGenerator
}

// runResult is the JSON payload for the run command.
type runResult struct {
	Ticks    uint64        `json:"ticks"`
	Tick     uint64        `json:"tick"`
	Epoch    uint64        `json:"epoch"`
	Outcomes []outcomeJSON `json:"outcomes"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <definition.yaml>",
		Short: "Advance a clock and print each outcome",
		Long: `Build a clock from a definition file and advance it a fixed number
of ticks, printing every outcome.

With --db, outcomes are also appended to a SQLite outcome log through an
unbounded subscription, for later inspection with 'chime trace'.

Examples:
  chime run ./clock.yaml --ticks 10
  chime run ./clock.yaml --ticks 86400 --db ./outcomes.db
  chime run ./clock.yaml --ticks 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClock(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Ticks, "ticks", 1, "number of ticks to advance")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite outcome log (optional)")

	return cmd
}

func runClock(opts *RunOptions, path string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	var buildOpts []clock.Option
	if opts.IDGenerator != nil {
		buildOpts = append(buildOpts, clock.WithIDGenerator(opts.IDGenerator))
	}

	c, err := config.Load(path, buildOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load clock", err)
	}
	slog.Debug("clock built", "definition", path, "order", c.Order().String())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Optional outcome log, fed by an unbounded subscription so no tick
	// is ever missing from the record.
	var drained chan struct{}
	if opts.Database != "" {
		rec, err := recorder.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open outcome log", err)
		}
		defer func() {
			if closeErr := rec.Close(); closeErr != nil {
				slog.Error("error closing outcome log", "error", closeErr)
			}
		}()

		sub := c.SubscribeUnbounded()
		slog.Info("recording outcomes", "db", opts.Database, "subscription", sub.ID())

		drained = make(chan struct{})
		go func() {
			rec.Drain(ctx, sub)
			close(drained)
		}()
		defer func() {
			sub.Close()
			<-drained
		}()
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	outcomes := make([]outcomeJSON, 0, opts.Ticks)

	for i := uint64(0); i < opts.Ticks; i++ {
		outcome := c.Tick()
		if opts.Format == "json" {
			outcomes = append(outcomes, toOutcomeJSON(outcome))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), formatOutcome(outcome))
		}
	}

	if opts.Format == "json" {
		return formatter.Success(runResult{
			Ticks:    opts.Ticks,
			Tick:     c.TickCount(),
			Epoch:    c.Epoch(),
			Outcomes: outcomes,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "advanced %d ticks (tick=%d, epoch=%d)\n",
		opts.Ticks, c.TickCount(), c.Epoch())
	return nil
}

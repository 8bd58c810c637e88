// Package recorder provides a SQLite-backed log of tick outcomes.
//
// The recorder is a subscriber-side collaborator: it consumes a clock
// subscription and appends each outcome to an on-disk log for later
// inspection (the trace command). The clock itself stays non-persistent;
// nothing here feeds state back into it.
//
// Ordering uses the recorder's own seq INTEGER, never wall-clock
// timestamps, so a replayed read reconstructs outcomes in exactly the
// order the clock produced them.
package recorder

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/chime/internal/clock"
)

//go:embed schema.sql
var schemaSQL string

// Recorder appends tick outcomes to a SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens an outcome log at the given path.
// Use ":memory:" for an ephemeral log in tests.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open outcome log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect outcome log: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY between the drain loop and readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record appends one outcome to the log in a single transaction: the tick
// row, its partition values, and its pulse firings are written atomically.
func (r *Recorder) Record(ctx context.Context, outcome clock.TickOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ticks (tick, epoch, overflowed) VALUES (?, ?, ?)`,
		int64(outcome.Snapshot.Tick), int64(outcome.Snapshot.Epoch), outcome.Overflowed,
	)
	if err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("tick seq: %w", err)
	}

	for pos, part := range outcome.Snapshot.Partitions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO partition_values (seq, position, name, modulus, value) VALUES (?, ?, ?, ?, ?)`,
			seq, pos, part.Name, int64(part.Modulus), int64(part.Value),
		); err != nil {
			return fmt.Errorf("insert partition %q: %w", part.Name, err)
		}
	}

	for pos, pulse := range outcome.Pulses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pulse_firings (seq, position, name) VALUES (?, ?, ?)`,
			seq, pos, pulse.Name,
		); err != nil {
			return fmt.Errorf("insert pulse %q: %w", pulse.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Drain consumes a subscription until it closes or the context is
// cancelled, recording every outcome. Failed writes are logged and
// draining continues; retrying would reorder the log.
func (r *Recorder) Drain(ctx context.Context, sub *clock.Subscription) {
	for {
		outcome, ok := sub.Next(ctx)
		if !ok {
			return
		}
		if err := r.Record(ctx, outcome); err != nil {
			slog.Error("outcome record failed",
				"error", err,
				"tick", outcome.Snapshot.Tick,
				"epoch", outcome.Snapshot.Epoch,
				"subscription", sub.ID(),
			)
		}
	}
}

// ReadOutcomes reconstructs recorded outcomes in seq order.
// limit <= 0 reads the whole log.
func (r *Recorder) ReadOutcomes(ctx context.Context, limit int) ([]clock.TickOutcome, error) {
	query := `SELECT seq, tick, epoch, overflowed FROM ticks ORDER BY seq ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read ticks: %w", err)
	}
	defer rows.Close()

	type tickRow struct {
		seq     int64
		outcome clock.TickOutcome
	}
	var ticks []tickRow
	for rows.Next() {
		var row tickRow
		var tick, epoch int64
		if err := rows.Scan(&row.seq, &tick, &epoch, &row.outcome.Overflowed); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		row.outcome.Snapshot.Tick = uint64(tick)
		row.outcome.Snapshot.Epoch = uint64(epoch)
		ticks = append(ticks, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}

	outcomes := make([]clock.TickOutcome, 0, len(ticks))
	for _, row := range ticks {
		if err := r.loadPartitions(ctx, row.seq, &row.outcome); err != nil {
			return nil, err
		}
		if err := r.loadPulses(ctx, row.seq, &row.outcome); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, row.outcome)
	}
	return outcomes, nil
}

// Count returns the number of recorded outcomes.
func (r *Recorder) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ticks: %w", err)
	}
	return n, nil
}

func (r *Recorder) loadPartitions(ctx context.Context, seq int64, outcome *clock.TickOutcome) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, modulus, value FROM partition_values WHERE seq = ? ORDER BY position ASC`, seq)
	if err != nil {
		return fmt.Errorf("read partitions for seq %d: %w", seq, err)
	}
	defer rows.Close()

	for rows.Next() {
		var part clock.PartitionState
		var modulus, value int64
		if err := rows.Scan(&part.Name, &modulus, &value); err != nil {
			return fmt.Errorf("scan partition: %w", err)
		}
		part.Modulus = uint64(modulus)
		part.Value = uint64(value)
		outcome.Snapshot.Partitions = append(outcome.Snapshot.Partitions, part)
	}
	return rows.Err()
}

func (r *Recorder) loadPulses(ctx context.Context, seq int64, outcome *clock.TickOutcome) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM pulse_firings WHERE seq = ? ORDER BY position ASC`, seq)
	if err != nil {
		return fmt.Errorf("read pulses for seq %d: %w", seq, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan pulse: %w", err)
		}
		outcome.Pulses = append(outcome.Pulses, clock.PulseFired{
			Name:  name,
			Tick:  outcome.Snapshot.Tick,
			Epoch: outcome.Snapshot.Epoch,
		})
	}
	return rows.Err()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

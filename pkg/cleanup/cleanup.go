// Package cleanup executes the queue of pending drop statements that lessons
// leave in the engine.
//
// The queue is a table holding one statement per row. Executing it is a two
// step flow: Preview reads and orders the queue, then Run either stops there
// (Mode_DRY_RUN) or applies the whole batch in one transaction (Mode_CONFIRM).
// A confirmed batch is all or nothing.
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-lessons/pkg/engine"
)

const (
	// DefaultTable is the queue table name.
	DefaultTable = "cleanup_queue"
	// DefaultColumn holds the statement text.
	DefaultColumn = "drop_stmt"
	// NoLimit disables batch truncation.
	NoLimit = -1
)

// ErrQueueMissing is returned by Preview when the queue table does not exist.
var ErrQueueMissing = errors.New("cleanup queue not found")

// Mode selects what Run does with a previewed batch.
type Mode int32

const (
	Mode_DRY_RUN Mode = 0
	Mode_CONFIRM Mode = 1
)

func (m Mode) String() string {
	if m == Mode_CONFIRM {
		return "confirm"
	}
	return "dry-run"
}

// State is where a batch ended up.
type State int32

const (
	State_EMPTY       State = 0
	State_PREVIEWED   State = 1
	State_COMMITTED   State = 2
	State_ROLLED_BACK State = 3
)

func (s State) String() string {
	switch s {
	case State_PREVIEWED:
		return "previewed"
	case State_COMMITTED:
		return "committed"
	case State_ROLLED_BACK:
		return "rolled back"
	default:
		return "empty"
	}
}

// StatementError reports the queued statement that made a batch fail.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d (%s): %v", e.Index+1, e.Statement, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Batch is the ordered, possibly truncated content of the queue.
type Batch struct {
	Statements []string
	// Total is the queue length before the limit was applied.
	Total int
	Limit int
}

// State returns State_EMPTY for an empty queue, State_PREVIEWED otherwise.
func (b *Batch) State() State {
	if b.Total == 0 {
		return State_EMPTY
	}
	return State_PREVIEWED
}

// Limited reports whether a limit was requested.
func (b *Batch) Limited() bool {
	return b.Limit > 0
}

// Outcome is the result of Run.
type Outcome struct {
	State    State
	Executed int
	// Err is set when State is State_ROLLED_BACK.
	Err error
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Option configures an Executor.
type Option func(*Executor)

// WithQueue overrides the queue table and statement column.
func WithQueue(table, column string) Option {
	return func(e *Executor) {
		if table != "" {
			e.table = table
		}
		if column != "" {
			e.column = column
		}
	}
}

// Executor reads and applies the cleanup queue of one session.
type Executor struct {
	session engine.Session
	table   string
	column  string
}

// New returns an Executor for session. The queue table and column must be
// plain, optionally schema qualified, identifiers.
func New(session engine.Session, opts ...Option) (*Executor, error) {
	e := &Executor{session: session, table: DefaultTable, column: DefaultColumn}
	for _, opt := range opts {
		opt(e)
	}
	if !identifierPattern.MatchString(e.table) {
		return nil, errors.Errorf("invalid cleanup queue table %q", e.table)
	}
	if !identifierPattern.MatchString(e.column) {
		return nil, errors.Errorf("invalid cleanup queue column %q", e.column)
	}
	return e, nil
}

// Preview reads the queue ordered by statement text and keeps the first limit
// statements. A negative limit keeps them all.
func (e *Executor) Preview(ctx context.Context, limit int) (*Batch, error) {
	if _, err := e.session.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", e.table)); err != nil {
		slog.Debug("Cleanup queue check failed", "table", e.table, "error", err)
		return nil, errors.Wrapf(ErrQueueMissing, "table %s: %v", e.table, err)
	}

	rows, err := e.session.Query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", e.column, e.table, e.column))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cleanup queue %s", e.table)
	}

	statements := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || row[0] == nil {
			slog.Warn("Ignoring empty cleanup queue entry", "table", e.table)
			continue
		}
		statements = append(statements, fmt.Sprint(row[0]))
	}
	// Byte order, whatever the engine collation.
	sort.Strings(statements)

	batch := &Batch{Total: len(statements), Limit: limit}
	if limit >= 0 && limit < len(statements) {
		statements = statements[:limit]
	}
	batch.Statements = statements
	slog.Debug("Cleanup queue previewed", "total", batch.Total, "selected", len(batch.Statements))
	return batch, nil
}

// Run applies batch according to mode.
//
// Mode_DRY_RUN never opens a transaction. Mode_CONFIRM executes every
// statement in one transaction and commits only when all of them succeed; any
// failure rolls the whole batch back.
func (e *Executor) Run(ctx context.Context, batch *Batch, mode Mode) *Outcome {
	if batch.State() == State_EMPTY {
		return &Outcome{State: State_EMPTY}
	}
	if mode != Mode_CONFIRM {
		return &Outcome{State: State_PREVIEWED}
	}

	tx, err := e.session.Begin(ctx)
	if err != nil {
		return &Outcome{State: State_ROLLED_BACK, Err: errors.Wrap(err, "failed to begin transaction")}
	}

	for i, stmt := range batch.Statements {
		if err := tx.Exec(ctx, stmt); err != nil {
			failure := &StatementError{Index: i, Statement: stmt, Err: err}
			slog.Warn("Cleanup statement failed, rolling back", "index", i, "error", err)
			return &Outcome{State: State_ROLLED_BACK, Err: rollback(tx, failure)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Outcome{State: State_ROLLED_BACK, Err: rollback(tx, errors.Wrap(err, "failed to commit cleanup batch"))}
	}
	slog.Info("Cleanup batch committed", "statements", len(batch.Statements))
	return &Outcome{State: State_COMMITTED, Executed: len(batch.Statements)}
}

// rollback aborts tx and returns cause, combined with the rollback error if the
// rollback itself fails.
func rollback(tx engine.Tx, cause error) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		var result *multierror.Error
		result = multierror.Append(result, cause, errors.Wrap(err, "rollback failed"))
		return result
	}
	return cause
}

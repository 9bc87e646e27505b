package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	// Drivers for every Kind returned by DetectKind.
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// DefaultRowBuffer is how many rows of a script's final result set are kept
// when no WithRowBuffer option is given.
const DefaultRowBuffer = 16

// duckDBInitStatements run before any configured init statement on a DuckDB
// session. One thread keeps statement order and output deterministic.
var duckDBInitStatements = []string{"PRAGMA threads=1"}

// errNoResultSet is reported by FetchMany when the final statement of a script
// produced no columns.
var errNoResultSet = errors.New("statement did not return a result set")

// Option is a functional option for Open.
type Option func(*sessionOptions)

type sessionOptions struct {
	initStatements []string
	rowBuffer      int
}

// WithInitStatements runs the statements once, in order, right after the
// connection is established. A failing statement aborts Open.
func WithInitStatements(statements ...string) Option {
	return func(o *sessionOptions) {
		o.initStatements = append(o.initStatements, statements...)
	}
}

// WithRowBuffer caps how many rows of the final result set Execute keeps.
// Values below one are ignored.
func WithRowBuffer(n int) Option {
	return func(o *sessionOptions) {
		if n > 0 {
			o.rowBuffer = n
		}
	}
}

var _ Session = (*SQLSession)(nil)

// SQLSession is a Session backed by a single pinned database/sql connection.
type SQLSession struct {
	kind      Kind
	db        *sql.DB
	conn      *sql.Conn
	rowBuffer int
}

// Open connects to target and returns a session bound to one connection.
//
// See DetectKind for the accepted target forms.
func Open(ctx context.Context, target string, opts ...Option) (*SQLSession, error) {
	o := &sessionOptions{rowBuffer: DefaultRowBuffer}
	for _, opt := range opts {
		opt(o)
	}

	kind := DetectKind(target)
	slog.Debug("Opening engine session", "kind", kind)

	db, err := sql.Open(kind.driverName(), DataSourceName(kind, target))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", kind)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s database", kind)
	}

	s := &SQLSession{kind: kind, db: db, conn: conn, rowBuffer: o.rowBuffer}
	initStatements := o.initStatements
	if kind == Kind_DUCKDB {
		initStatements = append(append([]string{}, duckDBInitStatements...), initStatements...)
	}
	for i, stmt := range initStatements {
		slog.Debug("Executing session init statement", "index", i, "statement", FormatSQLForLog(stmt))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = s.Close()
			return nil, errors.Wrapf(err, "session init statement %d failed", i+1)
		}
	}
	return s, nil
}

// Kind reports which driver serves the session.
func (s *SQLSession) Kind() Kind {
	return s.kind
}

// Execute implements Session.
//
// Every result set of the script is consumed so that errors raised by later
// statements surface here rather than on a later call. Only the rows of the
// final result set are kept.
func (s *SQLSession) Execute(ctx context.Context, script string) (Result, error) {
	startTime := time.Now()
	slog.Debug("Executing script", "kind", s.kind, "script", FormatSQLForLog(script))

	rows, err := s.conn.QueryContext(ctx, script)
	if err != nil {
		slog.Debug("Script execution failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var res *bufferedResult
	for {
		res = collect(rows, s.rowBuffer)
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		slog.Debug("Script execution failed", "error", err)
		return nil, err
	}

	slog.Debug("Script executed",
		"duration_ms", time.Since(startTime).Milliseconds(),
		"buffered_rows", len(res.rows),
	)
	return res, nil
}

// Query implements Session.
func (s *SQLSession) Query(ctx context.Context, query string) ([]Row, error) {
	slog.Debug("Executing query", "kind", s.kind, "query", FormatSQLForLog(query))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		row, err := scanRow(rows, len(columns))
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Begin implements Session.
func (s *SQLSession) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.conn.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Debug("Failed to begin transaction", "error", err)
		return nil, err
	}
	slog.Debug("Transaction started")
	return &sqlTx{tx: tx}, nil
}

// Close implements Session.
func (s *SQLSession) Close() error {
	var result *multierror.Error
	if err := s.conn.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, statement string) error {
	slog.Debug("Executing statement in transaction", "statement", FormatSQLForLog(statement))
	_, err := t.tx.ExecContext(ctx, statement)
	return err
}

func (t *sqlTx) Commit() error {
	slog.Debug("Committing transaction")
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	slog.Debug("Rolling back transaction")
	return t.tx.Rollback()
}

// bufferedResult keeps the first rows of one result set.
type bufferedResult struct {
	rows []Row
	err  error
}

func (r *bufferedResult) FetchMany(n int) ([]Row, error) {
	if r.err != nil {
		return nil, r.err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > len(r.rows) {
		n = len(r.rows)
	}
	return r.rows[:n], nil
}

// collect reads the current result set of rows, keeping at most limit rows and
// draining the remainder. Scan problems are recorded on the result and only
// surface through FetchMany.
func collect(rows *sql.Rows, limit int) *bufferedResult {
	res := &bufferedResult{}

	columns, err := rows.Columns()
	if err != nil {
		res.err = err
	} else if len(columns) == 0 {
		res.err = errNoResultSet
	}

	for rows.Next() {
		if res.err != nil || len(res.rows) >= limit {
			continue
		}
		row, err := scanRow(rows, len(columns))
		if err != nil {
			res.err = err
			res.rows = nil
			continue
		}
		res.rows = append(res.rows, row)
	}
	return res
}

// scanRow scans the current row into generic values. Byte slices become
// strings.
func scanRow(rows *sql.Rows, width int) (Row, error) {
	values := make([]any, width)
	dest := make([]any, width)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "failed to scan row")
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return Row(values), nil
}

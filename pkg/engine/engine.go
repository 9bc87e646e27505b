// Package engine provides the SQL engine session used to execute lesson
// examples and cleanup batches.
//
// A Session is a single live connection. Everything a lesson creates (tables,
// views, queued statements) stays visible to later calls on the same Session,
// which is what lets lessons behave as cumulative scripts.
package engine

import (
	"context"
	"strings"
)

// Row is one result row. Text columns are returned as strings.
type Row []any

// Result is the handle returned by Session.Execute.
type Result interface {
	// FetchMany returns at most n rows of the final result set of the script.
	// It returns an error when no rows can be produced, e.g. because the last
	// statement had no result set.
	FetchMany(n int) ([]Row, error)
}

// Tx is an open transaction on a Session.
type Tx interface {
	Exec(ctx context.Context, statement string) error
	Commit() error
	Rollback() error
}

// Session is a connection to the SQL engine.
//
// A Session is not safe for concurrent use.
type Session interface {
	// Execute runs script, which may hold several semicolon separated
	// statements, as a single submission.
	Execute(ctx context.Context, script string) (Result, error)

	// Query runs a single statement and returns every row it produces.
	Query(ctx context.Context, query string) ([]Row, error)

	// Begin opens a transaction.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the connection.
	Close() error
}

// Kind identifies the driver a database target is served by.
type Kind int32

const (
	Kind_UNSPECIFIED Kind = 0
	Kind_SQLITE      Kind = 1
	Kind_POSTGRES    Kind = 2
	Kind_LIBSQL      Kind = 3
	Kind_DUCKDB      Kind = 4
)

func (k Kind) String() string {
	switch k {
	case Kind_SQLITE:
		return "sqlite"
	case Kind_POSTGRES:
		return "postgres"
	case Kind_LIBSQL:
		return "libsql"
	case Kind_DUCKDB:
		return "duckdb"
	default:
		return "unspecified"
	}
}

// driverName returns the database/sql driver registered for the kind.
func (k Kind) driverName() string {
	switch k {
	case Kind_SQLITE:
		return "sqlite"
	case Kind_POSTGRES:
		return "postgres"
	case Kind_LIBSQL:
		return "libsql"
	case Kind_DUCKDB:
		return "duckdb"
	}
	return ""
}

// MemoryTarget is the default database target: a private in-memory database.
const MemoryTarget = ":memory:"

// DuckDBMemoryTarget is a private in-memory DuckDB database.
const DuckDBMemoryTarget = "duckdb::memory:"

// duckDBPrefix marks DuckDB targets: "duckdb:", "duckdb::memory:",
// "duckdb:path/to/file" or "duckdb://path/to/file".
const duckDBPrefix = "duckdb:"

var duckDBExtensions = []string{".duckdb", ".ddb"}

// DetectKind works out which driver serves target.
//
// An empty target or ":memory:" is an in-memory SQLite database. Targets with
// the "duckdb:" prefix or a .duckdb/.ddb file extension are DuckDB databases.
// URLs select their driver by scheme; anything else is treated as a SQLite
// file path.
func DetectKind(target string) Kind {
	lower := strings.ToLower(strings.TrimSpace(target))
	switch {
	case lower == "", lower == MemoryTarget:
		return Kind_SQLITE
	case strings.HasPrefix(lower, duckDBPrefix), hasDuckDBExtension(lower):
		return Kind_DUCKDB
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Kind_POSTGRES
	case strings.HasPrefix(lower, "libsql://"), strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Kind_LIBSQL
	default:
		return Kind_SQLITE
	}
}

func hasDuckDBExtension(lower string) bool {
	for _, ext := range duckDBExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DataSourceName converts target into the DSN expected by the driver of kind.
//
// DuckDB takes a bare file path, or an empty DSN for an in-memory database.
func DataSourceName(kind Kind, target string) string {
	target = strings.TrimSpace(target)
	if kind == Kind_DUCKDB {
		dsn := target
		if len(dsn) >= len(duckDBPrefix) && strings.EqualFold(dsn[:len(duckDBPrefix)], duckDBPrefix) {
			dsn = strings.TrimPrefix(dsn[len(duckDBPrefix):], "//")
		}
		if dsn == MemoryTarget {
			return ""
		}
		return dsn
	}
	if kind != Kind_SQLITE {
		return target
	}
	if target == "" {
		return MemoryTarget
	}
	if strings.HasPrefix(strings.ToLower(target), "sqlite://") {
		return target[len("sqlite://"):]
	}
	return target
}

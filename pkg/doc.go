// Package pkg provides the building blocks for maintaining a corpus of SQL
// teaching lessons.
//
// A lesson is a JSON document with ordered sections, each holding named SQL
// examples. The packages below load those documents, run their examples on a
// real engine and keep them consistent with the pages rendered from them.
//
// # Package Structure
//
//   - validator: High-level API that runs every example of a lesson set (recommended starting point)
//   - runner: Executes one example and classifies the outcome
//   - engine: Database session over SQLite, DuckDB, PostgreSQL or libSQL
//   - store: Loading and saving lesson documents without losing unknown fields
//   - catalog: Infers the main table of a lesson from its example SQL
//   - exercise: Synthesizes concrete exercises from an inferred table
//   - topics: Compares lessons with the headings of their HTML pages
//   - cleanup: Previews and executes the queue of pending drop statements
//   - config: Configuration loading and management
//   - types: Core type definitions and data structures
//   - logger: Logging abstraction layer
//
// # Getting Started
//
// For most use cases, start with the validator package:
//
//	import (
//	    "github.com/nsxbet/sql-lessons/pkg/engine"
//	    "github.com/nsxbet/sql-lessons/pkg/store"
//	    "github.com/nsxbet/sql-lessons/pkg/validator"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    session, err := engine.Open(ctx, engine.MemoryTarget)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer session.Close()
//
//	    lessons, err := store.LoadDir("examples")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    report, err := validator.New(session).Validate(ctx, lessons)
//	    // Process results...
//	}
//
// # Execution Model
//
// Lessons are cumulative scripts. Every example of every lesson runs in file
// and document order on one session, so a table created in an early lesson is
// visible to the ones after it. A failing example is recorded and the run
// continues. Blank examples are skipped without touching the engine.
//
// # Exercises
//
// The exercise package reads the first section that defines a table, picks a
// key and an aggregation column and writes three exercises into the lesson:
//
//	schema := catalog.Infer(catalog.SectionSQL(section))
//	exercises := exercise.Synthesize(schema)
//
// Running the synthesizer twice leaves lesson files byte for byte unchanged.
//
// # Cleanup Queue
//
// Lessons that create scratch objects queue DROP statements in a table. The
// cleanup package previews that queue and, when confirmed, applies it in a
// single transaction that is rolled back on the first failure.
//
// # Thread Safety
//
// An engine session wraps a single connection. Validators and executors that
// share a session must not be used from several goroutines at once.
package pkg

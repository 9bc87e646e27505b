// Package validator runs every example of a set of lessons against an engine
// session and reports which ones fail.
//
// Lessons are cumulative scripts: all examples of all lessons run, in document
// order, on the same session, so a later example can use a table created by an
// earlier one. A failing example is recorded and the run goes on.
//
// # Quick Start
//
//	session, err := engine.Open(ctx, engine.MemoryTarget)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	lessons, err := store.LoadDir("examples")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := validator.New(session).Validate(ctx, lessons)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report)
//	if report.HasErrors() {
//	    os.Exit(int(types.ExitExampleErrors))
//	}
package validator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nsxbet/sql-lessons/pkg/engine"
	"github.com/nsxbet/sql-lessons/pkg/runner"
	"github.com/nsxbet/sql-lessons/pkg/store"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

// Placeholders reported for untitled sections and unnamed examples.
const (
	UntitledSection = "<no-title>"
	UnnamedExample  = "<unnamed>"
)

// Validator executes lesson examples on one session.
//
// Validator is not safe for concurrent use: the session it wraps is a single
// connection.
type Validator struct {
	session engine.Session
	sample  bool
	runID   string
}

// New creates a Validator that runs examples on session.
func New(session engine.Session, opts ...Option) *Validator {
	v := &Validator{session: session, sample: true}
	for _, opt := range opts {
		opt(v)
	}
	if v.runID == "" {
		v.runID = uuid.NewString()
	}
	return v
}

// ValidateLesson runs every example of lesson in document order and returns
// the per-section results. It never stops early on a failing example.
func (v *Validator) ValidateLesson(ctx context.Context, lesson *types.Lesson) *types.LessonReport {
	report := &types.LessonReport{Title: lesson.Title}
	for _, section := range lesson.Sections {
		sr := &types.SectionReport{Title: orDefault(section.Title, UntitledSection)}
		for _, ex := range section.Examples {
			res := runner.Run(ctx, v.session, ex.SQL, runner.WithSampling(v.sample))
			res.Name = orDefault(ex.Name, UnnamedExample)
			if res.Status == types.Status_ERROR {
				slog.Debug("Example failed",
					"section", section.Title,
					"example", res.Name,
					"error", res.Error,
				)
			}
			sr.Examples = append(sr.Examples, res)
		}
		report.Sections = append(report.Sections, sr)
	}
	return report
}

// Validate runs every lesson of c in order.
//
// Files that could not be loaded are listed in Report.Unreadable. The context
// is checked between lessons; on cancellation the partial report is returned
// together with ctx.Err().
func (v *Validator) Validate(ctx context.Context, c *store.Collection) (*Report, error) {
	report := &Report{RunID: v.runID}
	for _, fe := range c.Failed {
		report.Unreadable = append(report.Unreadable, UnreadableFile{File: fe.Path, Error: fe.Err.Error()})
	}

	for _, f := range c.Files {
		select {
		case <-ctx.Done():
			report.Summary = calculateSummary(report)
			return report, ctx.Err()
		default:
		}

		lr := v.ValidateLesson(ctx, f.Lesson)
		lr.File = f.Path
		lr.Title = f.Title()
		slog.Debug("Lesson validated", "file", f.Path, "errors", lr.Count(types.Status_ERROR))
		report.Lessons = append(report.Lessons, lr)
	}

	report.Summary = calculateSummary(report)
	return report, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package exercise

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-lessons/pkg/catalog"
	"github.com/nsxbet/sql-lessons/pkg/store"
)

// Skip reasons reported for lessons left unchanged.
const (
	ReasonParseError = "parse error"
	ReasonNoSections = "no sections"
	ReasonNoTable    = "no table detected"
)

// Update records a lesson that received exercises.
type Update struct {
	File string `json:"file" yaml:"file"`
	Plan Plan   `json:"plan" yaml:"plan"`
}

// Skip records a lesson left unchanged.
type Skip struct {
	File   string `json:"file"   yaml:"file"`
	Reason string `json:"reason" yaml:"reason"`
}

// Summary is the outcome of a synthesis run.
type Summary struct {
	Updated []Update `json:"updated" yaml:"updated"`
	Skipped []Skip   `json:"skipped" yaml:"skipped"`
}

// Synthesizer writes concrete exercises into lesson files.
type Synthesizer struct {
	dryRun bool
	save   func(*store.File) error
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithDryRun computes updates without writing files.
func WithDryRun(dryRun bool) Option {
	return func(s *Synthesizer) {
		s.dryRun = dryRun
	}
}

// WithSaver replaces the function used to persist updated files.
func WithSaver(save func(*store.File) error) Option {
	return func(s *Synthesizer) {
		s.save = save
	}
}

// NewSynthesizer creates a Synthesizer that saves through store.Save.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{save: store.Save}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DescriptionNote is appended to the description of every updated lesson.
func DescriptionNote(table string) string {
	return fmt.Sprintf("Concrete exercises auto-generated for table `%s`.", table)
}

// Process synthesizes exercises for every lesson in c.
//
// Lessons that failed to load, have no sections, or define no table are
// skipped. The returned error combines write failures; a lesson that could not
// be written is not counted as updated.
func (s *Synthesizer) Process(c *store.Collection) (*Summary, error) {
	summary := &Summary{}
	var result *multierror.Error

	for _, fe := range c.Failed {
		summary.Skipped = append(summary.Skipped, Skip{File: fe.Path, Reason: ReasonParseError})
	}

	for _, f := range c.Files {
		plan, reason := s.apply(f)
		if reason != "" {
			slog.Debug("Skipping lesson", "file", f.Path, "reason", reason)
			summary.Skipped = append(summary.Skipped, Skip{File: f.Path, Reason: reason})
			continue
		}
		if !s.dryRun {
			if err := s.save(f); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "failed to save %s", f.Path))
				continue
			}
		}
		slog.Debug("Synthesized exercises", "file", f.Path, "table", plan.Table, "key", plan.Key, "agg", plan.Agg)
		summary.Updated = append(summary.Updated, Update{File: f.Path, Plan: plan})
	}

	sort.SliceStable(summary.Skipped, func(i, j int) bool {
		return summary.Skipped[i].File < summary.Skipped[j].File
	})
	return summary, result.ErrorOrNil()
}

// apply updates f in memory and returns the plan used, or a skip reason.
func (s *Synthesizer) apply(f *store.File) (Plan, string) {
	if len(f.Lesson.Sections) == 0 {
		return Plan{}, ReasonNoSections
	}
	schema := catalog.Infer(catalog.SectionSQL(f.Lesson.Sections[0]))
	if !schema.Found() {
		return Plan{}, ReasonNoTable
	}

	plan := PlanFor(schema)
	if err := f.SetExercises(plan.Exercises()); err != nil {
		slog.Warn("Failed to set exercises", "file", f.Path, "error", err)
		return Plan{}, ReasonParseError
	}
	description := withNote(f.Lesson.Description, DescriptionNote(plan.Table))
	if description != f.Lesson.Description {
		if err := f.SetDescription(description); err != nil {
			slog.Warn("Failed to set description", "file", f.Path, "error", err)
			return Plan{}, ReasonParseError
		}
	}
	return plan, ""
}

func withNote(description, note string) string {
	if strings.Contains(description, note) {
		return description
	}
	trimmed := strings.TrimRightFunc(description, unicode.IsSpace)
	if trimmed == "" {
		return note
	}
	return trimmed + " " + note
}

package validator

import (
	"fmt"

	"github.com/nsxbet/sql-lessons/pkg/types"
)

// Report contains the results of a validation run.
type Report struct {
	// RunID identifies the run in logs and machine readable output.
	RunID string `json:"run_id" yaml:"run_id"`

	// Lessons holds one report per loaded lesson, in file order.
	Lessons []*types.LessonReport `json:"lessons" yaml:"lessons"`

	// Unreadable lists lesson files that could not be decoded.
	Unreadable []UnreadableFile `json:"unreadable,omitempty" yaml:"unreadable,omitempty"`

	// Summary provides aggregate counts over every example.
	Summary Summary `json:"summary" yaml:"summary"`
}

// UnreadableFile is a lesson file skipped because it failed to load.
type UnreadableFile struct {
	File  string `json:"file"  yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// Summary provides aggregate statistics about a run.
type Summary struct {
	// Files is the number of lesson files seen, readable or not.
	Files int `json:"files" yaml:"files"`

	// Total number of examples run or skipped.
	Total int `json:"total" yaml:"total"`

	OK      int `json:"ok"      yaml:"ok"`
	Skipped int `json:"skipped" yaml:"skipped"`

	// Errors is the count of examples the engine rejected. A non-zero value
	// fails the run.
	Errors int `json:"errors" yaml:"errors"`
}

// HasErrors returns true if any example errored.
//
// This is what pipelines gate on:
//
//	if report.HasErrors() {
//	    os.Exit(int(types.ExitExampleErrors))
//	}
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// String returns the one line summary of the run.
//
// Example output:
//
//	Checked 12 files - errors: 2
func (r *Report) String() string {
	return fmt.Sprintf("Checked %d files - errors: %d", r.Summary.Files, r.Summary.Errors)
}

// FilterByStatus returns every example result with the given status, across
// all lessons.
func (r *Report) FilterByStatus(status types.Status) []*types.ExecutionResult {
	filtered := make([]*types.ExecutionResult, 0)
	for _, lesson := range r.Lessons {
		for _, section := range lesson.Sections {
			for _, ex := range section.Examples {
				if ex.Status == status {
					filtered = append(filtered, ex)
				}
			}
		}
	}
	return filtered
}

// calculateSummary computes aggregate statistics from the lesson reports.
func calculateSummary(r *Report) Summary {
	summary := Summary{Files: len(r.Lessons) + len(r.Unreadable)}
	for _, lesson := range r.Lessons {
		for _, section := range lesson.Sections {
			for _, ex := range section.Examples {
				summary.Total++
				switch ex.Status {
				case types.Status_OK:
					summary.OK++
				case types.Status_SKIPPED:
					summary.Skipped++
				case types.Status_ERROR:
					summary.Errors++
				}
			}
		}
	}
	return summary
}

// Package runner executes a single example script against an engine session
// and classifies the outcome.
package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nsxbet/sql-lessons/pkg/engine"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

// Option is a functional option for Run.
type Option func(*runOptions)

type runOptions struct {
	sample bool
}

// WithSampling controls whether Run fetches a sample row after a successful
// execution. Sampling is on by default.
func WithSampling(enabled bool) Option {
	return func(o *runOptions) {
		o.sample = enabled
	}
}

// Run submits sqlText to session as one script.
//
// Blank text is skipped without touching the session. An engine error yields
// Status_ERROR with the error text kept verbatim. On success Run tries to fetch
// one row of the final result set; a fetch failure and an empty result are
// treated the same and simply leave SampleRow nil.
//
// Run does not isolate the script: whatever it creates stays in the session.
func Run(ctx context.Context, session engine.Session, sqlText string, opts ...Option) *types.ExecutionResult {
	o := &runOptions{sample: true}
	for _, opt := range opts {
		opt(o)
	}

	if strings.TrimSpace(sqlText) == "" {
		return &types.ExecutionResult{Status: types.Status_SKIPPED}
	}

	res, err := session.Execute(ctx, sqlText)
	if err != nil {
		return &types.ExecutionResult{
			Status: types.Status_ERROR,
			Error:  errorText(err),
		}
	}

	result := &types.ExecutionResult{Status: types.Status_OK}
	if !o.sample || res == nil {
		return result
	}

	rows, err := res.FetchMany(1)
	if err != nil {
		slog.Debug("No sample row available", "error", err)
		return result
	}
	if len(rows) > 0 {
		result.SampleRow = []any(rows[0])
	}
	return result
}

// errorText returns the engine message, falling back to a generic text so an
// error result never carries an empty message.
func errorText(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "statement failed without an error message"
}

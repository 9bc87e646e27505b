package topics

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-lessons/pkg/store"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

// Pair is a rendered page and the lesson document sharing its file stem.
type Pair struct {
	Stem string
	HTML string
	// JSON is empty when the page has no lesson document.
	JSON string
}

// Pairs matches every *.html file of dir with the *.json file of the same
// stem, in lexical order of the pages.
func Pairs(dir string) ([]Pair, error) {
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list pages in %s", dir)
	}
	sort.Strings(pages)

	pairs := make([]Pair, 0, len(pages))
	for _, page := range pages {
		stem := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page))
		p := Pair{Stem: stem, HTML: page}
		candidate := filepath.Join(dir, stem+".json")
		if _, err := os.Stat(candidate); err == nil {
			p.JSON = candidate
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func readHeadings(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open page")
	}
	defer f.Close()
	return ExtractHeadings(f)
}

// FileCoverage is the coverage of one page.
type FileCoverage struct {
	Pair     Pair     `json:"pair"              yaml:"pair"`
	Missing  []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Headings int      `json:"headings"          yaml:"headings"`
}

// MissingJSON reports whether the page has no lesson document.
func (c *FileCoverage) MissingJSON() bool {
	return c.Pair.JSON == ""
}

// CheckReport is the result of Check.
type CheckReport struct {
	Files []*FileCoverage `json:"files" yaml:"files"`
	// TotalMissing counts uncovered headings; every heading of a page without
	// a lesson document counts.
	TotalMissing int `json:"total_missing" yaml:"total_missing"`
}

// Check compares the headings of every page in dir with its lesson document.
//
// Pages or documents that cannot be read are skipped and reported through the
// returned error; the report still covers everything else.
func Check(dir string) (*CheckReport, error) {
	pairs, err := Pairs(dir)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{}
	var result *multierror.Error
	for _, p := range pairs {
		headings, err := readHeadings(p.HTML)
		if err != nil {
			result = multierror.Append(result, &store.FileError{Path: p.HTML, Err: err})
			continue
		}
		fc := &FileCoverage{Pair: p, Headings: len(headings)}
		if fc.MissingJSON() {
			fc.Missing = headings
		} else {
			f, err := store.Load(p.JSON)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			fc.Missing = Missing(headings, LessonTopics(f.Lesson))
		}
		report.TotalMissing += len(fc.Missing)
		report.Files = append(report.Files, fc)
	}
	return report, result.ErrorOrNil()
}

// FileSync records the placeholders added to one lesson.
type FileSync struct {
	File  string   `json:"file"  yaml:"file"`
	Added []string `json:"added" yaml:"added"`
}

// SyncReport is the result of Sync.
type SyncReport struct {
	Updated []*FileSync `json:"updated" yaml:"updated"`
	// NoJSON lists pages skipped because they have no lesson document.
	NoJSON []string `json:"no_json,omitempty" yaml:"no_json,omitempty"`
}

// SyncOption configures Sync.
type SyncOption func(*syncOptions)

type syncOptions struct {
	dryRun bool
}

// WithDryRun reports the placeholders Sync would add without writing files.
func WithDryRun(dryRun bool) SyncOption {
	return func(o *syncOptions) {
		o.dryRun = dryRun
	}
}

// Sync appends a placeholder section to each lesson for every heading of its
// page that the lesson does not cover. Running it again adds nothing.
func Sync(dir string, opts ...SyncOption) (*SyncReport, error) {
	o := &syncOptions{}
	for _, opt := range opts {
		opt(o)
	}

	pairs, err := Pairs(dir)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	var result *multierror.Error
	for _, p := range pairs {
		if p.JSON == "" {
			slog.Info("No lesson document for page, skipping", "page", p.HTML)
			report.NoJSON = append(report.NoJSON, p.HTML)
			continue
		}
		headings, err := readHeadings(p.HTML)
		if err != nil {
			result = multierror.Append(result, &store.FileError{Path: p.HTML, Err: err})
			continue
		}
		f, err := store.Load(p.JSON)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		topics := LessonTopics(f.Lesson)
		var (
			added    []string
			sections []types.Section
		)
		for _, h := range headings {
			n := Normalize(h)
			if topics[n] {
				continue
			}
			topics[n] = true
			added = append(added, h)
			sections = append(sections, PlaceholderSection(h))
		}
		if len(added) == 0 {
			continue
		}

		if err := f.AppendSections(sections...); err != nil {
			result = multierror.Append(result, &store.FileError{Path: p.JSON, Err: err})
			continue
		}
		if !o.dryRun {
			if err := store.Save(f); err != nil {
				result = multierror.Append(result, err)
				continue
			}
		}
		slog.Debug("Added placeholder sections", "file", p.JSON, "count", len(added))
		report.Updated = append(report.Updated, &FileSync{File: p.JSON, Added: added})
	}
	return report, result.ErrorOrNil()
}

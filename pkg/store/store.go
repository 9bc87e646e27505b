// Package store loads and saves lesson documents.
//
// Lessons are JSON files in a single directory. A loaded File carries both the
// ordered raw Document, used for write-back, and a typed types.Lesson view used
// by the rest of the tooling.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-lessons/pkg/types"
)

// ErrInvalidDocument marks a lesson file whose content is not a lesson.
var ErrInvalidDocument = errors.New("invalid lesson document")

// ErrNoDocuments is returned by LoadDir when the directory holds no lesson files.
var ErrNoDocuments = errors.New("no lesson documents found")

// File is a lesson document loaded from disk.
type File struct {
	Path   string
	Doc    *Document
	Lesson *types.Lesson
}

// Name returns the base name of the file.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Stem returns the base name without its extension.
func (f *File) Stem() string {
	name := f.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Title returns the lesson title, or the file name when the lesson has none.
func (f *File) Title() string {
	if f.Lesson != nil && f.Lesson.Title != "" {
		return f.Lesson.Title
	}
	return f.Name()
}

// SetExercises replaces the exercises field.
func (f *File) SetExercises(exercises []types.Exercise) error {
	if err := f.Doc.Set("exercises", exercises); err != nil {
		return err
	}
	f.Lesson.Exercises = exercises
	return nil
}

// SetDescription replaces the description field.
func (f *File) SetDescription(description string) error {
	if err := f.Doc.Set("description", description); err != nil {
		return err
	}
	f.Lesson.Description = description
	return nil
}

// AppendSections adds sections after the existing ones. Existing sections are
// kept byte for byte, including fields the typed view does not declare.
func (f *File) AppendSections(sections ...types.Section) error {
	values := make([]any, len(sections))
	for i, s := range sections {
		values[i] = s
	}
	if err := f.Doc.Append("sections", values...); err != nil {
		return errors.Wrap(err, "failed to append sections")
	}
	f.Lesson.Sections = append(f.Lesson.Sections, sections...)
	return nil
}

// FileError records a lesson file that could not be loaded.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Load reads and decodes one lesson file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: errors.Wrap(err, "failed to read lesson")}
	}
	return Parse(path, data)
}

// Parse decodes lesson data that was read from path.
func Parse(path string, data []byte) (*File, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	if err := ValidateLesson(data); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	var lesson types.Lesson
	if err := json.Unmarshal(data, &lesson); err != nil {
		return nil, &FileError{Path: path, Err: errors.Wrap(err, "failed to decode lesson")}
	}
	return &File{Path: path, Doc: doc, Lesson: &lesson}, nil
}

// Save writes f back to its path.
func Save(f *File) error {
	data, err := f.Doc.Bytes()
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", f.Path)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", f.Path)
	}
	slog.Debug("Saved lesson", "file", f.Path)
	return nil
}

// Collection is the outcome of loading a directory of lessons.
type Collection struct {
	Files  []*File
	Failed []*FileError
}

// Err combines every load failure, or returns nil when all files loaded.
func (c *Collection) Err() error {
	var result *multierror.Error
	for _, fe := range c.Failed {
		result = multierror.Append(result, fe)
	}
	return result.ErrorOrNil()
}

// Len returns the number of files seen, loaded or not.
func (c *Collection) Len() int {
	return len(c.Files) + len(c.Failed)
}

// LoadDir loads every *.json file in dir in lexical order.
//
// A file that cannot be decoded does not stop the others from loading; it is
// reported in Collection.Failed instead.
func LoadDir(dir string) (*Collection, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list lessons in %s", dir)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrNoDocuments, "in %s", dir)
	}

	c := &Collection{}
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			var fe *FileError
			if !errors.As(err, &fe) {
				fe = &FileError{Path: p, Err: err}
			}
			slog.Warn("Skipping unreadable lesson", "file", p, "error", fe.Err)
			c.Failed = append(c.Failed, fe)
			continue
		}
		c.Files = append(c.Files, f)
	}
	slog.Debug("Loaded lessons", "dir", dir, "loaded", len(c.Files), "failed", len(c.Failed))
	return c, nil
}

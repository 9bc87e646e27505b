// Package topics keeps lesson documents in step with their rendered HTML pages.
//
// Every heading of a page must be covered by a topic of the matching lesson: a
// section title, an example name, description or nerd note, or the lesson's own
// title or description. Comparison is case-insensitive with whitespace
// collapsed.
package topics

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nsxbet/sql-lessons/pkg/types"
)

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// ExtractHeadings returns the text of every h1 to h6 element of the page, in
// document order. Markup inside a heading is dropped and empty headings are
// ignored.
func ExtractHeadings(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)

	var (
		headings []string
		current  strings.Builder
		open     atom.Atom
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, errors.Wrap(err, "failed to read html")
			}
			return headings, nil

		case html.StartTagToken:
			tok := z.Token()
			if open == 0 && headingAtoms[tok.DataAtom] {
				open = tok.DataAtom
				current.Reset()
			}

		case html.EndTagToken:
			tok := z.Token()
			if open != 0 && tok.DataAtom == open {
				if text := strings.TrimSpace(current.String()); text != "" {
					headings = append(headings, text)
				}
				open = 0
			}

		case html.TextToken:
			if open != 0 {
				current.Write(z.Text())
			}
		}
	}
}

// Normalize lower-cases s and collapses runs of whitespace to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LessonTopics returns the normalized set of topics a lesson covers.
func LessonTopics(lesson *types.Lesson) map[string]bool {
	topics := map[string]bool{}
	add := func(s string) {
		if n := Normalize(s); n != "" {
			topics[n] = true
		}
	}
	for _, sec := range lesson.Sections {
		add(sec.Title)
		for _, ex := range sec.Examples {
			add(ex.Name)
			add(ex.Description)
			add(ex.NerdNotes)
		}
	}
	add(lesson.Title)
	add(lesson.Description)
	return topics
}

// Missing returns the headings, in order, whose normalized form is not in
// topics.
func Missing(headings []string, topics map[string]bool) []string {
	var missing []string
	for _, h := range headings {
		if !topics[Normalize(h)] {
			missing = append(missing, h)
		}
	}
	return missing
}

var (
	nonAlnum   = regexp.MustCompile(`[^0-9A-Za-z]+`)
	underscore = regexp.MustCompile(`_+`)
)

// Slugify turns a heading into an identifier made of lower-case letters,
// digits and underscores. It never returns an empty string.
func Slugify(s string) string {
	s = nonAlnum.ReplaceAllString(s, "_")
	s = underscore.ReplaceAllString(s, "_")
	s = strings.ToLower(strings.Trim(s, "_"))
	if s == "" {
		return "topic"
	}
	return s
}

// PlaceholderSection builds the section added for an uncovered heading. Its
// single example is a constant SELECT so validation keeps passing.
func PlaceholderSection(title string) types.Section {
	literal := strings.ReplaceAll(title, "'", "''")
	return types.Section{
		Title:     title,
		Narrative: fmt.Sprintf("Auto-added placeholder for topic '%s'. Replace with real narrative and examples.", title),
		NerdNotes: "Auto-generated note: placeholder example created to ensure coverage.\n" +
			"Replace with concrete examples where appropriate.",
		Examples: []types.Example{
			{
				Name:        fmt.Sprintf("auto_%s_example", Slugify(title)),
				Description: fmt.Sprintf("Placeholder example for topic '%s'.", title),
				SQL:         fmt.Sprintf("SELECT '%s' AS topic LIMIT 1;", literal),
				NerdNotes:   "Auto-generated placeholder example; safe SELECT to keep validation passing.",
			},
		},
	}
}

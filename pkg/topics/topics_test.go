package topics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-lessons/pkg/engine"
	"github.com/nsxbet/sql-lessons/pkg/runner"
	"github.com/nsxbet/sql-lessons/pkg/store"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

const page = `<!doctype html>
<html><head><title>Not a heading</title></head>
<body>
  <h1>Window <em>Functions</em></h1>
  <p>intro</p>
  <h2 class="x">  Running   totals </h2>
  <h3></h3>
  <h2>Rank &amp; Dense Rank</h2>
  <div><h4>Bob's
  notes</h4></div>
</body></html>`

func TestExtractHeadings(t *testing.T) {
	headings, err := ExtractHeadings(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Window Functions",
		"Running   totals",
		"Rank & Dense Rank",
		"Bob's\n  notes",
	}, headings)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "running totals", Normalize("  Running \n\t Totals "))
	assert.Equal(t, "", Normalize(" \n "))
}

func TestLessonTopicsAndMissing(t *testing.T) {
	lesson := &types.Lesson{
		Title:       "Window functions",
		Description: "Ranking rows",
		Sections: []types.Section{
			{
				Title: "Running Totals",
				Examples: []types.Example{
					{Name: "rank_demo", Description: "Rank & dense rank", NerdNotes: "Ties share a rank"},
				},
			},
		},
	}
	topics := LessonTopics(lesson)
	for _, want := range []string{"window functions", "ranking rows", "running totals", "rank_demo", "rank & dense rank", "ties share a rank"} {
		assert.True(t, topics[want], want)
	}

	headings, err := ExtractHeadings(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob's\n  notes"}, Missing(headings, topics))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Window Functions":    "window_functions",
		"  --Rank & Dense-- ": "rank_dense",
		"???":                 "topic",
		"CTEs (WITH)":         "ctes_with",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestPlaceholderSection_RunsOnEngine(t *testing.T) {
	sec := PlaceholderSection("Bob's notes")

	require.Len(t, sec.Examples, 1)
	ex := sec.Examples[0]
	assert.Equal(t, "auto_bob_s_notes_example", ex.Name)
	assert.Equal(t, "SELECT 'Bob''s notes' AS topic LIMIT 1;", ex.SQL)
	assert.Equal(t, "Auto-added placeholder for topic 'Bob's notes'. Replace with real narrative and examples.", sec.Narrative)

	s, err := engine.Open(context.Background(), engine.MemoryTarget)
	require.NoError(t, err)
	defer s.Close()

	res := runner.Run(context.Background(), s, ex.SQL)
	assert.Equal(t, types.Status_OK, res.Status)
	assert.Equal(t, []any{"Bob's notes"}, res.SampleRow)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.html": "<h1>Alpha</h1><h2>Beta</h2>",
		"a.json": `{"title": "alpha", "sections": []}`,
		"b.html": "<h1>Gamma</h1><h2>Delta</h2>",
		"c.html": "<h1>Covered</h1>",
		"c.json": `{"sections": [{"title": "COVERED"}]}`,
	})

	report, err := Check(dir)
	require.NoError(t, err)
	require.Len(t, report.Files, 3)

	assert.Equal(t, []string{"Beta"}, report.Files[0].Missing)
	assert.True(t, report.Files[1].MissingJSON())
	assert.Equal(t, []string{"Gamma", "Delta"}, report.Files[1].Missing)
	assert.Empty(t, report.Files[2].Missing)
	assert.Equal(t, 3, report.TotalMissing)
}

func TestSync_AddsPlaceholdersOnce(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.html": "<h1>Alpha</h1><h2>Beta</h2><h3>beta</h3>",
		"a.json": `{"title": "Alpha", "keep": 1, "sections": [{"title": "Setup", "x": true}]}`,
		"b.html": "<h1>Orphan</h1>",
	})

	report, err := Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Updated, 1)
	assert.Equal(t, []string{"Beta"}, report.Updated[0].Added)
	assert.Equal(t, []string{filepath.Join(dir, "b.html")}, report.NoJSON)

	f, err := store.Load(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.Len(t, f.Lesson.Sections, 2)
	assert.Equal(t, "Beta", f.Lesson.Sections[1].Title)
	assert.Equal(t, []string{"title", "keep", "sections"}, f.Doc.Keys())

	again, err := Sync(dir)
	require.NoError(t, err)
	assert.Empty(t, again.Updated)
}

func TestSync_DryRun(t *testing.T) {
	lesson := `{"title": "Alpha"}`
	dir := writeFiles(t, map[string]string{
		"a.html": "<h1>Beta</h1>",
		"a.json": lesson,
	})

	report, err := Sync(dir, WithDryRun(true))
	require.NoError(t, err)
	require.Len(t, report.Updated, 1)

	data, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, lesson, string(data))
}

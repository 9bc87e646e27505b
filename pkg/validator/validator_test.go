package validator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-lessons/pkg/engine"
	"github.com/nsxbet/sql-lessons/pkg/store"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

func openSession(t *testing.T) engine.Session {
	t.Helper()
	s, err := engine.Open(context.Background(), engine.MemoryTarget)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestValidateLesson_CumulativeAndContinuesPastErrors(t *testing.T) {
	lesson := &types.Lesson{
		Title: "Basics",
		Sections: []types.Section{
			{
				Title: "Setup",
				Examples: []types.Example{
					{Name: "create", SQL: "CREATE TABLE items (id INTEGER, name TEXT); INSERT INTO items VALUES (1, 'pen');"},
					{Name: "typo", SQL: "SELEC * FROM items;"},
				},
			},
			{
				Title: "Query",
				Examples: []types.Example{
					{Name: "read", SQL: "SELECT id, name FROM items;"},
					{Name: "blank", SQL: "  "},
				},
			},
		},
	}

	report := New(openSession(t)).ValidateLesson(context.Background(), lesson)

	require.Len(t, report.Sections, 2)
	setup := report.Sections[0].Examples
	assert.Equal(t, types.Status_OK, setup[0].Status)
	assert.Equal(t, types.Status_ERROR, setup[1].Status)
	assert.NotEmpty(t, setup[1].Error)

	query := report.Sections[1].Examples
	assert.Equal(t, "read", query[0].Name)
	assert.Equal(t, types.Status_OK, query[0].Status)
	assert.Equal(t, []any{int64(1), "pen"}, query[0].SampleRow)
	assert.Equal(t, types.Status_SKIPPED, query[1].Status)

	assert.Equal(t, 1, report.Count(types.Status_ERROR))
}

func TestValidateLesson_AllBlankIsAllSkipped(t *testing.T) {
	lesson := &types.Lesson{
		Sections: []types.Section{
			{Examples: []types.Example{{Name: "a"}, {SQL: "\n"}}},
			{Examples: []types.Example{{Name: "c", SQL: "\t"}}},
		},
	}

	report := New(openSession(t)).ValidateLesson(context.Background(), lesson)

	assert.Zero(t, report.Count(types.Status_ERROR))
	assert.Equal(t, 3, report.Count(types.Status_SKIPPED))
	assert.Equal(t, UnnamedExample, report.Sections[0].Examples[1].Name)
	assert.Equal(t, UntitledSection, report.Sections[1].Title)
}

func TestValidate_Collection(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"01_setup.json": `{"title": "Setup", "sections": [{"title": "s", "examples": [{"name": "c", "sql": "CREATE TABLE shared (v INT);"}]}]}`,
		"02_use.json":   `{"sections": [{"title": "s", "examples": [{"name": "q", "sql": "SELECT COUNT(*) FROM shared;"}, {"name": "bad", "sql": "SELECT * FROM nope;"}]}]}`,
		"03_bad.json":   `not json`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	c, err := store.LoadDir(dir)
	require.NoError(t, err)

	report, err := New(openSession(t), WithSampling(false), WithRunID("test-run")).Validate(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, "test-run", report.RunID)
	require.Len(t, report.Lessons, 2)
	assert.Equal(t, "Setup", report.Lessons[0].Title)
	assert.Equal(t, "02_use.json", report.Lessons[1].Title)
	assert.Nil(t, report.Lessons[1].Sections[0].Examples[0].SampleRow)

	require.Len(t, report.Unreadable, 1)
	assert.Equal(t, filepath.Join(dir, "03_bad.json"), report.Unreadable[0].File)

	assert.Equal(t, Summary{Files: 3, Total: 3, OK: 2, Errors: 1}, report.Summary)
	assert.True(t, report.HasErrors())
	assert.Equal(t, "Checked 3 files - errors: 1", report.String())
}

func TestValidate_Cancelled(t *testing.T) {
	c := &store.Collection{Files: []*store.File{{Path: "a.json", Lesson: &types.Lesson{}}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(openSession(t)).Validate(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Lessons)
}

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-lessons/pkg/types"
)

const sampleLesson = `{
  "title": "Window functions",
  "meta": {"level": 3, "tags": ["a", "b"]},
  "description": "Ranking & running totals",
  "sections": [
    {
      "title": "Setup",
      "nerd_notes": "kept",
      "custom": true,
      "examples": [
        {"name": "create", "sql": "CREATE TABLE t (id INT);", "extra": 1}
      ]
    }
  ]
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseDocument_KeepsOrderAndUnknownFields(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleLesson))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "meta", "description", "sections"}, doc.Keys())

	out, err := doc.Bytes()
	require.NoError(t, err)

	again, err := ParseDocument(out)
	require.NoError(t, err)
	assert.Equal(t, doc.Keys(), again.Keys())
	assert.Contains(t, string(out), `"custom": true`)
	assert.Contains(t, string(out), `"extra": 1`)
	assert.Contains(t, string(out), "Ranking & running totals")
}

func TestParseDocument_RejectsNonObject(t *testing.T) {
	_, err := ParseDocument([]byte(`[1, 2]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDocument))

	_, err = ParseDocument([]byte(`{"a": 1} {"b": 2}`))
	require.Error(t, err)

	_, err = ParseDocument([]byte(`{"a": `))
	require.Error(t, err)
}

func TestDocument_SetKeepsPosition(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a": 1, "b": 2}`))
	require.NoError(t, err)

	require.NoError(t, doc.Set("a", "changed"))
	require.NoError(t, doc.Set("c", []int{3}))

	assert.Equal(t, []string{"a", "b", "c"}, doc.Keys())
	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"changed","b":2,"c":[3]}`, string(out))
}

func TestDocument_AppendEditsInPlace(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"list": [ {"x" : 1} ], "other": "a.b"}`))
	require.NoError(t, err)

	require.NoError(t, doc.Append("list", map[string]int{"y": 2}, 3))
	raw, ok := doc.Get("list")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(raw), `[ {"x" : 1}`), string(raw))
	var elems []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &elems))
	require.Len(t, elems, 3)
	assert.JSONEq(t, `{"y":2}`, string(elems[1]))
	assert.JSONEq(t, `3`, string(elems[2]))

	require.NoError(t, doc.Append("fresh", "v"))
	assert.Equal(t, []string{"list", "other", "fresh"}, doc.Keys())

	err = doc.Append("other", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an array")
}

func TestDocument_KeysWithPathCharacters(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a.b": 1, "c*": 2}`))
	require.NoError(t, err)

	assert.True(t, doc.Has("a.b"))
	assert.False(t, doc.Has("a"))
	require.NoError(t, doc.Set("a.b", 10))

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a.b":10,"c*":2}`, string(out))
}

func TestDocument_Empty(t *testing.T) {
	doc := NewDocument()
	assert.Empty(t, doc.Keys())
	require.NoError(t, doc.Set("title", "<b>Joins</b>"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"title\": \"<b>Joins</b>\"\n}\n", string(out))
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse("bad.json", []byte(`{"title": "x", "sections": "not an array"}`))
	require.Error(t, err)

	var fe *FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "bad.json", fe.Path)
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestFile_SetExercisesAppendsField(t *testing.T) {
	f, err := Parse("lesson.json", []byte(sampleLesson))
	require.NoError(t, err)

	exercises := []types.Exercise{{ID: "basic-select", Prompt: "p", AnswerSQL: "SELECT 1;"}}
	require.NoError(t, f.SetExercises(exercises))

	assert.Equal(t, []string{"title", "meta", "description", "sections", "exercises"}, f.Doc.Keys())
	assert.Equal(t, exercises, f.Lesson.Exercises)
}

func TestFile_AppendSectionsKeepsExisting(t *testing.T) {
	f, err := Parse("lesson.json", []byte(sampleLesson))
	require.NoError(t, err)

	require.NoError(t, f.AppendSections(types.Section{Title: "Joins", Examples: []types.Example{{Name: "j", SQL: "SELECT 1;"}}}))

	raw, ok := f.Doc.Get("sections")
	require.True(t, ok)
	assert.Contains(t, string(raw), `"nerd_notes": "kept",
      "custom": true,`)
	assert.Contains(t, string(raw), `"Joins"`)
	require.Len(t, f.Lesson.Sections, 2)
	assert.Equal(t, "Joins", f.Lesson.Sections[1].Title)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", sampleLesson)
	writeFile(t, dir, "a.json", `{"title": "A", "sections": []}`)
	writeFile(t, dir, "broken.json", `{"title": `)
	writeFile(t, dir, "notes.txt", "ignored")

	c, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, c.Files, 2)
	assert.Equal(t, "a.json", c.Files[0].Name())
	assert.Equal(t, "b.json", c.Files[1].Name())
	assert.Equal(t, "Window functions", c.Files[1].Title())

	require.Len(t, c.Failed, 1)
	assert.Equal(t, filepath.Join(dir, "broken.json"), c.Failed[0].Path)
	assert.Equal(t, 3, c.Len())
	assert.Error(t, c.Err())
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDocuments))
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "lesson.json", sampleLesson)

	f, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, f.SetDescription("updated"))
	require.NoError(t, Save(f))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"meta\": {\n")
	assert.Equal(t, byte('\n'), data[len(data)-1])

	reloaded, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "updated", reloaded.Lesson.Description)
	assert.Equal(t, f.Doc.Keys(), reloaded.Doc.Keys())
	assert.Equal(t, "lesson", reloaded.Stem())
}

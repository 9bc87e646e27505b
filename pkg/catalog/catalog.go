// Package catalog infers the primary table of a lesson from its setup SQL.
//
// Inference is a structural scan, not a SQL parser. It looks for the first
// table definition, then falls back to the first INSERT target:
//
//	CREATE [OR REPLACE] [TEMP|TEMPORARY] TABLE [IF NOT EXISTS] name ( column-defs )
//	INSERT INTO name
//
// Column definitions are split on commas at parenthesis depth zero, so type
// parameters such as DECIMAL(10,2) stay attached to their column.
package catalog

import (
	"strings"

	"github.com/nsxbet/sql-lessons/pkg/types"
)

// TableSchema is the result of inference.
//
// An empty Table means inference failed. A Table with no Columns is valid: the
// table was found through an INSERT statement that carries no column types.
type TableSchema struct {
	Table   string
	Columns []string
	Types   map[string]string
}

// Found reports whether a table was detected.
func (s *TableSchema) Found() bool {
	return s != nil && s.Table != ""
}

// Type returns the declared type text of column, or "" when unknown.
func (s *TableSchema) Type(column string) string {
	if s == nil || s.Types == nil {
		return ""
	}
	return s.Types[column]
}

// constraintKeywords open table-level constraint clauses inside a column list.
var constraintKeywords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"FOREIGN":    true,
	"UNIQUE":     true,
	"CHECK":      true,
	"EXCLUDE":    true,
	"INDEX":      true,
	"FULLTEXT":   true,
	"SPATIAL":    true,
}

// SectionSQL joins the SQL text of every example in section, each preceded by
// a newline.
func SectionSQL(section types.Section) string {
	var b strings.Builder
	for _, ex := range section.Examples {
		b.WriteByte('\n')
		b.WriteString(ex.SQL)
	}
	return b.String()
}

// Infer scans sqlText for the lesson's primary table.
func Infer(sqlText string) *TableSchema {
	toks := lex(sqlText)

	if schema := inferFromCreate(sqlText, toks); schema != nil {
		return schema
	}
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].isKeyword("INSERT") && toks[i+1].isKeyword("INTO") {
			if name, _, ok := readName(toks, i+2); ok {
				return &TableSchema{Table: name, Types: map[string]string{}}
			}
		}
	}
	return &TableSchema{}
}

func inferFromCreate(src string, toks []token) *TableSchema {
	for i := range toks {
		if !toks[i].isKeyword("CREATE") {
			continue
		}
		j := i + 1
		if keywordsAt(toks, j, "OR", "REPLACE") {
			j += 2
		}
		if keywordsAt(toks, j, "TEMP") || keywordsAt(toks, j, "TEMPORARY") {
			j++
		}
		if !keywordsAt(toks, j, "TABLE") {
			continue
		}
		j++
		if keywordsAt(toks, j, "IF", "NOT", "EXISTS") {
			j += 3
		}

		name, next, ok := readName(toks, j)
		if !ok || next >= len(toks) || !toks[next].isPunct("(") {
			continue
		}
		closing := matchParen(toks, next)
		if closing < 0 {
			continue
		}

		schema := &TableSchema{Table: name, Types: map[string]string{}}
		for _, frag := range splitTopLevel(toks[next+1 : closing]) {
			col, typ, ok := parseColumn(src, frag)
			if !ok {
				continue
			}
			if _, dup := schema.Types[col]; dup {
				continue
			}
			schema.Columns = append(schema.Columns, col)
			schema.Types[col] = typ
		}
		return schema
	}
	return nil
}

func keywordsAt(toks []token, at int, kws ...string) bool {
	if at+len(kws) > len(toks) {
		return false
	}
	for k, kw := range kws {
		if !toks[at+k].isKeyword(kw) {
			return false
		}
	}
	return true
}

// readName reads a possibly qualified, possibly quoted name starting at
// toks[at]. It returns the name with quotes removed and the index of the first
// token after it.
func readName(toks []token, at int) (string, int, bool) {
	var parts []string
	i := at
	for i < len(toks) && (toks[i].kind == tokIdent || toks[i].kind == tokQuoted) {
		parts = append(parts, toks[i].text)
		i++
		if i+1 < len(toks) && toks[i].isPunct(".") {
			i++
			continue
		}
		break
	}
	if len(parts) == 0 {
		return "", at, false
	}
	return strings.Join(parts, "."), i, true
}

// matchParen returns the index of the ")" closing the "(" at toks[open], or -1.
func matchParen(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].isPunct("("):
			depth++
		case toks[i].isPunct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits toks on commas that are not nested in parentheses.
func splitTopLevel(toks []token) [][]token {
	var (
		parts [][]token
		depth int
		start int
	)
	for i, t := range toks {
		switch {
		case t.isPunct("("):
			depth++
		case t.isPunct(")"):
			if depth > 0 {
				depth--
			}
		case t.isPunct(",") && depth == 0:
			parts = append(parts, toks[start:i])
			start = i + 1
		}
	}
	return append(parts, toks[start:])
}

// parseColumn reads "name type..." from a column fragment. The type is the run
// of words, numbers and parenthesized groups after the name, taken verbatim
// from src. Fragments without a type, and table constraints, are rejected.
func parseColumn(src string, frag []token) (string, string, bool) {
	if len(frag) < 2 {
		return "", "", false
	}
	first := frag[0]
	switch first.kind {
	case tokIdent:
		if constraintKeywords[strings.ToUpper(first.text)] {
			return "", "", false
		}
	case tokQuoted:
	default:
		return "", "", false
	}
	if frag[1].kind != tokIdent {
		return "", "", false
	}

	end := frag[1].end
	for i := 1; i < len(frag); i++ {
		t := frag[i]
		if t.kind == tokIdent || t.kind == tokNumber || t.kind == tokQuoted {
			end = t.end
			continue
		}
		if t.isPunct("(") {
			closing := matchParen(frag, i)
			if closing < 0 {
				break
			}
			end = frag[closing].end
			i = closing
			continue
		}
		break
	}
	return first.text, strings.TrimSpace(src[frag[1].start:end]), true
}

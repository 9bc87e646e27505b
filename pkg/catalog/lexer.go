package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokQuoted
	tokString
	tokNumber
	tokPunct
)

// token is a lexical unit of SQL text. start and end are byte offsets into
// the scanned text; text is the unquoted value for quoted identifiers.
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}

func (t token) isKeyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (t token) isPunct(p string) bool {
	return t.kind == tokPunct && t.text == p
}

// lex splits src into tokens. Whitespace, line comments and block comments are
// dropped. Unterminated literals and comments run to the end of src.
func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case strings.HasPrefix(src[i:], "--"):
			if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
				i += nl + 1
			} else {
				i = len(src)
			}

		case strings.HasPrefix(src[i:], "/*"):
			if end := strings.Index(src[i+2:], "*/"); end >= 0 {
				i += 2 + end + 2
			} else {
				i = len(src)
			}

		case r == '\'':
			end := scanQuoted(src, i, '\'')
			toks = append(toks, token{kind: tokString, text: src[i:end], start: i, end: end})
			i = end

		case r == '"' || r == '`':
			quote := string(r)
			end := scanQuoted(src, i, quote[0])
			inner := strings.TrimSuffix(src[i+1:end], quote)
			toks = append(toks, token{kind: tokQuoted, text: strings.ReplaceAll(inner, quote+quote, quote), start: i, end: end})
			i = end

		case r == '_' || unicode.IsLetter(r):
			end := i + size
			for end < len(src) {
				r2, s2 := utf8.DecodeRuneInString(src[end:])
				if r2 != '_' && r2 != '$' && !unicode.IsLetter(r2) && !unicode.IsDigit(r2) {
					break
				}
				end += s2
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:end], start: i, end: end})
			i = end

		case unicode.IsDigit(r):
			end := i + size
			for end < len(src) && (isDigit(src[end]) || src[end] == '.') {
				end++
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:end], start: i, end: end})
			i = end

		default:
			toks = append(toks, token{kind: tokPunct, text: src[i : i+size], start: i, end: i + size})
			i += size
		}
	}
	return toks
}

// scanQuoted returns the offset just past the literal opened by quote at
// src[start]. A doubled quote character is an escaped quote.
func scanQuoted(src string, start int, quote byte) int {
	i := start + 1
	for i < len(src) {
		if src[i] == quote {
			if i+1 < len(src) && src[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(src)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

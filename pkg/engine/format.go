package engine

import (
	"regexp"
	"strings"
)

var (
	blankRunRE     = regexp.MustCompile(`[\t ]+`)
	newlineRunRE   = regexp.MustCompile(`\n+`)
	indentedLineRE = regexp.MustCompile(`\n\s+`)
)

const (
	maxSingleLineLength = 1000
	maxMultiLineLength  = 2000
)

// NormalizeStatement collapses whitespace in statement and truncates it so it
// can be logged or printed on a report line.
func NormalizeStatement(statement string) string {
	statement = strings.TrimSpace(statement)
	statement = blankRunRE.ReplaceAllString(statement, " ")
	statement = newlineRunRE.ReplaceAllString(statement, "\n")
	statement = indentedLineRE.ReplaceAllString(statement, "\n")

	if !strings.Contains(statement, "\n") {
		if len(statement) > maxSingleLineLength {
			return statement[:maxSingleLineLength] + "..."
		}
		return statement
	}

	if len(statement) > maxMultiLineLength {
		truncated := statement[:maxMultiLineLength]
		if lastNewline := strings.LastIndex(truncated, "\n"); lastNewline > maxMultiLineLength-200 {
			truncated = truncated[:lastNewline]
		}
		return truncated + "\n..."
	}
	return statement
}

const (
	colorBlue    = "\033[34m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorRed     = "\033[31m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorReset   = "\033[0m"
)

// statementColors maps leading keywords to the color used when logging them.
// Order matters: the first matching prefix wins.
var statementColors = []struct {
	prefix string
	color  string
}{
	{"ROLLBACK", colorRed},
	{"SELECT", colorBlue},
	{"WITH", colorBlue},
	{"INSERT", colorGreen},
	{"UPDATE", colorYellow},
	{"DELETE", colorRed},
	{"DROP", colorRed},
	{"BEGIN", colorCyan},
	{"COMMIT", colorCyan},
}

func statementColor(statement string) string {
	upper := strings.ToUpper(strings.TrimSpace(statement))
	for _, c := range statementColors {
		if strings.HasPrefix(upper, c.prefix) {
			return c.color
		}
	}
	return colorMagenta
}

// FormatSQLForLog normalizes statement and wraps it in an ANSI color chosen by
// its leading keyword.
func FormatSQLForLog(statement string) string {
	statement = NormalizeStatement(statement)
	return statementColor(statement) + statement + colorReset
}

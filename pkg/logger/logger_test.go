package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelInfo, false)

	l.Debug("hidden message")
	l.Info("visible message", "file", "a.json")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "file=a.json")
}

func TestError_Attr(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelDebug, false)

	l.GetSlogLogger().Error("failed", Error(errors.New("boom")))

	assert.Contains(t, buf.String(), "boom")
}

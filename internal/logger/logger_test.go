package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production", Level: slog.LevelInfo})

	log.Info("prompt created", "prompt_id", "abc")

	assert.Contains(t, buf.String(), `"msg":"prompt created"`)
	assert.Contains(t, buf.String(), `"prompt_id":"abc"`)
}

func TestNew_ConsoleOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development", Level: slog.LevelDebug})

	log.Debug("saving image", "file", "a b.png")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "saving image")
	assert.Contains(t, out, `file="a b.png"`)
}

func TestConsoleHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatConsole, Level: slog.LevelWarn})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatConsole}).WithComponent("sdapi")

	log.WithGroup("req").Info("call", "op", "txt2img")

	assert.Contains(t, buf.String(), "component=sdapi")
	assert.Contains(t, buf.String(), "req.op=txt2img")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON})

	log.WithError(errors.New("disk full")).Error("save failed")

	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

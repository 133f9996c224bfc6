package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*Logger)
		level string
		msg   string
	}{
		{"debug", func(l *Logger) { l.Debug("lookup", "short_code", "abc123") }, "DEBUG", "lookup"},
		{"info", func(l *Logger) { l.Info("url created", "short_code", "abc123") }, "INFO", "url created"},
		{"warn", func(l *Logger) { l.Warn("cache unavailable", "short_code", "abc123") }, "WARN", "cache unavailable"},
		{"error", func(l *Logger) { l.Error("insert failed", "short_code", "abc123") }, "ERROR", "insert failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(&buf, "debug"))

			entry := decode(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.msg, entry["msg"])
			assert.Equal(t, "abc123", entry["short_code"])
			assert.NotEmpty(t, entry["time"])
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logFunc   func(*Logger)
		shouldLog bool
	}{
		{"debug logs at debug level", "debug", func(l *Logger) { l.Debug("msg") }, true},
		{"debug skipped at info level", "info", func(l *Logger) { l.Debug("msg") }, false},
		{"warn logs at info level", "info", func(l *Logger) { l.Warn("msg") }, true},
		{"info skipped at warn level", "warn", func(l *Logger) { l.Info("msg") }, false},
		{"error logs at error level", "error", func(l *Logger) { l.Error("msg") }, true},
		{"warn skipped at error level", "error", func(l *Logger) { l.Warn("msg") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(New(&buf, tt.level))

			if tt.shouldLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	child := log.With("service", "tinylink").With(123, "skipped", "request_id", "req-1")
	child.Info("request handled")

	entry := decode(t, &buf)
	assert.Equal(t, "tinylink", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	_, hasIntKey := entry["123"]
	assert.False(t, hasIntKey)

	buf.Reset()
	log.Info("parent untouched")
	entry = decode(t, &buf)
	assert.NotContains(t, entry, "service")
}

func TestLogger_ErrorValuesRenderAsMessage(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").Error("store failure", "error", errors.New("database is locked"))

	entry := decode(t, &buf)
	assert.Equal(t, "database is locked", entry["error"])
}

func TestLogger_MarshalErrorDropsEntry(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").Info("message", "channel", make(chan int))
	assert.Empty(t, buf.String())
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithFormat(&buf, "info", "text")

	log.Info("redirect", "short_code", "abc123", "target", "https://example.com/a b")

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, " INFO redirect ")
	assert.Contains(t, line, "short_code=abc123")
	assert.Contains(t, line, `target="https://example.com/a b"`)
	assert.Less(t, strings.Index(line, "short_code="), strings.Index(line, "target="))
}

func TestLogger_ConcurrentChildrenWriteWholeLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.With("worker", n).Info("tick")
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		var entry map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(line), &entry))
	}
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	fallback := New(&buf, "info")

	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := fallback.With("request_id", "req-9")
	ctx := WithContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" info ", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"invalid", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("logfmt"))
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "INFO", Level(999).String())
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.False(t, log.Enabled(LevelWarn))
	assert.True(t, log.Enabled(LevelError))
	log.Error("discarded")
}

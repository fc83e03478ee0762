package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, Config{Level: "info", Format: "json"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	FromContext(ctx, base).Info("forwarded")

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Equal(t, "req-42", RequestID(ctx))
}

func TestFromContext_WithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, Config{Format: "text"})

	FromContext(context.Background(), base).Info("plain")

	assert.NotContains(t, buf.String(), "request_id")
}

func TestWriterFor_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "proxy.log")
	w, err := writerFor(Config{Output: "file", FilePath: path, MaxSizeMB: 1})
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWriterFor_Errors(t *testing.T) {
	_, err := writerFor(Config{Output: "file"})
	assert.Error(t, err)

	_, err = writerFor(Config{Output: "syslog"})
	assert.Error(t, err)
}

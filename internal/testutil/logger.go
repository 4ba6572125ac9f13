// Package testutil holds helpers shared across package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dtroode/userdir-server/internal/logger"
)

// MakeNoopLogger returns a logger that drops every record.
func MakeNoopLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, int(slog.LevelError), "text")
}

// LogBuffer collects JSON log lines written by concurrent goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Records decodes each captured line.
func (b *LogBuffer) Records(t testing.TB) []map[string]any {
	t.Helper()

	b.mu.Lock()
	data := bytes.Clone(b.buf.Bytes())
	b.mu.Unlock()

	var records []map[string]any
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		records = append(records, rec)
	}
	return records
}

// MakeCaptureLogger returns a debug level JSON logger and the buffer it
// writes to.
func MakeCaptureLogger() (*logger.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return logger.NewWithWriter(buf, int(slog.LevelDebug), "json"), buf
}

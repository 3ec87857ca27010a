package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: InfoLevel, Output: &buf})

	l.Debug("hidden")
	l.Info("optimized", "method", "run", "changes", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO: optimized method=run changes=3")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: DebugLevel, JSONOutput: true, Output: &buf})

	l.Warn("parse failed", "file", "A.java", "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "parse failed", entry["message"])
	assert.Equal(t, "A.java", entry["file"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: ErrorLevel, Output: &buf})
	l.Warn("quiet")
	assert.Empty(t, buf.String())

	l.Error("loud", "odd")
	assert.Contains(t, buf.String(), "ERROR: loud odd")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	assert.Equal(t, "UNKNOWN", silentLevel.String())
}

package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warn", "stage", "time")
	Error("shown error", errors.New("boom"), "code", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown warn stage=time")
	assert.Contains(t, out, "[ERROR] shown error err=boom code=7")
}

func TestFormatKVsQuotesSpaces(t *testing.T) {
	assert.Equal(t, ` input="two words" n=3`, formatKVs("input", "two words", "n", 3))
	assert.Equal(t, " a=1", formatKVs("a", 1, "dangling"))
	assert.Equal(t, "", formatKVs(42, "not a key"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  Level
		known bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		require.Equal(t, tt.known, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

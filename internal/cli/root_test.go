package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ducktape/internal/config"
	"ducktape/internal/pipeline"
)

// setup fixes the clock and environment and returns a config path.
func setup(t *testing.T) string {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = orig })

	t.Setenv(config.EnvProvider, "")
	t.Setenv(config.EnvTimezone, "UTC")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvListen, "")
	return filepath.Join(t.TempDir(), "config.yaml")
}

func run(t *testing.T, cfgPath string, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommand(t *testing.T) {
	cfgPath := setup(t)

	out, _, err := run(t, cfgPath, nil, "parse", "create an event called Team Meeting tonight at 7pm")
	require.NoError(t, err)
	assert.Equal(t, `ducktape calendar create "Team Meeting" 2026-10-14 19:00 20:00 "Calendar"`+"\n", out)

	out, _, err = run(t, cfgPath, nil, "parse", "--calendar", "Home", "schedule", "a", "meeting", "called", "Review", "at", "3:30pm")
	require.NoError(t, err)
	assert.Equal(t, `ducktape calendar create "Review" 2026-10-14 15:30 16:30 "Home"`+"\n", out)
}

func TestParseStdinAndHints(t *testing.T) {
	cfgPath := setup(t)

	out, _, err := run(t, cfgPath, strings.NewReader("remind me to buy milk\n"), "parse")
	require.NoError(t, err)
	assert.Equal(t, `ducktape todo create "buy milk" "Reminders"`+"\n", out)

	out, errOut, err := run(t, cfgPath, nil, "parse", "create an event called Planning")
	require.NoError(t, err)
	assert.Equal(t, `ducktape calendar create "Planning" 2026-10-14 11:00 12:00 "Calendar"`+"\n", out)
	assert.NotEmpty(t, errOut)
}

func TestParseJSON(t *testing.T) {
	cfgPath := setup(t)

	out, _, err := run(t, cfgPath, nil, "parse", "--json", "create a zoom meeting tomorrow at 8am called Important Review")
	require.NoError(t, err)

	var res struct {
		Command string `json:"command"`
		Record  struct {
			Family           string `json:"family"`
			Title            string `json:"title"`
			IsVirtualMeeting bool   `json:"is_virtual_meeting"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, `ducktape calendar create "Important Review" 2026-10-15 08:00 09:00 "Calendar" --zoom`, res.Command)
	assert.Equal(t, "calendar", res.Record.Family)
	assert.Equal(t, "Important Review", res.Record.Title)
}

func TestParsePreview(t *testing.T) {
	cfgPath := setup(t)

	_, errOut, err := run(t, cfgPath, nil, "parse", "--preview", "5",
		`ducktape calendar create "Standup" 2026-10-19 09:00 10:00 "Work" --repeat weekly --count 3`)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Mon 2026-10-19 09:00-10:00 Standup")
	assert.Contains(t, errOut, "Mon 2026-11-02 09:00-10:00 Standup")
	assert.Equal(t, 3, strings.Count(errOut, "Standup"))
}

func TestParseICS(t *testing.T) {
	cfgPath := setup(t)
	dir := t.TempDir()

	_, _, err := run(t, cfgPath, nil, "parse", "--ics", dir, "create an event called Team Meeting tonight at 7pm")
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(dir, "team-meeting-2026-10-14.ics"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "SUMMARY:Team Meeting")
	assert.Contains(t, string(body), "DTSTART:20261014T190000Z")
}

func TestParseErrors(t *testing.T) {
	cfgPath := setup(t)

	_, _, err := run(t, cfgPath, nil, "parse", "create an event called Test; rm -rf /")
	assert.ErrorIs(t, err, pipeline.ErrUnsafeCommand)

	_, _, err = run(t, cfgPath, strings.NewReader("   "), "parse")
	assert.ErrorIs(t, err, pipeline.ErrEmptyInput)

	_, _, err = run(t, cfgPath, nil, "parse", "--provider", "mystery", "lunch")
	assert.Error(t, err)
}

func TestParseWithoutAPIKeyRunsOffline(t *testing.T) {
	cfgPath := setup(t)
	t.Setenv("OPENAI_API_KEY", "")

	out, _, err := run(t, cfgPath, nil, "parse", "--provider", "openai", "remind me to buy milk")
	require.NoError(t, err)
	assert.Equal(t, `ducktape todo create "buy milk" "Reminders"`+"\n", out)
}

func TestParseWithDraftProvider(t *testing.T) {
	cfgPath := setup(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ducktape calendar create \"Standup\" today 07:00 08:00 \"Work\""}}]}`))
	}))
	defer srv.Close()

	yml := "llm:\n  provider: openai\n  base_url: " + srv.URL + "\n  api_key_env: DUCKTAPE_TEST_API_KEY\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0o600))
	t.Setenv("DUCKTAPE_TEST_API_KEY", "test-key")

	out, _, err := run(t, cfgPath, nil, "parse", "create an event called Standup tonight at 7pm with Jane on zoom")
	require.NoError(t, err)
	assert.Equal(t, `ducktape calendar create "Standup" 2026-10-14 19:00 20:00 "Work" --contacts "Jane" --zoom`+"\n", out)
	assert.Equal(t, int32(1), calls.Load())
}

const importICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"X-WR-CALNAME:Work\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20261019T090000Z\r\n" +
	"DTEND:20261019T093000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"RECURRENCE-ID:20261026T090000Z\r\n" +
	"SUMMARY:Standup (moved)\r\n" +
	"DTSTART:20261026T100000Z\r\n" +
	"DTEND:20261026T103000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImportFile(t *testing.T) {
	cfgPath := setup(t)
	path := filepath.Join(t.TempDir(), "work.ics")
	require.NoError(t, os.WriteFile(path, []byte(importICS), 0o600))

	out, errOut, err := run(t, cfgPath, nil, "import", path)
	require.NoError(t, err)
	assert.Equal(t, `ducktape calendar create "Standup" 2026-10-19 09:00 09:30 "Work" --repeat weekly --count 4`+"\n", out)
	assert.Contains(t, errOut, "1 imported, 1 skipped")

	_, _, err = run(t, cfgPath, nil, "import", filepath.Join(t.TempDir(), "missing.ics"))
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	cfgPath := setup(t)

	out, _, err := run(t, cfgPath, nil, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)
	_, err = os.Stat(cfgPath)
	require.NoError(t, err)

	_, _, err = run(t, cfgPath, nil, "config", "init")
	assert.Error(t, err)
	_, _, err = run(t, cfgPath, nil, "config", "init", "--force")
	assert.NoError(t, err)

	yml := "basic_auth:\n  username: duck\n  password: secret\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0o600))
	out, _, err = run(t, cfgPath, nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "timezone: UTC")
	assert.Contains(t, out, "listen: 127.0.0.1:8080")
	assert.NotContains(t, out, "secret")
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := setup(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  purge: sometimes\n"), 0o600))

	_, _, err := run(t, cfgPath, nil, "parse", "remind me to buy milk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.purge")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, 100, cfg.Cache.Size)
	assert.Equal(t, defaultCachePurge, cfg.Cache.Purge)
	assert.NoError(t, cfg.Validate())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("timezone: Asia/Seoul\ncalendars: [Work, Home]\nllm:\n  provider: Grok\ncache:\n  size: 5\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, []string{"Work", "Home"}, cfg.Calendars)
	assert.Equal(t, "grok", cfg.LLM.Provider)
	assert.Equal(t, 30, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Cache.Size)
	assert.Empty(t, cfg.Cache.Purge)
	assert.Equal(t, "Calendar", cfg.DefaultCalendar)
	assert.Equal(t, "info", cfg.LogLevel)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.LogLevel = "loud"
	cfg.Cache.Purge = "every tuesday"
	cfg.LLM.Provider = "mystery"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"timezone", "log_level", "cache.purge", "llm.provider", "basic_auth"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = DefaultConfig()
	cfg.LLM.Provider = "local"
	cfg.LLM.BaseURL = "http://localhost:11434/v1"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvProvider: "OpenAI",
		EnvTimezone: "UTC",
		EnvLogLevel: "DEBUG",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, defaultListen, cfg.Listen)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DUCKTAPE_TEST_KEY=from-file\nDUCKTAPE_TEST_SET=from-file\n"), 0o600))
	t.Setenv("DUCKTAPE_TEST_SET", "from-env")
	t.Setenv("DUCKTAPE_TEST_KEY", "")
	os.Unsetenv("DUCKTAPE_TEST_KEY")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("DUCKTAPE_TEST_KEY"))
	assert.Equal(t, "from-env", os.Getenv("DUCKTAPE_TEST_SET"))
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "ducktape/internal/log"
)

// ProviderNone disables the LLM draft source; requests are parsed offline.
const ProviderNone = "none"

const (
	defaultListen     = "127.0.0.1:8080"
	defaultTimezone   = "Local"
	defaultCalendar   = "Calendar"
	defaultReminders  = "Reminders"
	defaultNotes      = "Notes"
	defaultLogLevel   = "info"
	defaultCacheSize  = 100
	defaultCachePurge = "0 4 * * *"
	defaultTimeout    = 30
	defaultMaxTokens  = 200
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// LLMConfig selects the draft source.
type LLMConfig struct {
	// Provider is "openai", "grok", "deepseek" or "none".
	Provider string `yaml:"provider" json:"provider"`
	// BaseURL and Model override the provider preset.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty"`
	// APIKeyEnv names the environment variable with the key; empty uses
	// the provider's usual variable.
	APIKeyEnv      string  `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`
	TimeoutSeconds int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	Temperature    float64 `yaml:"temperature" json:"temperature"`
	MaxTokens      int     `yaml:"max_tokens" json:"max_tokens"`
}

// Timeout is the draft request timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// CacheConfig sizes the draft cache and schedules its purge.
type CacheConfig struct {
	Size int `yaml:"size" json:"size"`
	// Purge is a standard 5-field cron expression; empty disables it.
	Purge string `yaml:"purge" json:"purge"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the companion API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display zone (e.g. "Asia/Seoul"); "Local" uses
	// the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultCalendar, ReminderList and NotesFolder are used when a
	// request names no target.
	DefaultCalendar string `yaml:"default_calendar" json:"default_calendar"`
	ReminderList    string `yaml:"reminder_list" json:"reminder_list"`
	NotesFolder     string `yaml:"notes_folder" json:"notes_folder"`

	// Calendars are the known calendar names, offered to the LLM and used
	// to match phrases like "on my work calendar".
	Calendars []string `yaml:"calendars" json:"calendars"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	LLM   LLMConfig   `yaml:"llm" json:"llm"`
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// ICSCacheDir keeps fetched remote calendars; empty disables caching.
	ICSCacheDir string `yaml:"ics_cache_dir,omitempty" json:"ics_cache_dir,omitempty"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Calendars: []string{defaultCalendar},
		LLM:       LLMConfig{Provider: ProviderNone},
		Cache:     CacheConfig{Purge: defaultCachePurge},
	}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.DefaultCalendar == "" {
		c.DefaultCalendar = defaultCalendar
	}
	if c.ReminderList == "" {
		c.ReminderList = defaultReminders
	}
	if c.NotesFolder == "" {
		c.NotesFolder = defaultNotes
	}
	if c.Calendars == nil {
		c.Calendars = []string{}
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderNone
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultTimeout
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = defaultCacheSize
	}
}

// Validate reports settings that cannot be used: unknown zones, log
// levels or providers and broken cron expressions.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel))
	}
	switch c.LLM.Provider {
	case ProviderNone, "openai", "grok", "deepseek":
	default:
		if c.LLM.BaseURL == "" {
			errs = append(errs, fmt.Errorf("llm.provider %q: unknown provider needs llm.base_url", c.LLM.Provider))
		}
	}
	if c.Cache.Purge != "" {
		if _, err := cron.ParseStandard(c.Cache.Purge); err != nil {
			errs = append(errs, fmt.Errorf("cache.purge %q: %w", c.Cache.Purge, err))
		}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		errs = append(errs, errors.New("basic_auth: username and password are required"))
	}
	return errors.Join(errs...)
}

// Location loads the display timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Environment overrides, applied after the file is read.
const (
	EnvProvider = "DUCKTAPE_LLM_PROVIDER"
	EnvTimezone = "DUCKTAPE_TIMEZONE"
	EnvLogLevel = "DUCKTAPE_LOG_LEVEL"
	EnvListen   = "DUCKTAPE_LISTEN"
)

// ApplyEnv overrides fields from the environment. getenv is os.Getenv in
// production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for key, dst := range map[string]*string{
		EnvProvider: &c.LLM.Provider,
		EnvTimezone: &c.Timezone,
		EnvLogLevel: &c.LogLevel,
		EnvListen:   &c.Listen,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	c.Normalize()
}

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		appLog.Debug("loaded env file", "path", p)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/ducktape/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ducktape.yaml"
	}
	return filepath.Join(dir, "ducktape", "config.yaml")
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically: a temp file in the same directory
// is written, synced, set to 0600 and renamed over the target.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".ducktape-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

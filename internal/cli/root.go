// Package cli provides the ducktape command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ducktape/internal/cache"
	"ducktape/internal/config"
	"ducktape/internal/draft"
	appLog "ducktape/internal/log"
	"ducktape/internal/pipeline"
)

// nowFunc is the pipeline clock, replaced in tests.
var nowFunc = time.Now

// app holds state shared by subcommands after flags are parsed.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

// NewRootCommand creates the root command for ducktape.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ducktape",
		Short: "Turn plain-language scheduling requests into calendar commands",
		Long: `ducktape turns requests like "lunch with Ann tomorrow at noon" into
normalized calendar, reminder and note commands.

Requests can be drafted by an OpenAI-compatible model first; every draft
then goes through local time, invitee, recurrence and meeting inference
and is validated before it is printed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Path to config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newParseCommand(a),
		newImportCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
	)
	return root
}

// load reads .env, the config file and environment overrides, then
// applies the log level.
func (a *app) load() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		cfg.Normalize()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}
	level, _ := appLog.ParseLevel(cfg.LogLevel)
	appLog.SetLevel(level)
	a.cfg = cfg
	return nil
}

// pipelineOptions overrides config for one invocation.
type pipelineOptions struct {
	provider string
	calendar string
}

// newPipeline wires the draft source, cache and defaults from config.
// The cache is returned so serve can schedule its purge.
func (a *app) newPipeline(po pipelineOptions) (*pipeline.Pipeline, *cache.ResponseCache, error) {
	cfg := a.cfg
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	defaults := pipeline.Defaults{
		Calendar:     cfg.DefaultCalendar,
		ReminderList: cfg.ReminderList,
		NotesFolder:  cfg.NotesFolder,
		Calendars:    cfg.Calendars,
	}
	if po.calendar != "" {
		defaults.Calendar = po.calendar
	}

	rc, err := cache.New(cfg.Cache.Size)
	if err != nil {
		return nil, nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithClock(nowFunc),
		pipeline.WithLocation(loc),
		pipeline.WithDefaults(defaults),
		pipeline.WithCache(rc),
	}

	src, err := a.draftSource(po.provider, defaults)
	if err != nil {
		return nil, nil, err
	}
	if src != nil {
		opts = append(opts, pipeline.WithDraftSource(src))
	}
	return pipeline.New(opts...), rc, nil
}

// draftSource returns nil for the offline provider. A missing API key
// also falls back to offline parsing with a warning.
func (a *app) draftSource(override string, d pipeline.Defaults) (pipeline.DraftSource, error) {
	llm := a.cfg.LLM
	name := llm.Provider
	if override != "" {
		name = strings.ToLower(strings.TrimSpace(override))
	}
	if name == config.ProviderNone {
		return nil, nil
	}

	preset, ok := draft.LookupProvider(name)
	if !ok {
		if llm.BaseURL == "" {
			return nil, fmt.Errorf("unknown provider %q: set llm.base_url", name)
		}
		preset = draft.Provider{Name: name}
	}
	keyEnv := preset.KeyEnv
	if llm.APIKeyEnv != "" {
		keyEnv = llm.APIKeyEnv
	}
	preset.KeyEnv = keyEnv
	var key string
	if keyEnv != "" {
		key = os.Getenv(keyEnv)
	}

	client, err := draft.NewClient(draft.Options{
		Provider:    preset,
		BaseURL:     llm.BaseURL,
		Model:       llm.Model,
		APIKey:      key,
		Temperature: llm.Temperature,
		MaxTokens:   llm.MaxTokens,
		Timeout:     llm.Timeout(),
		Prompt: draft.PromptConfig{
			Calendars:       d.Calendars,
			DefaultCalendar: d.Calendar,
			ReminderList:    d.ReminderList,
			NotesFolder:     d.NotesFolder,
		},
		Now: nowFunc,
	})
	if errors.Is(err, draft.ErrNoAPIKey) {
		appLog.Warn("no API key, parsing offline", "provider", name, "env", keyEnv)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	appLog.Debug("draft source ready", "provider", name)
	return client, nil
}

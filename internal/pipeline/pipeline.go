// Package pipeline turns a scheduling request into a validated command.
//
// An optional DraftSource (usually an LLM) proposes a skeleton command
// for the request. The pipeline then runs a fixed list of stages over the
// skeleton and the original text: verb normalization, time resolution,
// entity extraction, recurrence, modality and validation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ducktape/internal/cache"
	appLog "ducktape/internal/log"
	"ducktape/internal/model"
)

// DraftSource proposes a skeleton command for a sanitized request.
type DraftSource interface {
	Draft(ctx context.Context, sanitized string) (string, error)
}

// Defaults are the targets used when a request names none.
type Defaults struct {
	Calendar     string
	ReminderList string
	NotesFolder  string
	// Calendars are the known calendar names, used to match "on my work
	// calendar" to its configured spelling.
	Calendars []string
}

// Env is the state shared by the stages of one invocation.
type Env struct {
	Utterance string
	Draft     string

	// Source is the text the record was built from.
	Source    string
	Canonical bool
	// Text is what the extraction stages scan.
	Text string

	Now      time.Time
	Location *time.Location
	Defaults Defaults

	Hints    []string
	Warnings []error
	Command  string
}

// Today is the current date in the display zone.
func (e *Env) Today() model.CalendarDate {
	return model.DateOf(e.Now)
}

// Result is the outcome of one parse.
type Result struct {
	Command string             `json:"command"`
	Record  model.DraftCommand `json:"record"`
	Hints   []string           `json:"hints,omitempty"`
	Draft   string             `json:"draft,omitempty"`
	Cached  bool               `json:"cached,omitempty"`

	// Warning joins the soft misses behind Hints, such as ErrUnresolvedTime.
	// It is nil when every stage found what it looked for.
	Warning error `json:"-"`
}

// Pipeline is safe for concurrent use; invocations share only the cache.
type Pipeline struct {
	now      func() time.Time
	loc      *time.Location
	source   DraftSource
	cache    *cache.ResponseCache
	defaults Defaults
	stages   []Stage
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock fixes the clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLocation sets the display timezone.
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithDraftSource sets the skeleton provider. Without one, requests are
// handled offline from the text alone.
func WithDraftSource(src DraftSource) Option {
	return func(p *Pipeline) { p.source = src }
}

// WithCache reuses drafts for repeated requests.
func WithCache(c *cache.ResponseCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

func WithDefaults(d Defaults) Option {
	return func(p *Pipeline) { p.defaults = d }
}

// New returns a Pipeline with the default stage order.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		now:    time.Now,
		loc:    time.Local,
		stages: defaultStages(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages lists the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Parse handles one raw request.
//
// Behavior:
//   - input is length checked and sanitized first
//   - shell metacharacters anywhere in the input reject it
//   - requests that already are commands are validated like a draft and
//     skip the draft source
//   - drafts are cached by sanitized input; enhanced results never are
//   - draft source failures wrap ErrUpstream
func (p *Pipeline) Parse(ctx context.Context, input string) (Result, error) {
	text, err := CheckInput(input)
	if err != nil {
		return Result{}, err
	}
	if err := checkUnsafe(text); err != nil {
		return Result{}, err
	}
	if _, canonical := Classify(text); canonical || p.source == nil {
		return p.enhance("", text)
	}

	draft, cached := "", false
	if p.cache != nil {
		draft, cached = p.cache.Get(text)
	}
	if !cached {
		draft, err = p.source.Draft(ctx, text)
		if err != nil {
			appLog.Error("draft source failed", err)
			return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		if p.cache != nil && strings.TrimSpace(draft) != "" {
			p.cache.Put(text, draft)
		}
	}

	res, err := p.enhance(draft, text)
	res.Cached = cached
	return res, err
}

// Enhance runs the stages over a draft command and the original request.
// draft may be empty, in which case the record is built from utterance.
// Enhancing an already complete command yields the same command.
func (p *Pipeline) Enhance(draft, utterance string) (Result, error) {
	text, err := CheckInput(utterance)
	if err != nil {
		return Result{}, err
	}
	return p.enhance(draft, text)
}

func (p *Pipeline) enhance(draft, text string) (Result, error) {
	if err := checkUnsafe(text); err != nil {
		return Result{}, err
	}
	draft = Sanitize(draft)
	if draft != "" {
		if err := ValidateCommand(draft); err != nil {
			return Result{Draft: draft}, err
		}
	} else if _, canonical := Classify(text); canonical {
		if err := ValidateCommand(text); err != nil {
			return Result{}, err
		}
	}

	env := &Env{
		Utterance: text,
		Draft:     draft,
		Now:       p.now().In(p.loc),
		Location:  p.loc,
		Defaults:  p.defaults,
	}
	var cmd model.DraftCommand
	for _, s := range p.stages {
		if err := s.Apply(&cmd, env); err != nil {
			appLog.Debug("stage failed", "stage", s.Name(), "err", err)
			return Result{Record: cmd, Draft: draft, Hints: env.Hints}, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	appLog.Debug("command ready", "family", cmd.Family, "command", env.Command)
	return Result{
		Command: env.Command,
		Record:  cmd,
		Hints:   env.Hints,
		Draft:   draft,
		Warning: errors.Join(env.Warnings...),
	}, nil
}

// Finish renders and validates a record built outside the pipeline, such
// as an imported calendar event. No extraction stage runs.
func (p *Pipeline) Finish(cmd model.DraftCommand) (Result, error) {
	env := &Env{
		Now:      p.now().In(p.loc),
		Location: p.loc,
		Defaults: p.defaults,
	}
	if err := validate(&cmd, env); err != nil {
		return Result{Record: cmd}, fmt.Errorf("validate: %w", err)
	}
	return Result{Command: env.Command, Record: cmd}, nil
}

// Location is the display timezone.
func (p *Pipeline) Location() *time.Location {
	return p.loc
}

// Now is the pipeline clock in the display timezone.
func (p *Pipeline) Now() time.Time {
	return p.now().In(p.loc)
}

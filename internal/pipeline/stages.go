package pipeline

import (
	"ducktape/internal/entity"
	appLog "ducktape/internal/log"
	"ducktape/internal/model"
	"ducktape/internal/recurrence"
	"ducktape/internal/timeexpr"
)

// Stage is one rewrite step of the pipeline. Stages mutate cmd in place
// and run in a fixed order.
type Stage interface {
	Name() string
	Apply(cmd *model.DraftCommand, env *Env) error
}

type stageFunc struct {
	name  string
	apply func(cmd *model.DraftCommand, env *Env) error
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Apply(cmd *model.DraftCommand, env *Env) error { return s.apply(cmd, env) }

func defaultStages() []Stage {
	return []Stage{
		stageFunc{"verb", normalizeVerb},
		stageFunc{"time", resolveTime},
		stageFunc{"entity", extractEntities},
		stageFunc{"recurrence", inferRecurrence},
		stageFunc{"modality", inferModality},
		stageFunc{"validate", validate},
	}
}

// normalizeVerb decides the family and builds the record from the draft
// command, or from the utterance when there is no usable draft. It also
// picks the text the later stages scan: the utterance, or only the
// leftover tokens when the utterance already is a command.
func normalizeVerb(cmd *model.DraftCommand, env *Env) error {
	src := env.Draft
	family, canonical := model.FamilyUnrecognized, false
	if src != "" {
		family, canonical = Classify(src)
	}
	if src == "" || (!canonical && family == model.FamilyUnrecognized) {
		src = env.Utterance
		family, canonical = Classify(src)
	}
	env.Source = src
	env.Canonical = canonical

	switch {
	case canonical && family != model.FamilyUnrecognized:
		*cmd = ParseCommand(src, env.Today())
	case canonical:
		*cmd = model.DraftCommand{}
	default:
		*cmd = model.DraftCommand{Family: family}
		buildSkeleton(cmd, src, env.Defaults)
	}

	env.Text = env.Utterance
	if _, utteranceCanonical := Classify(env.Utterance); utteranceCanonical {
		env.Text = cmd.Residual
	}
	appLog.Debug("verb normalized", "family", cmd.Family, "canonical", canonical, "title", cmd.Title)
	return nil
}

// resolveTime applies the first time expression found in the scan text.
// A clock from the utterance replaces the draft's clock; an anchor alone
// replaces only the date.
func resolveTime(cmd *model.DraftCommand, env *Env) error {
	if cmd.Family != model.FamilyCalendarCreate && cmd.Family != model.FamilyReminderCreate {
		return nil
	}
	m, ok := timeexpr.New(env.Location).Resolve(env.Text, env.Now)
	if ok {
		date := m.Date
		cmd.Date = &date
		if m.HasClock() {
			start, end := m.Start, m.End
			keepEnd := cmd.Start != nil && *cmd.Start == start && cmd.End != nil && start.Before(*cmd.End)
			cmd.Start = &start
			if cmd.Family == model.FamilyCalendarCreate && !keepEnd {
				cmd.End = &end
			}
		}
		cmd.Title = timeexpr.CleanTitle(cmd.Title, m)
		appLog.Debug("time stage", "kind", m.Kind, "date", date, "title", cmd.Title)
	}
	if cmd.Family == model.FamilyCalendarCreate && cmd.Start == nil {
		env.Hints = append(env.Hints, timeexpr.Hint)
		env.Warnings = append(env.Warnings, ErrUnresolvedTime)
		appLog.Debug("time stage", "err", ErrUnresolvedTime)
	}
	return nil
}

func extractEntities(cmd *model.DraftCommand, env *Env) error {
	if cmd.Family != model.FamilyCalendarCreate {
		return nil
	}
	// " to " inside the title ("Trip to London") introduces no one.
	people := timeexpr.ReplaceFold(env.Text, cmd.Title, timeexpr.ReplaceFold(cmd.Title, " to ", " "))
	merged := entity.Merge(cmd.Invitees, cmd.Emails, entity.Extract(people))
	cmd.Invitees, cmd.Emails = merged.Names, merged.Emails
	if cmd.Location == "" {
		if loc, ok := entity.ExtractLocation(env.Text); ok {
			cmd.Location = loc
		}
	}
	appLog.Debug("entity stage", "names", len(cmd.Invitees), "emails", len(cmd.Emails), "location", cmd.Location)
	return nil
}

func inferRecurrence(cmd *model.DraftCommand, env *Env) error {
	if cmd.Family != model.FamilyCalendarCreate {
		return nil
	}
	cmd.Recurrence = recurrence.Apply(cmd.Recurrence, recurrence.Infer(env.Text, env.Today()))
	if r := cmd.Recurrence; r != nil {
		appLog.Debug("recurrence stage", "freq", r.Frequency, "interval", r.Interval, "count", r.Count)
	}
	return nil
}

func inferModality(cmd *model.DraftCommand, env *Env) error {
	if cmd.Family != model.FamilyCalendarCreate || cmd.IsVirtualMeeting {
		return nil
	}
	cmd.IsVirtualMeeting = IsVirtual(env.Text)
	return nil
}

func validate(cmd *model.DraftCommand, env *Env) error {
	env.Command = Render(cmd, env)
	if err := ValidateCommand(env.Command); err != nil {
		return err
	}
	return ValidateRecord(cmd)
}

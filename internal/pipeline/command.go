package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	appLog "ducktape/internal/log"
	"ducktape/internal/model"
	"ducktape/internal/recurrence"
	"ducktape/internal/timeexpr"
)

type token struct {
	text   string
	quoted bool
}

// tokenize splits a command line on whitespace. Double-quoted runs are one
// token; inside them a backslash escapes the next character. A token is
// marked quoted when it opens with a quote, so --flag="a b" stays a flag.
func tokenize(s string) []token {
	var (
		out     []token
		cur     strings.Builder
		inQuote bool
		quoted  bool
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 || quoted {
			out = append(out, token{text: cur.String(), quoted: quoted})
		}
		cur.Reset()
		quoted = false
	}
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			if !inQuote && cur.Len() == 0 {
				quoted = true
			}
			inQuote = !inQuote
		case !inQuote && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func (t token) isFlag() bool {
	return !t.quoted && strings.HasPrefix(t.text, "--")
}

// ParseCommand reads a canonical command line into a record. Tokens that
// do not fit the grammar of the family are collected in Residual. Relative
// date words are resolved against today.
func ParseCommand(s string, today model.CalendarDate) model.DraftCommand {
	toks := tokenize(s)
	i := 0
	if i < len(toks) && strings.EqualFold(toks[i].text, "ducktape") {
		i++
	}
	var cmd model.DraftCommand
	if i < len(toks) {
		cmd.Family = familyOfNoun(toks[i].text)
		i++
	}
	if i < len(toks) {
		switch strings.ToLower(toks[i].text) {
		case "create", "add", "new":
			i++
		}
	}

	var positional []token
	for i < len(toks) {
		t := toks[i]
		i++
		if !t.isFlag() {
			positional = append(positional, t)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(t.text, "--"), "=")
		name = strings.ToLower(name)
		if boolFlags[name] {
			applyFlag(&cmd, name, "", today)
			continue
		}
		if !hasValue && i < len(toks) && !toks[i].isFlag() {
			value = toks[i].text
			i++
		}
		applyFlag(&cmd, name, value, today)
	}

	var residual []string
	switch cmd.Family {
	case model.FamilyCalendarCreate:
		residual = assignCalendar(&cmd, positional, today)
	case model.FamilyReminderCreate:
		residual = assignReminder(&cmd, positional, today)
	case model.FamilyNoteCreate:
		residual = assignNote(&cmd, positional)
	default:
		for _, t := range positional {
			residual = append(residual, t.text)
		}
	}
	cmd.Residual = strings.Join(residual, " ")
	return cmd
}

var boolFlags = map[string]bool{"zoom": true, "virtual": true}

func applyFlag(cmd *model.DraftCommand, name, value string, today model.CalendarDate) {
	value = strings.TrimSpace(value)
	rec := func() *model.RecurrenceDescriptor {
		if cmd.Recurrence == nil {
			cmd.Recurrence = &model.RecurrenceDescriptor{Interval: 1}
		}
		return cmd.Recurrence
	}

	switch name {
	case "zoom", "virtual":
		cmd.IsVirtualMeeting = true
	case "email", "emails":
		cmd.Emails = append(cmd.Emails, splitList(value)...)
	case "contacts", "contact", "invite", "attendees":
		cmd.Invitees = append(cmd.Invitees, splitList(value)...)
	case "location":
		cmd.Location = value
	case "calendar", "list", "lists", "folder":
		cmd.Target = value
	case "content", "body":
		cmd.Content = value
	case "repeat", "recurring", "recurrence", "recur", "freq":
		if f, ok := model.ParseFrequency(value); ok {
			rec().Frequency = f
		}
	case "interval":
		if n, ok := parseCount(value); ok {
			rec().Interval = n
		}
	case "count":
		if n, ok := parseCount(value); ok {
			rec().Count = n
		}
	case "until":
		if d, ok := recurrence.ParseDate(value, today); ok {
			rec().EndDate = &d
		}
	case "days", "byday":
		for _, code := range splitList(value) {
			if wd, ok := model.ParseWeekdayCode(code); ok {
				r := rec()
				r.DaysOfWeek = append(r.DaysOfWeek, wd)
			}
		}
	default:
		appLog.Debug("ignoring unknown flag", "flag", name, "value", value)
	}
}

// parseCount accepts non-negative integers; overflowing values saturate so
// range checks still see them as too large.
func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return int(^uint(0) >> 1), true
	}
	return n, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dateToken(t token, today model.CalendarDate) (model.CalendarDate, bool) {
	if t.quoted {
		return model.CalendarDate{}, false
	}
	switch strings.ToLower(t.text) {
	case "today", "tonight":
		return today, true
	case "tomorrow":
		return today.AddDays(1), true
	}
	d, err := model.ParseCalendarDate(t.text)
	return d, err == nil
}

func clockToken(t token) (model.ClockTime, bool) {
	if t.quoted || !strings.ContainsAny(strings.ToLower(t.text), ":apm") {
		return model.ClockTime{}, false
	}
	return timeexpr.ParseClock(t.text, "")
}

// assignCalendar maps "<title> <date> <start> <end> <target>" positionals.
// A date repeated between the start and end times is skipped.
func assignCalendar(cmd *model.DraftCommand, pos []token, today model.CalendarDate) []string {
	var residual []string
	for idx, t := range pos {
		if idx == 0 {
			if _, isDate := dateToken(t, today); !isDate {
				if _, isClock := clockToken(t); !isClock {
					cmd.Title = t.text
					continue
				}
			}
		}
		if d, ok := dateToken(t, today); ok {
			switch {
			case cmd.Date == nil && cmd.Start == nil:
				cmd.Date = &d
			case cmd.Start != nil && cmd.End == nil:
			default:
				residual = append(residual, t.text)
			}
			continue
		}
		if c, ok := clockToken(t); ok {
			switch {
			case cmd.Start == nil:
				cmd.Start = &c
			case cmd.End == nil:
				cmd.End = &c
			default:
				residual = append(residual, t.text)
			}
			continue
		}
		if cmd.Target == "" {
			cmd.Target = t.text
			continue
		}
		residual = append(residual, t.text)
	}
	return residual
}

// assignReminder maps "<title> [<date> <time>] <list>" positionals.
func assignReminder(cmd *model.DraftCommand, pos []token, today model.CalendarDate) []string {
	var residual []string
	for idx, t := range pos {
		if idx == 0 {
			cmd.Title = t.text
			continue
		}
		if d, ok := dateToken(t, today); ok && cmd.Date == nil {
			cmd.Date = &d
			continue
		}
		if c, ok := clockToken(t); ok && cmd.Start == nil {
			cmd.Start = &c
			continue
		}
		if cmd.Target == "" {
			cmd.Target = t.text
			continue
		}
		residual = append(residual, t.text)
	}
	return residual
}

// assignNote maps "<title> <folder>" positionals.
func assignNote(cmd *model.DraftCommand, pos []token) []string {
	var residual []string
	for idx, t := range pos {
		switch {
		case idx == 0:
			cmd.Title = t.text
		case cmd.Target == "":
			cmd.Target = t.text
		default:
			residual = append(residual, t.text)
		}
	}
	return residual
}

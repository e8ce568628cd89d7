package ics

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"ducktape/internal/model"
	"ducktape/internal/recurrence"
)

const (
	productID   = "-//ducktape//ducktape 1.0//EN"
	localLayout = "20060102T150405"
)

// ExportOptions controls how a command is written as a VEVENT.
type ExportOptions struct {
	// Location is the display zone; DTSTART/DTEND carry it as TZID.
	Location *time.Location
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
	// UID overrides the generated UID.
	UID string
}

// Export writes a dated calendar command as a one-event calendar.
func Export(cmd model.DraftCommand, opts ExportOptions) (string, error) {
	if cmd.Family != model.FamilyCalendarCreate {
		return "", errors.New("ics: only calendar commands can be exported")
	}
	if cmd.Date == nil || cmd.Start == nil {
		return "", errors.New("ics: command has no date or start time")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	uid := opts.UID
	if uid == "" {
		uid = uuid.NewString() + "@ducktape"
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	if cmd.Target != "" {
		cal.SetXWRCalName(cmd.Target)
	}

	start, end := recurrence.Bounds(cmd, loc)
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(now.UTC())
	setZoned(ev, ical.ComponentPropertyDtStart, start, loc)
	setZoned(ev, ical.ComponentPropertyDtEnd, end, loc)
	ev.SetSummary(titleOr(cmd.Title))
	if cmd.Location != "" {
		ev.SetLocation(cmd.Location)
	}
	for _, e := range cmd.Emails {
		ev.AddProperty(ical.ComponentPropertyAttendee, "mailto:"+e)
	}
	if len(cmd.Invitees) > 0 {
		ev.SetDescription("Invitees: " + strings.Join(cmd.Invitees, ", "))
	}
	if cmd.Recurrence != nil && cmd.Recurrence.Frequency != model.FrequencyNone {
		rule, err := recurrence.RRuleString(*cmd.Recurrence, start)
		if err != nil {
			return "", err
		}
		ev.AddRrule(rule)
	}
	if cmd.IsVirtualMeeting {
		ev.SetProperty(ical.ComponentProperty(ZoomProperty), "TRUE")
	}
	return cal.Serialize(), nil
}

// setZoned writes a local time with TZID, or a UTC time for UTC.
func setZoned(ev *ical.VEvent, p ical.ComponentProperty, t time.Time, loc *time.Location) {
	if loc == time.UTC {
		ev.SetProperty(p, t.UTC().Format(localLayout)+"Z")
		return
	}
	ev.SetProperty(p, t.In(loc).Format(localLayout), &ical.KeyValues{Key: "TZID", Value: []string{loc.String()}})
}

// FileName is the default export file name for cmd, e.g.
// "team-standup-2026-10-14.ics".
func FileName(cmd model.DraftCommand) string {
	name := slug.Make(titleOr(cmd.Title))
	if name == "" {
		name = "event"
	}
	if cmd.Date != nil {
		name += "-" + cmd.Date.String()
	}
	return name + ".ics"
}

func titleOr(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Event"
	}
	return s
}

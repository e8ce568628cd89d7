// Package ics bridges calendar commands and iCalendar data: it exports a
// command as a VEVENT and imports VEVENTs back as commands.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "ducktape/internal/log"
	"ducktape/internal/model"
	"ducktape/internal/recurrence"
)

// ZoomProperty marks events that should be created as video meetings.
const ZoomProperty = "X-DUCKTAPE-ZOOM"

// Event is the part of a VEVENT that maps onto a calendar command.
type Event struct {
	UID      string
	Summary  string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
	Emails   []string
	Names    []string
	Zoom     bool
	Override bool // RECURRENCE-ID is set
	Calendar string
}

// Parse reads every VEVENT of an ICS payload. Broken events are logged
// and skipped.
func Parse(name string, body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", name)
		return nil, fmt.Errorf("ics: parse %s: %w", name, err)
	}

	calName := ""
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == "X-WR-CALNAME" {
			calName = p.Value
		}
	}

	var events []Event
	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve)
		if err != nil {
			appLog.Warn("ics vevent skipped", "source", name, "err", err)
			continue
		}
		ev.Calendar = calName
		events = append(events, ev)
	}
	appLog.Info("ics parse completed", "source", name, "event_count", len(events))
	return events, nil
}

func parseEvent(ve *ical.VEvent) (Event, error) {
	var ev Event
	prop := func(p ical.ComponentProperty) string {
		if v := ve.GetProperty(p); v != nil {
			return v.Value
		}
		return ""
	}

	ev.UID = prop(ical.ComponentPropertyUniqueId)
	if ev.UID == "" {
		return ev, errors.New("missing UID")
	}
	ev.Summary = prop(ical.ComponentPropertySummary)
	ev.Location = prop(ical.ComponentPropertyLocation)
	ev.RawRRule = prop(ical.ComponentPropertyRrule)
	ev.Zoom = strings.EqualFold(prop(ical.ComponentProperty(ZoomProperty)), "TRUE")
	ev.Override = ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")) != nil

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("DTSTART: %w", err)
	}
	ev.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		ev.End = end
	}
	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		if vs := dt.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			ev.AllDay = true
		}
		if !strings.Contains(dt.Value, "T") {
			ev.AllDay = true
		}
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tz := ""
		if vs := p.ICalParameters["TZID"]; len(vs) > 0 {
			tz = vs[0]
		}
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, tz); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		addr := strings.TrimSpace(p.Value)
		if strings.HasPrefix(strings.ToLower(addr), "mailto:") {
			ev.Emails = append(ev.Emails, addr[len("mailto:"):])
			continue
		}
		if cn := p.ICalParameters["CN"]; len(cn) > 0 && cn[0] != "" {
			ev.Names = append(ev.Names, cn[0])
		}
	}
	return ev, nil
}

// Command converts an event into a calendar command in the display zone.
// All-day events keep their date and get a 09:00 start; the returned
// command is not validated.
func (ev Event) Command(loc *time.Location) (model.DraftCommand, error) {
	if loc == nil {
		loc = time.Local
	}
	start := ev.Start.In(loc)
	cmd := model.DraftCommand{
		Family:           model.FamilyCalendarCreate,
		Title:            ev.Summary,
		Target:           ev.Calendar,
		Location:         ev.Location,
		Emails:           append([]string(nil), ev.Emails...),
		Invitees:         append([]string(nil), ev.Names...),
		IsVirtualMeeting: ev.Zoom,
	}

	if ev.AllDay {
		date := model.CalendarDate{Year: ev.Start.Year(), Month: ev.Start.Month(), Day: ev.Start.Day()}
		cmd.Date = &date
		s := model.ClockTime{Hour: 9}
		cmd.Start = &s
	} else {
		date := model.DateOf(start)
		cmd.Date = &date
		s := model.ClockOf(start)
		cmd.Start = &s
		if !ev.End.IsZero() {
			e := model.ClockOf(ev.End.In(loc))
			cmd.End = &e
		}
	}

	if ev.RawRRule != "" {
		r, err := recurrence.FromRRule(ev.RawRRule, loc)
		if err != nil {
			return cmd, err
		}
		cmd.Recurrence = &r
	}
	return cmd, nil
}

// parseICSTime reads an EXDATE value. tz is the TZID parameter, if any.
func parseICSTime(v, tz string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	loc := time.Local
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommandFamily selects the output grammar of a command.
type CommandFamily int

const (
	FamilyUnrecognized CommandFamily = iota
	FamilyCalendarCreate
	FamilyReminderCreate
	FamilyNoteCreate
)

func (f CommandFamily) String() string {
	switch f {
	case FamilyCalendarCreate:
		return "calendar"
	case FamilyReminderCreate:
		return "todo"
	case FamilyNoteCreate:
		return "note"
	default:
		return "unrecognized"
	}
}

func (f CommandFamily) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *CommandFamily) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "calendar":
		*f = FamilyCalendarCreate
	case "todo", "reminder":
		*f = FamilyReminderCreate
	case "note":
		*f = FamilyNoteCreate
	default:
		*f = FamilyUnrecognized
	}
	return nil
}

// ClockTime is a wall-clock time of day, always 24-hour.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// NewClockTime returns ok=false when hour or minute is out of range.
func NewClockTime(hour, minute int) (ClockTime, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, false
	}
	return ClockTime{Hour: hour, Minute: minute}, true
}

// ParseClockTime parses "H:MM" or "HH:MM" in 24-hour form.
func ParseClockTime(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || h == "" || len(h) > 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	c, valid := NewClockTime(hour, minute)
	if !valid {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return c, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// AddHour returns c plus one hour on the 24-hour clock (23:30 -> 00:30).
func (c ClockTime) AddHour() ClockTime {
	return ClockTime{Hour: (c.Hour + 1) % 24, Minute: c.Minute}
}

// Before reports whether c is strictly earlier in the day than o.
func (c ClockTime) Before(o ClockTime) bool {
	if c.Hour != o.Hour {
		return c.Hour < o.Hour
	}
	return c.Minute < o.Minute
}

// ClockOf returns the wall-clock part of t.
func ClockOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// CalendarDate is an absolute date with no zone attached.
type CalendarDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseCalendarDate parses YYYY-MM-DD.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// In returns midnight of d in loc.
func (d CalendarDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At combines d with a clock time in loc.
func (d CalendarDate) At(c ClockTime, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// AddDays normalizes through time.Date so month and year boundaries roll.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Before reports whether d is strictly earlier than o.
func (d CalendarDate) Before(o CalendarDate) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDate) UnmarshalText(b []byte) error {
	parsed, err := ParseCalendarDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Frequency of a recurring calendar entry. FrequencyNone means unset.
type Frequency int

const (
	FrequencyNone Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
)

func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	case FrequencyYearly:
		return "yearly"
	default:
		return ""
	}
}

// ParseFrequency accepts the rendered names plus a few spoken synonyms.
func ParseFrequency(s string) (Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return FrequencyDaily, true
	case "weekly", "week":
		return FrequencyWeekly, true
	case "monthly", "month":
		return FrequencyMonthly, true
	case "yearly", "year", "annually", "annual":
		return FrequencyYearly, true
	}
	return FrequencyNone, false
}

func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(b []byte) error {
	parsed, _ := ParseFrequency(string(b))
	*f = parsed
	return nil
}

// RecurrenceDescriptor describes how a calendar entry repeats.
// Interval is at least 1; Count of 0 means no occurrence limit.
type RecurrenceDescriptor struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval"`
	EndDate    *CalendarDate  `json:"end_date,omitempty"`
	Count      int            `json:"count,omitempty"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
}

// Weekday abbreviations used by the --days flag, indexed by time.Weekday.
var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// WeekdayCode returns the two-letter code for d.
func WeekdayCode(d time.Weekday) string {
	return weekdayCodes[int(d)%7]
}

// ParseWeekdayCode is the inverse of WeekdayCode; it also accepts
// day-name prefixes such as "mon" or "thursday".
func ParseWeekdayCode(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, false
	}
	names := [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	for i, name := range names {
		if strings.HasPrefix(name, s) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// DraftCommand is the structured record of one command as the pipeline
// stages fill it in.
type DraftCommand struct {
	Family           CommandFamily         `json:"family"`
	Title            string                `json:"title"`
	Date             *CalendarDate         `json:"date,omitempty"`
	Start            *ClockTime            `json:"start_time,omitempty"`
	End              *ClockTime            `json:"end_time,omitempty"`
	Target           string                `json:"target,omitempty"`
	Invitees         []string              `json:"invitees,omitempty"`
	Emails           []string              `json:"emails,omitempty"`
	Location         string                `json:"location,omitempty"`
	Content          string                `json:"content,omitempty"`
	Recurrence       *RecurrenceDescriptor `json:"recurrence,omitempty"`
	IsVirtualMeeting bool                  `json:"is_virtual_meeting"`

	// Residual holds skeleton tokens that did not fit the grammar.
	Residual string `json:"-"`
}

// HasTime reports whether a start time has been resolved.
func (c *DraftCommand) HasTime() bool {
	return c.Start != nil
}

// Occurrence is a single concrete instance of a command after recurrence
// expansion, in the display timezone.
type Occurrence struct {
	// InstanceKey identifies one instance of a recurring entry; it is
	// derived from the local start time.
	InstanceKey string `json:"instance_key"`

	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

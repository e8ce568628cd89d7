package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ducktape/internal/model"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want error
	}{
		{"plain", `ducktape calendar create "A" 2026-10-14 09:00 10:00 "Work"`, nil},
		{"semicolon", `ducktape calendar create "A; rm -rf /" 2026-10-14 09:00 10:00 "Work"`, ErrUnsafeCommand},
		{"pipe", `ducktape note create "a|b" "Notes"`, ErrUnsafeCommand},
		{"and", `ducktape todo create "x" "y" && reboot`, ErrUnsafeCommand},
		{"backtick", "ducktape todo create \"`id`\" \"y\"", ErrUnsafeCommand},
		{"interval at limit", `ducktape calendar create "A" 2026-10-14 09:00 10:00 "W" --repeat daily --interval 100`, nil},
		{"interval over", `ducktape calendar create "A" 2026-10-14 09:00 10:00 "W" --repeat daily --interval 101`, ErrOutOfRange},
		{"interval with equals", `ducktape calendar create "A" 2026-10-14 09:00 10:00 "W" --interval=250`, ErrOutOfRange},
		{"count over", `ducktape calendar create "A" 2026-10-14 09:00 10:00 "W" --repeat daily --count 501`, ErrOutOfRange},
		{"count huge", `ducktape calendar create "A" 2026-10-14 09:00 10:00 "W" --count 99999999999999999999`, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.cmd)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateRecord(t *testing.T) {
	ok := model.DraftCommand{
		Family:     model.FamilyCalendarCreate,
		Title:      "Sync",
		Emails:     []string{"a@b.io"},
		Recurrence: &model.RecurrenceDescriptor{Frequency: model.FrequencyDaily, Interval: 100, Count: 500},
	}
	assert.NoError(t, ValidateRecord(&ok))

	bad := ok
	bad.Recurrence = &model.RecurrenceDescriptor{Frequency: model.FrequencyDaily, Interval: 101}
	assert.ErrorIs(t, ValidateRecord(&bad), ErrOutOfRange)

	bad.Recurrence = &model.RecurrenceDescriptor{Frequency: model.FrequencyDaily, Interval: 1, Count: 501}
	assert.ErrorIs(t, ValidateRecord(&bad), ErrOutOfRange)

	bad = ok
	bad.Start = &model.ClockTime{Hour: 24}
	assert.ErrorIs(t, ValidateRecord(&bad), ErrOutOfRange)

	bad = ok
	bad.Emails = []string{"not-an-address"}
	assert.ErrorIs(t, ValidateRecord(&bad), ErrOutOfRange)

	bad = ok
	bad.Location = "HQ; drop table"
	assert.ErrorIs(t, ValidateRecord(&bad), ErrUnsafeCommand)

	bad = ok
	bad.Title = "bell\x07"
	assert.ErrorIs(t, ValidateRecord(&bad), ErrUnsafeCommand)
}

func TestRender(t *testing.T) {
	env := &Env{Now: time.Date(2026, 10, 14, 23, 15, 0, 0, time.UTC)}
	date := model.CalendarDate{Year: 2026, Month: time.November, Day: 2}
	start := model.ClockTime{Hour: 14, Minute: 30}
	until := model.CalendarDate{Year: 2026, Month: time.December, Day: 31}

	full := &model.DraftCommand{
		Family:   model.FamilyCalendarCreate,
		Title:    `Say "hi"`,
		Date:     &date,
		Start:    &start,
		Target:   "Work",
		Invitees: []string{"Ann", "Ben"},
		Emails:   []string{"c@d.io"},
		Location: "Room 4",
		Recurrence: &model.RecurrenceDescriptor{
			Frequency:  model.FrequencyWeekly,
			Interval:   2,
			EndDate:    &until,
			Count:      4,
			DaysOfWeek: []time.Weekday{time.Tuesday, time.Thursday},
		},
		IsVirtualMeeting: true,
	}
	assert.Equal(t,
		`ducktape calendar create "Say \"hi\"" 2026-11-02 14:30 15:30 "Work" --email "c@d.io" --contacts "Ann,Ben" `+
			`--location "Room 4" --repeat weekly --interval 2 --until 2026-12-31 --count 4 --days TU,TH --zoom`,
		Render(full, env))

	// Late at night the default start rolls into tomorrow.
	bare := &model.DraftCommand{Family: model.FamilyCalendarCreate}
	assert.Equal(t, `ducktape calendar create "Event" 2026-10-15 00:00 01:00 "Calendar"`, Render(bare, env))
	assert.Nil(t, bare.Start)
	assert.Nil(t, bare.Date)

	today := model.CalendarDate{Year: 2026, Month: time.October, Day: 14}
	assert.Equal(t, `ducktape calendar create "Event" 2026-10-15 00:00 01:00 "Calendar"`,
		Render(&model.DraftCommand{Family: model.FamilyCalendarCreate, Date: &today}, env))
	late := model.ClockTime{Hour: 23, Minute: 30}
	assert.Equal(t, `ducktape calendar create "Event" 2026-10-14 23:30 00:30 "Calendar"`,
		Render(&model.DraftCommand{Family: model.FamilyCalendarCreate, Date: &today, Start: &late}, env))
	assert.Equal(t, `ducktape calendar create "Event" 2026-11-02 00:00 01:00 "Calendar"`,
		Render(&model.DraftCommand{Family: model.FamilyCalendarCreate, Date: &date}, env))

	env.Defaults = Defaults{Calendar: "Home", ReminderList: "Errands", NotesFolder: "Journal"}
	assert.Contains(t, Render(bare, env), `"Home"`)
	assert.Equal(t, `ducktape todo create "Reminder" "Errands"`, Render(&model.DraftCommand{Family: model.FamilyReminderCreate}, env))
	assert.Equal(t, `ducktape todo create "x" 2026-11-02 09:00 "Errands"`,
		Render(&model.DraftCommand{Family: model.FamilyReminderCreate, Title: "x", Date: &date}, env))
	assert.Equal(t, `ducktape note create "Note" "Journal"`, Render(&model.DraftCommand{Family: model.FamilyNoteCreate}, env))

	env.Source = "weather\ntoday"
	assert.Equal(t, "ducktape weather today", Render(&model.DraftCommand{}, env))
}

func TestBuildSkeleton(t *testing.T) {
	d := Defaults{Calendars: []string{"Work", "Family"}}
	tests := []struct {
		family  model.CommandFamily
		in      string
		title   string
		target  string
		content string
	}{
		{model.FamilyCalendarCreate, "create an event called Dentist at 3pm", "Dentist", "", ""},
		{model.FamilyCalendarCreate, "schedule lunch with Ann tomorrow", "Lunch", "", ""},
		{model.FamilyCalendarCreate, "book a team offsite on my family calendar", "Team offsite", "Family", ""},
		{model.FamilyCalendarCreate, "set up a meeting titled \"Q4 Plan\" every monday", "Q4 Plan", "", ""},
		{model.FamilyReminderCreate, "remind me to pay rent", "pay rent", "", ""},
		{model.FamilyReminderCreate, "add eggs to my todo list", "eggs", "", ""},
		{model.FamilyReminderCreate, "remind me to pack on my travel list", "pack", "travel", ""},
		{model.FamilyNoteCreate, "create a note called Ideas saying go big", "Ideas", "", "go big"},
		{model.FamilyNoteCreate, "jot down the gate code in my work folder", "the gate code", "work", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd := model.DraftCommand{Family: tt.family}
			buildSkeleton(&cmd, tt.in, d)
			assert.Equal(t, tt.title, cmd.Title)
			assert.Equal(t, tt.target, cmd.Target)
			assert.Equal(t, tt.content, cmd.Content)
		})
	}
}

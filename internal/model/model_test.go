package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTimeAddHourWraps(t *testing.T) {
	tests := []struct {
		in   ClockTime
		want ClockTime
	}{
		{ClockTime{9, 0}, ClockTime{10, 0}},
		{ClockTime{22, 15}, ClockTime{23, 15}},
		{ClockTime{23, 30}, ClockTime{0, 30}},
		{ClockTime{0, 0}, ClockTime{1, 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.AddHour(), tt.in.String())
	}
}

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", c.String())

	for _, bad := range []string{"24:00", "12:60", "noon", "1230", "12:5", "123:00"} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestCalendarDate(t *testing.T) {
	d, err := ParseCalendarDate("2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2027-01-01", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))

	_, err = ParseCalendarDate("2026-02-30")
	assert.Error(t, err)

	at := d.At(ClockTime{Hour: 18, Minute: 45}, time.UTC)
	assert.Equal(t, time.Date(2026, 12, 31, 18, 45, 0, 0, time.UTC), at)
}

func TestWeekdayCodes(t *testing.T) {
	assert.Equal(t, "MO", WeekdayCode(time.Monday))
	wd, ok := ParseWeekdayCode("thu")
	require.True(t, ok)
	assert.Equal(t, time.Thursday, wd)
	wd, ok = ParseWeekdayCode("SU")
	require.True(t, ok)
	assert.Equal(t, time.Sunday, wd)
	_, ok = ParseWeekdayCode("x")
	assert.False(t, ok)
}

func TestDraftCommandJSON(t *testing.T) {
	date := CalendarDate{Year: 2026, Month: time.October, Day: 14}
	start := ClockTime{Hour: 19}
	cmd := DraftCommand{
		Family: FamilyCalendarCreate,
		Title:  "Standup",
		Date:   &date,
		Start:  &start,
		Recurrence: &RecurrenceDescriptor{
			Frequency: FrequencyWeekly,
			Interval:  2,
		},
		Residual: "dropped",
	}
	b, err := json.Marshal(cmd)
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `"family":"calendar"`)
	assert.Contains(t, s, `"date":"2026-10-14"`)
	assert.Contains(t, s, `"start_time":"19:00"`)
	assert.Contains(t, s, `"frequency":"weekly"`)
	assert.NotContains(t, s, "dropped")

	var back DraftCommand
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, FamilyCalendarCreate, back.Family)
	assert.Equal(t, date, *back.Date)
	assert.Equal(t, start, *back.Start)
}

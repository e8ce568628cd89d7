package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ducktape/internal/model"
)

var today = model.CalendarDate{Year: 2026, Month: time.October, Day: 14}

func datePtr(y int, m time.Month, d int) *model.CalendarDate {
	return &model.CalendarDate{Year: y, Month: m, Day: d}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Extraction
	}{
		{
			name: "every n weeks",
			text: "team sync every 2 weeks",
			want: Extraction{Frequency: model.FrequencyWeekly, Interval: 2},
		},
		{
			name: "interval out of range is dropped",
			text: "backup every 400 days",
			want: Extraction{Frequency: model.FrequencyDaily},
		},
		{
			name: "large but in-range interval is kept",
			text: "audit every 200 days",
			want: Extraction{Frequency: model.FrequencyDaily, Interval: 200},
		},
		{
			name: "keyword",
			text: "weekly 1:1 with Sam",
			want: Extraction{Frequency: model.FrequencyWeekly},
		},
		{
			name: "annually",
			text: "renew the domain annually",
			want: Extraction{Frequency: model.FrequencyYearly},
		},
		{
			name: "biweekly",
			text: "biweekly retro",
			want: Extraction{Frequency: model.FrequencyWeekly, Interval: 2},
		},
		{
			name: "every other month",
			text: "haircut every other month",
			want: Extraction{Frequency: model.FrequencyMonthly, Interval: 2},
		},
		{
			name: "every weekday",
			text: "standup every weekday at 9am",
			want: Extraction{
				Frequency: model.FrequencyWeekly,
				Days:      []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			},
		},
		{
			name: "day list after every",
			text: "gym every Tue, Thu and Saturday",
			want: Extraction{
				Frequency: model.FrequencyWeekly,
				Days:      []time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
			},
		},
		{
			name: "plural days after on",
			text: "piano on mondays and wednesdays",
			want: Extraction{
				Frequency: model.FrequencyWeekly,
				Days:      []time.Weekday{time.Monday, time.Wednesday},
			},
		},
		{
			name: "a single weekday after on is not a rule",
			text: "dentist on monday at 3pm",
			want: Extraction{},
		},
		{
			name: "every month is not monday",
			text: "rent every month",
			want: Extraction{Frequency: model.FrequencyMonthly},
		},
		{
			name: "until iso date and count",
			text: "daily standup until 2026-12-31 for 30 times",
			want: Extraction{Frequency: model.FrequencyDaily, EndDate: datePtr(2026, 12, 31), Count: 30},
		},
		{
			name: "for n weeks",
			text: "physio every week for 10 weeks",
			want: Extraction{Frequency: model.FrequencyWeekly, Count: 10},
		},
		{
			name: "large count is extracted as is",
			text: "ping daily 900 times",
			want: Extraction{Frequency: model.FrequencyDaily, Count: 900},
		},
		{
			name: "until month day rolls into next year",
			text: "weekly until March 1",
			want: Extraction{Frequency: model.FrequencyWeekly, EndDate: datePtr(2027, 3, 1)},
		},
		{
			name: "nothing",
			text: "coffee with Bob tomorrow",
			want: Extraction{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(tt.text, today))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want model.CalendarDate
		ok   bool
	}{
		{"2027-01-05 at noon", *datePtr(2027, 1, 5), true},
		{"tomorrow", *datePtr(2026, 10, 15), true},
		{"Dec 24th", *datePtr(2026, 12, 24), true},
		{"Mar 1st, 2028", *datePtr(2028, 3, 1), true},
		{"the 3rd of May", *datePtr(2027, 5, 3), true},
		{"15 November", *datePtr(2026, 11, 15), true},
		{"October 14", *datePtr(2026, 10, 14), true},
		{"December", *datePtr(2026, 12, 31), true},
		{"February 2027", *datePtr(2027, 2, 28), true},
		{"Feb 30, 2027", model.CalendarDate{}, false},
		{"Feb 29", *datePtr(2028, 2, 29), true},
		{"whenever", model.CalendarDate{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in, today)
		require.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestApply(t *testing.T) {
	t.Run("does not overwrite", func(t *testing.T) {
		existing := &model.RecurrenceDescriptor{Frequency: model.FrequencyMonthly, Interval: 3, Count: 4}
		got := Apply(existing, Extraction{Frequency: model.FrequencyWeekly, Interval: 2, Count: 9, EndDate: datePtr(2027, 1, 1)})
		require.NotNil(t, got)
		assert.Equal(t, model.FrequencyMonthly, got.Frequency)
		assert.Equal(t, 3, got.Interval)
		assert.Equal(t, 4, got.Count)
		assert.Equal(t, datePtr(2027, 1, 1), got.EndDate)
	})

	t.Run("fills an unset interval", func(t *testing.T) {
		got := Apply(&model.RecurrenceDescriptor{Frequency: model.FrequencyWeekly, Interval: 1}, Extraction{Interval: 2})
		require.NotNil(t, got)
		assert.Equal(t, 2, got.Interval)
	})

	t.Run("days imply weekly", func(t *testing.T) {
		got := Apply(nil, Extraction{Days: []time.Weekday{time.Friday}})
		require.NotNil(t, got)
		assert.Equal(t, model.FrequencyWeekly, got.Frequency)
		assert.Equal(t, 1, got.Interval)
	})

	t.Run("count alone is not a rule", func(t *testing.T) {
		assert.Nil(t, Apply(nil, Extraction{Count: 5}))
	})
}

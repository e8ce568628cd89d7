package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"ducktape/internal/model"
)

var frequencies = map[model.Frequency]rrule.Frequency{
	model.FrequencyDaily:   rrule.DAILY,
	model.FrequencyWeekly:  rrule.WEEKLY,
	model.FrequencyMonthly: rrule.MONTHLY,
	model.FrequencyYearly:  rrule.YEARLY,
}

// rrule weekdays are Monday-first; time.Weekday is Sunday-first.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Option converts d into an rrule option starting at dtstart. The end date
// is inclusive, so Until is the last second of that day in dtstart's zone.
func Option(d model.RecurrenceDescriptor, dtstart time.Time) (rrule.ROption, error) {
	freq, ok := frequencies[d.Frequency]
	if !ok {
		return rrule.ROption{}, errors.New("recurrence: frequency is not set")
	}
	opt := rrule.ROption{
		Freq:     freq,
		Dtstart:  dtstart,
		Interval: max(d.Interval, 1),
		Count:    d.Count,
	}
	if d.EndDate != nil {
		opt.Until = d.EndDate.At(model.ClockTime{Hour: 23, Minute: 59}, dtstart.Location()).Add(59 * time.Second)
	}
	for _, wd := range d.DaysOfWeek {
		opt.Byweekday = append(opt.Byweekday, weekdays[int(wd)%7])
	}
	return opt, nil
}

// NewRule builds an rrule for d anchored at dtstart.
func NewRule(d model.RecurrenceDescriptor, dtstart time.Time) (*rrule.RRule, error) {
	opt, err := Option(d, dtstart)
	if err != nil {
		return nil, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recurrence: build rule: %w", err)
	}
	return r, nil
}

// RRuleString renders d as the value of an RRULE property, without DTSTART.
func RRuleString(d model.RecurrenceDescriptor, dtstart time.Time) (string, error) {
	opt, err := Option(d, dtstart)
	if err != nil {
		return "", err
	}
	// Dtstart is carried by the VEVENT, not the rule.
	opt.Dtstart = time.Time{}
	return opt.RRuleString(), nil
}

// FromRRule parses an RRULE value ("FREQ=WEEKLY;BYDAY=MO,WE") into a
// descriptor. Rules this model cannot express, such as hourly ones, are
// errors. UNTIL is read in loc.
func FromRRule(s string, loc *time.Location) (model.RecurrenceDescriptor, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := rrule.StrToROptionInLocation(s, loc)
	if err != nil {
		return model.RecurrenceDescriptor{}, fmt.Errorf("recurrence: parse %q: %w", s, err)
	}

	var d model.RecurrenceDescriptor
	for f, rf := range frequencies {
		if rf == opt.Freq {
			d.Frequency = f
		}
	}
	if d.Frequency == model.FrequencyNone {
		return model.RecurrenceDescriptor{}, fmt.Errorf("recurrence: unsupported frequency in %q", s)
	}
	d.Interval = max(opt.Interval, 1)
	d.Count = opt.Count
	if !opt.Until.IsZero() {
		end := model.DateOf(opt.Until.In(loc))
		d.EndDate = &end
	}
	for _, w := range opt.Byweekday {
		// Day() is Monday-based.
		d.DaysOfWeek = append(d.DaysOfWeek, time.Weekday((w.Day()+1)%7))
	}
	sort.Slice(d.DaysOfWeek, func(i, j int) bool { return d.DaysOfWeek[i] < d.DaysOfWeek[j] })
	return d, nil
}

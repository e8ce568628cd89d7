// Package recurrence infers repetition rules from scheduling text and
// bridges them to RFC 5545 RRULEs.
package recurrence

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"ducktape/internal/model"
)

const (
	// Extracted intervals outside this range are dropped.
	minInterval = 1
	maxInterval = 365
)

// Extraction is what the text says about repetition. Zero fields mean the
// text said nothing about that part.
type Extraction struct {
	Frequency model.Frequency
	Interval  int
	EndDate   *model.CalendarDate
	Count     int
	Days      []time.Weekday
}

// Empty reports whether nothing was found.
func (e Extraction) Empty() bool {
	return e.Frequency == model.FrequencyNone && e.Interval == 0 && e.EndDate == nil && e.Count == 0 && len(e.Days) == 0
}

const (
	weekdayBase = `(?:mon(?:day)?|tue(?:s(?:day)?)?|wed(?:nesday)?|thu(?:r(?:s(?:day)?)?)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)`
	listSep     = `\s*(?:,\s*and|,|and|&)\s*`
	monthNames  = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
)

var (
	everyNRe       = regexp.MustCompile(`(?i)\bevery\s+(\d{1,4})\s+(day|week|month|year)s?\b`)
	everyOtherRe   = regexp.MustCompile(`(?i)\bevery\s+other\s+(day|week|month|year)\b`)
	biweeklyRe     = regexp.MustCompile(`(?i)\b(?:bi-?weekly|fortnightly)\b`)
	everyUnitRe    = regexp.MustCompile(`(?i)\b(?:every|each)\s+(day|week|month|year)\b`)
	keywordRe      = regexp.MustCompile(`(?i)\b(daily|weekly|monthly|yearly|annually)\b`)
	everyWeekdayRe = regexp.MustCompile(`(?i)\b(?:every\s+weekday|on\s+weekdays|weekdays\s+only)\b`)
	everyWeekendRe = regexp.MustCompile(`(?i)\b(?:every\s+weekend|on\s+weekends)\b`)
	everyDaysRe    = regexp.MustCompile(`(?i)\b(?:every|each)\s+(` + weekdayBase + `s?(?:` + listSep + weekdayBase + `s?)*)\b`)
	onDaysRe       = regexp.MustCompile(`(?i)\bon\s+(` + weekdayBase + `s(?:` + listSep + weekdayBase + `s)*)\b`)
	dayNameRe      = regexp.MustCompile(`(?i)` + weekdayBase)

	untilRe    = regexp.MustCompile(`(?i)\b(?:until|till|til|through|thru|ending(?:\s+on)?)\s+(.+)`)
	isoDateRe  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\b`)
	relDayRe   = regexp.MustCompile(`(?i)^(today|tomorrow)\b`)
	dayMonthRe = regexp.MustCompile(`(?i)^(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\b\.?(?:,?\s+(\d{4}))?`)
	monthDayRe = regexp.MustCompile(`(?i)^(` + monthNames + `)\b\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4}))?`)
	monthRe    = regexp.MustCompile(`(?i)^(?:the\s+end\s+of\s+)?(` + monthNames + `)\b(?:\s+(\d{4}))?`)

	forCountRe   = regexp.MustCompile(`(?i)\bfor\s+(?:the\s+next\s+)?(\d{1,4})\s+(?:more\s+)?(?:times|occurrences|sessions|days|weeks|months|years)\b`)
	timesCountRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s+times\b`)
)

// Infer extracts repetition details from text. today resolves end dates
// given without a year. No bounds are enforced beyond the interval range;
// counts and intervals are checked downstream.
func Infer(text string, today model.CalendarDate) Extraction {
	var e Extraction

	setFreq := func(f model.Frequency) {
		if e.Frequency == model.FrequencyNone {
			e.Frequency = f
		}
	}

	if m := everyNRe.FindStringSubmatch(text); m != nil {
		f, _ := model.ParseFrequency(m[2])
		setFreq(f)
		if n, err := strconv.Atoi(m[1]); err == nil && n >= minInterval && n <= maxInterval {
			e.Interval = n
		}
	}
	if m := everyOtherRe.FindStringSubmatch(text); m != nil {
		f, _ := model.ParseFrequency(m[1])
		setFreq(f)
		if e.Interval == 0 {
			e.Interval = 2
		}
	}
	if biweeklyRe.MatchString(text) {
		setFreq(model.FrequencyWeekly)
		if e.Interval == 0 {
			e.Interval = 2
		}
	}

	switch {
	case everyWeekdayRe.MatchString(text):
		setFreq(model.FrequencyWeekly)
		e.Days = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	case everyWeekendRe.MatchString(text):
		setFreq(model.FrequencyWeekly)
		e.Days = []time.Weekday{time.Sunday, time.Saturday}
	default:
		for _, re := range []*regexp.Regexp{everyDaysRe, onDaysRe} {
			if m := re.FindStringSubmatch(text); m != nil {
				setFreq(model.FrequencyWeekly)
				e.Days = mergeDays(e.Days, parseDays(m[1]))
			}
		}
	}

	if m := everyUnitRe.FindStringSubmatch(text); m != nil {
		f, _ := model.ParseFrequency(m[1])
		setFreq(f)
	}
	if m := keywordRe.FindStringSubmatch(text); m != nil {
		f, _ := model.ParseFrequency(m[1])
		setFreq(f)
	}

	if m := untilRe.FindStringSubmatch(text); m != nil {
		if d, ok := ParseDate(m[1], today); ok {
			e.EndDate = &d
		}
	}

	for _, re := range []*regexp.Regexp{forCountRe, timesCountRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				e.Count = n
				break
			}
		}
	}
	return e
}

// Apply merges an extraction into an existing descriptor without
// overwriting anything already set. It returns nil when there is still no
// frequency.
func Apply(d *model.RecurrenceDescriptor, e Extraction) *model.RecurrenceDescriptor {
	var out model.RecurrenceDescriptor
	if d != nil {
		out = *d
		out.DaysOfWeek = append([]time.Weekday(nil), d.DaysOfWeek...)
	}
	if out.Frequency == model.FrequencyNone {
		out.Frequency = e.Frequency
	}
	if out.Frequency == model.FrequencyNone && len(e.Days) > 0 {
		out.Frequency = model.FrequencyWeekly
	}
	if out.Frequency == model.FrequencyNone {
		return nil
	}
	if out.Interval <= 1 && e.Interval > 0 {
		out.Interval = e.Interval
	}
	if out.Interval < 1 {
		out.Interval = 1
	}
	if out.EndDate == nil && e.EndDate != nil {
		end := *e.EndDate
		out.EndDate = &end
	}
	if out.Count == 0 {
		out.Count = e.Count
	}
	if len(out.DaysOfWeek) == 0 {
		out.DaysOfWeek = mergeDays(nil, e.Days)
	}
	return &out
}

// ParseDate reads a date at the start of s: "2027-03-01", "tomorrow",
// "March 1", "Mar 1st, 2027", "1 March", "the 3rd of May" or a bare month
// ("December", meaning its last day). Without a year the next such date on
// or after today is used.
func ParseDate(s string, today model.CalendarDate) (model.CalendarDate, bool) {
	s = strings.TrimSpace(s)

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		d, err := model.ParseCalendarDate(m[1])
		return d, err == nil
	}
	if m := relDayRe.FindStringSubmatch(s); m != nil {
		if strings.EqualFold(m[1], "tomorrow") {
			return today.AddDays(1), true
		}
		return today, true
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1], today)
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[1], m[2], today)
	}
	if m := monthRe.FindStringSubmatch(s); m != nil {
		month := monthNumber(m[1])
		year := today.Year
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		} else if month < today.Month {
			year++
		}
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return model.DateOf(last), true
	}
	return model.CalendarDate{}, false
}

func buildDate(yearStr, monthStr, dayStr string, today model.CalendarDate) (model.CalendarDate, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return model.CalendarDate{}, false
	}
	month := monthNumber(monthStr)
	explicitYear := yearStr != ""
	year := today.Year
	if explicitYear {
		if year, err = strconv.Atoi(yearStr); err != nil {
			return model.CalendarDate{}, false
		}
	}

	d, ok := validDate(year, month, day)
	if !ok {
		// Feb 29 without a year may only exist in a later year.
		if explicitYear {
			return model.CalendarDate{}, false
		}
		for y := year + 1; y <= year+4 && !ok; y++ {
			d, ok = validDate(y, month, day)
		}
		return d, ok
	}
	if !explicitYear && d.Before(today) {
		if next, ok := validDate(year+1, month, day); ok {
			return next, true
		}
	}
	return d, true
}

func validDate(year int, month time.Month, day int) (model.CalendarDate, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return model.CalendarDate{}, false
	}
	return model.DateOf(t), true
}

func monthNumber(s string) time.Month {
	s = strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), s[:3]) {
			return m
		}
	}
	return 0
}

func parseDays(list string) []time.Weekday {
	var out []time.Weekday
	for _, name := range dayNameRe.FindAllString(list, -1) {
		if wd, ok := model.ParseWeekdayCode(name[:3]); ok {
			out = append(out, wd)
		}
	}
	return out
}

// mergeDays returns the sorted union of a and b.
func mergeDays(a, b []time.Weekday) []time.Weekday {
	seen := map[time.Weekday]bool{}
	var out []time.Weekday
	for _, list := range [][]time.Weekday{a, b} {
		for _, d := range list {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

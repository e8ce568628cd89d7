// Package timeexpr finds time expressions in free text and resolves them
// to an absolute date and a 24-hour start/end clock pair.
package timeexpr

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode"
	"unicode/utf8"

	appLog "ducktape/internal/log"
	"ducktape/internal/model"
)

// Hint is shown when no time expression could be resolved.
const Hint = "try 'at 3pm' or 'tomorrow at 9am'"

// Kind identifies which expression family produced a Match.
type Kind int

const (
	KindNone Kind = iota
	KindAnchoredClock
	KindRelative
	KindBareClock
	KindAnchorOnly
)

func (k Kind) String() string {
	switch k {
	case KindAnchoredClock:
		return "anchored"
	case KindRelative:
		return "relative"
	case KindBareClock:
		return "clock"
	case KindAnchorOnly:
		return "anchor"
	default:
		return "none"
	}
}

// Match is a resolved time expression.
type Match struct {
	Kind  Kind
	Date  model.CalendarDate
	Start model.ClockTime
	End   model.ClockTime

	// Text is the matched span exactly as it appears in the input.
	Text string
	// AnchorText is the relative-day word(s) of the expression, if any.
	AnchorText string
	// Zone is the timezone abbreviation the clock was converted from.
	Zone string
}

// HasClock reports whether the match carries a start time.
func (m Match) HasClock() bool {
	return m.Kind == KindAnchoredClock || m.Kind == KindRelative || m.Kind == KindBareClock
}

const (
	clockPattern  = `(?:(?P<hour>\d{1,2})(?::(?P<min>\d{2}))?(?:\s?(?P<mer>[ap])\.?\s?m\b\.?)?|(?P<word>noon|midnight))`
	anchorPattern = `(?P<anchor>tonight|today|tomorrow|this\s+(?:evening|morning|afternoon)|(?:(?:on|next|this)\s+)?(?:mon|tues?|wed(?:nes)?|thu(?:rs?)?|fri|sat(?:ur)?|sun)day)`
)

var (
	anchoredClockRe = regexp.MustCompile(`(?i)\b` + anchorPattern + `\s+(?P<at>at\s+)?` + clockPattern)
	reversedClockRe = regexp.MustCompile(`(?i)\b(?P<at>at\s+)` + clockPattern + `\s+` + anchorPattern + `\b`)
	relativeRe      = regexp.MustCompile(`(?i)\bin\s*(?P<n>\d{1,3})\s*(?P<unit>minutes?|mins?|m|hours?|hrs?|h)\b`)
	relativeWordsRe = regexp.MustCompile(`(?i)\bin\s+(?P<phrase>an?\s+hour|half\s+an\s+hour)\b`)
	atClockRe       = regexp.MustCompile(`(?i)\b(?P<at>at\s+)` + clockPattern)
	meridiemClockRe = regexp.MustCompile(`(?i)\b(?P<hour>\d{1,2})(?::(?P<min>\d{2}))?\s?(?P<mer>[ap])\.?\s?m\b\.?`)
	anchorOnlyRe    = regexp.MustCompile(`(?i)\b` + anchorPattern + `\b`)
	clockOnlyRe     = regexp.MustCompile(`(?i)^` + clockPattern + `$`)
	zoneSuffixRe    = regexp.MustCompile(`^\s+([A-Za-z]{2,5})\b`)
)

// Resolver resolves expressions relative to a display timezone.
type Resolver struct {
	loc *time.Location
}

// New returns a Resolver for loc; nil means time.Local.
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{loc: loc}
}

// Location returns the display timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve scans text for a time expression. Families are tried in priority
// order and the first one that yields a valid expression wins:
//
//   - relative-day anchor with a clock ("tonight at 7pm", "at 7pm tonight")
//   - relative duration ("in 30 minutes"); the date follows the start time
//   - a clock on its own ("at 3pm", "3:30pm", "at 14:00"), dated today
//   - an anchor without a clock ("tomorrow"), which sets the date only
//
// The end time is always start + 1h on the 24-hour clock.
func (r *Resolver) Resolve(text string, now time.Time) (Match, bool) {
	now = now.In(r.loc)
	today := model.DateOf(now)

	for _, resolve := range []func(string, time.Time, model.CalendarDate) (Match, bool){
		r.anchored,
		r.relative,
		r.bareClock,
		r.anchorOnly,
	} {
		if m, ok := resolve(text, now, today); ok {
			appLog.Debug("time expression resolved", "kind", m.Kind, "text", m.Text, "date", m.Date, "start", m.Start)
			return m, true
		}
	}
	return Match{}, false
}

func (r *Resolver) anchored(text string, _ time.Time, today model.CalendarDate) (Match, bool) {
	cands := append(findAll(anchoredClockRe, text), findAll(reversedClockRe, text)...)
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].start < cands[j].start })

	for _, c := range cands {
		v := c.vals
		// "tomorrow 2" is not a time; without "at" the clock needs a
		// meridiem, minutes, or a word like noon.
		if v["at"] == "" && v["mer"] == "" && v["min"] == "" && v["word"] == "" {
			continue
		}
		if !boundaryAfter(text, c.end) {
			continue
		}
		anchor := parseAnchor(v["anchor"])
		clock, ok := clockFromParts(v, anchor)
		if !ok {
			continue
		}
		m := Match{
			Kind:       KindAnchoredClock,
			Date:       anchor.date(today),
			Start:      clock,
			AnchorText: v["anchor"],
		}
		end := c.end
		if !c.anchorLast {
			end = r.applyZone(text, end, &m)
		}
		m.Text = text[c.start:end]
		m.End = m.Start.AddHour()
		return m, true
	}
	return Match{}, false
}

func (r *Resolver) relative(text string, now time.Time, _ model.CalendarDate) (Match, bool) {
	type cand struct {
		start, end int
		d          time.Duration
	}
	var cands []cand
	for _, c := range findAll(relativeRe, text) {
		n, err := strconv.Atoi(c.vals["n"])
		if err != nil || n <= 0 {
			continue
		}
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(c.vals["unit"]), "h") {
			unit = time.Hour
		}
		cands = append(cands, cand{c.start, c.end, time.Duration(n) * unit})
	}
	for _, c := range findAll(relativeWordsRe, text) {
		d := time.Hour
		if strings.HasPrefix(strings.ToLower(c.vals["phrase"]), "half") {
			d = 30 * time.Minute
		}
		cands = append(cands, cand{c.start, c.end, d})
	}
	if len(cands) == 0 {
		return Match{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].start < cands[j].start })

	c := cands[0]
	start := now.Add(c.d).Truncate(time.Minute)
	m := Match{
		Kind:  KindRelative,
		Date:  model.DateOf(start),
		Start: model.ClockOf(start),
		Text:  text[c.start:c.end],
	}
	m.End = m.Start.AddHour()
	return m, true
}

func (r *Resolver) bareClock(text string, _ time.Time, today model.CalendarDate) (Match, bool) {
	for _, re := range []*regexp.Regexp{atClockRe, meridiemClockRe} {
		for _, c := range findAll(re, text) {
			if !boundaryAfter(text, c.end) {
				continue
			}
			clock, ok := clockFromParts(c.vals, anchorNone)
			if !ok {
				continue
			}
			m := Match{Kind: KindBareClock, Date: today, Start: clock}
			end := r.applyZone(text, c.end, &m)
			m.Text = text[c.start:end]
			m.End = m.Start.AddHour()
			return m, true
		}
	}
	return Match{}, false
}

func (r *Resolver) anchorOnly(text string, _ time.Time, today model.CalendarDate) (Match, bool) {
	cands := findAll(anchorOnlyRe, text)
	if len(cands) == 0 {
		return Match{}, false
	}
	c := cands[0]
	return Match{
		Kind:       KindAnchorOnly,
		Date:       parseAnchor(c.vals["anchor"]).date(today),
		Text:       text[c.start:c.end],
		AnchorText: c.vals["anchor"],
	}, true
}

// applyZone converts m from a trailing timezone abbreviation (if any) into
// the display zone and returns the extended end of the matched span.
func (r *Resolver) applyZone(text string, end int, m *Match) int {
	loc := zoneSuffixRe.FindStringSubmatchIndex(text[end:])
	if loc == nil {
		return end
	}
	abbr := text[end+loc[2] : end+loc[3]]
	name, ok := zoneAbbreviations[strings.ToUpper(abbr)]
	if !ok {
		return end
	}
	src, err := time.LoadLocation(name)
	if err != nil {
		appLog.Debug("timezone unavailable", "abbr", abbr, "zone", name, "err", err)
		return end
	}
	t := m.Date.At(m.Start, src).In(r.loc)
	m.Date = model.DateOf(t)
	m.Start = model.ClockOf(t)
	m.Zone = strings.ToUpper(abbr)
	return end + loc[1]
}

// ParseClock parses a lone clock expression such as "7pm", "3:30 p.m.",
// "23:45" or "noon". The anchor word supplies the default meridiem.
func ParseClock(expr string, anchorWord string) (model.ClockTime, bool) {
	loc := clockOnlyRe.FindStringSubmatchIndex(strings.TrimSpace(expr))
	if loc == nil {
		return model.ClockTime{}, false
	}
	s := strings.TrimSpace(expr)
	vals := map[string]string{}
	for i, name := range clockOnlyRe.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		vals[name] = s[loc[2*i]:loc[2*i+1]]
	}
	return clockFromParts(vals, parseAnchor(anchorWord))
}

// Meridiem is the am/pm marker of a 12-hour clock.
type Meridiem int

const (
	NoMeridiem Meridiem = iota
	AM
	PM
)

// To24Hour converts a 12-hour reading: (12,AM)->0, (12,PM)->12,
// (h<12,PM)->h+12, anything else is returned unchanged.
func To24Hour(hour int, m Meridiem) int {
	switch {
	case hour == 12 && m == AM:
		return 0
	case hour == 12 && m == PM:
		return 12
	case hour < 12 && m == PM:
		return hour + 12
	default:
		return hour
	}
}

func clockFromParts(v map[string]string, a anchor) (model.ClockTime, bool) {
	switch strings.ToLower(v["word"]) {
	case "noon":
		return model.ClockTime{Hour: 12}, true
	case "midnight":
		return model.ClockTime{}, true
	}

	hour, err := strconv.Atoi(v["hour"])
	if err != nil {
		return model.ClockTime{}, false
	}
	minute := 0
	if v["min"] != "" {
		if minute, err = strconv.Atoi(v["min"]); err != nil {
			return model.ClockTime{}, false
		}
	}

	mer := NoMeridiem
	switch strings.ToLower(v["mer"]) {
	case "a":
		mer = AM
	case "p":
		mer = PM
	}
	hour = To24Hour(hour, mer)
	if mer == NoMeridiem && a.impliesPM() && hour >= 1 && hour <= 11 {
		hour += 12
	}
	return model.NewClockTime(hour, minute)
}

type submatch struct {
	start, end int
	vals       map[string]string
	anchorLast bool
}

func findAll(re *regexp.Regexp, text string) []submatch {
	names := re.SubexpNames()
	var out []submatch
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		s := submatch{start: loc[0], end: loc[1], vals: map[string]string{}, anchorLast: re == reversedClockRe}
		for i, name := range names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			s.vals[name] = text[loc[2*i]:loc[2*i+1]]
		}
		out = append(out, s)
	}
	return out
}

// boundaryAfter rejects spans glued to a following letter or digit ("7pmx", "at 100").
func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

var zoneAbbreviations = map[string]string{
	"PST": "America/Los_Angeles", "PDT": "America/Los_Angeles",
	"MST": "America/Denver", "MDT": "America/Denver",
	"CST": "America/Chicago", "CDT": "America/Chicago",
	"EST": "America/New_York", "EDT": "America/New_York",
	"AKST": "America/Anchorage", "AKDT": "America/Anchorage",
	"HST": "Pacific/Honolulu", "HDT": "Pacific/Honolulu",
	"UTC": "UTC", "GMT": "Etc/GMT",
	"BST": "Europe/London", "IST": "Asia/Kolkata",
	"CET": "Europe/Berlin", "CEST": "Europe/Berlin",
	"EET": "Europe/Helsinki", "EEST": "Europe/Helsinki",
	"MSK": "Europe/Moscow",
	"AEST": "Australia/Sydney", "AEDT": "Australia/Sydney",
	"ACST": "Australia/Adelaide", "ACDT": "Australia/Adelaide",
	"AWST": "Australia/Perth",
	"NZST": "Pacific/Auckland", "NZDT": "Pacific/Auckland",
	"JST": "Asia/Tokyo", "KST": "Asia/Seoul",
}

package timeexpr

import (
	"regexp"
	"strings"
	"time"

	"ducktape/internal/model"
)

type anchorKind int

const (
	anchorKindNone anchorKind = iota
	anchorToday
	anchorTonight
	anchorThisMorning
	anchorThisAfternoon
	anchorThisEvening
	anchorTomorrow
	anchorWeekday
)

type anchor struct {
	kind    anchorKind
	weekday time.Weekday
	next    bool
}

var anchorNone = anchor{}

var spaceRun = regexp.MustCompile(`\s+`)

func parseAnchor(s string) anchor {
	s = spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	switch s {
	case "":
		return anchorNone
	case "today":
		return anchor{kind: anchorToday}
	case "tonight":
		return anchor{kind: anchorTonight}
	case "this morning":
		return anchor{kind: anchorThisMorning}
	case "this afternoon":
		return anchor{kind: anchorThisAfternoon}
	case "this evening":
		return anchor{kind: anchorThisEvening}
	case "tomorrow":
		return anchor{kind: anchorTomorrow}
	}

	a := anchor{kind: anchorWeekday}
	switch {
	case strings.HasPrefix(s, "next "):
		a.next = true
		s = strings.TrimPrefix(s, "next ")
	case strings.HasPrefix(s, "on "):
		s = strings.TrimPrefix(s, "on ")
	case strings.HasPrefix(s, "this "):
		s = strings.TrimPrefix(s, "this ")
	}
	wd, ok := model.ParseWeekdayCode(s[:min(3, len(s))])
	if !ok {
		return anchorNone
	}
	a.weekday = wd
	return a
}

// impliesPM is true for anchors where a bare "7" means 19:00.
func (a anchor) impliesPM() bool {
	switch a.kind {
	case anchorTonight, anchorThisEvening, anchorThisAfternoon:
		return true
	}
	return false
}

// date resolves the anchor against today. A weekday resolves to the next
// such day on or after today; with "next" the same weekday moves a week on.
func (a anchor) date(today model.CalendarDate) model.CalendarDate {
	switch a.kind {
	case anchorTomorrow:
		return today.AddDays(1)
	case anchorWeekday:
		cur := today.In(time.UTC).Weekday()
		diff := (int(a.weekday) - int(cur) + 7) % 7
		if diff == 0 && a.next {
			diff = 7
		}
		return today.AddDays(diff)
	default:
		return today
	}
}

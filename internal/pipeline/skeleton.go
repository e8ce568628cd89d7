package pipeline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ducktape/internal/model"
)

var (
	calledRe      = regexp.MustCompile(`(?i)\b(?:called|titled|named)\s+(.+)`)
	remindMeRe    = regexp.MustCompile(`(?i)\bremind\s+me\s+(?:to\s+|about\s+)?(.+)`)
	reminderToRe  = regexp.MustCompile(`(?i)\b(?:reminder|todo|to-do)\s*(?:to|for|:)\s*(.+)`)
	addToListRe   = regexp.MustCompile(`(?i)^(?:add|put)\s+(.+?)\s+(?:to|on)\s+(?:my|the)\s+(?:todo|to-do|to do|reminders?)(?:\s+list)?\b`)
	noteAboutRe   = regexp.MustCompile(`(?i)\b(?:note|jot\s+down)\s*(?:about|on|:)?\s+(.+)`)
	noteContentRe = regexp.MustCompile(`(?i)\s+(?:saying|that says|with content|content:)\s+(.+)$`)
	calendarRefRe = regexp.MustCompile(`(?i)\s*\b(?:on|in|to)\s+(?:my|the)\s+([A-Za-z0-9_-]+)\s+calendar\b`)
	listRefRe     = regexp.MustCompile(`(?i)\s*\b(?:on|in|to)\s+(?:my|the)\s+([A-Za-z0-9_-]+)\s+list\b`)
	folderRefRe   = regexp.MustCompile(`(?i)\s*\b(?:in|to)\s+(?:my|the)\s+([A-Za-z0-9_-]+)\s+folder\b`)
	leadingVerbRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:schedule|create|add|new|setup|set\s+up|organize|book|plan|arrange|make)\s+(?:an?\s+|the\s+|my\s+)?(?:new\s+)?`)
)

// titleMarkers end a title taken from free text.
var titleMarkers = []string{
	" at ", " on ", " for ", " with ", " and ", " invite ", " every ", " until ",
	" in my ", " in the ", ",", ";", "\n",
}

// buildSkeleton fills the title, target and note content of a record built
// from free text.
func buildSkeleton(cmd *model.DraftCommand, text string, d Defaults) {
	switch cmd.Family {
	case model.FamilyCalendarCreate:
		if m := calendarRefRe.FindStringSubmatch(text); m != nil {
			cmd.Target = matchCalendar(m[1], d.Calendars)
			text = strings.Replace(text, m[0], "", 1)
		}
		cmd.Title = calendarTitle(text)
	case model.FamilyReminderCreate:
		if m := listRefRe.FindStringSubmatch(text); m != nil && !isReminderWord(m[1]) {
			cmd.Target = m[1]
			text = strings.Replace(text, m[0], "", 1)
		}
		cmd.Title = reminderTitle(text)
	case model.FamilyNoteCreate:
		if m := folderRefRe.FindStringSubmatch(text); m != nil {
			cmd.Target = m[1]
			text = strings.Replace(text, m[0], "", 1)
		}
		if m := noteContentRe.FindStringSubmatchIndex(text); m != nil {
			cmd.Content = strings.TrimSpace(text[m[2]:m[3]])
			text = text[:m[0]]
		}
		cmd.Title = noteTitle(text)
	}
}

func calendarTitle(text string) string {
	if m := calledRe.FindStringSubmatch(text); m != nil {
		return cleanTitle(cutAtMarkers(m[1]))
	}
	rest := leadingVerbRe.ReplaceAllString(strings.TrimSpace(text), "")
	return capitalize(cleanTitle(cutAtMarkers(rest)))
}

func reminderTitle(text string) string {
	for _, re := range []*regexp.Regexp{addToListRe, remindMeRe, reminderToRe, calledRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return cleanTitle(m[1])
		}
	}
	return cleanTitle(text)
}

func noteTitle(text string) string {
	for _, re := range []*regexp.Regexp{calledRe, noteAboutRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return cleanTitle(m[1])
		}
	}
	return cleanTitle(leadingVerbRe.ReplaceAllString(strings.TrimSpace(text), ""))
}

func cutAtMarkers(s string) string {
	lower := strings.ToLower(s)
	end := len(s)
	for _, mk := range titleMarkers {
		if i := strings.Index(lower, mk); i >= 0 && i < end {
			end = i
		}
	}
	return s[:end]
}

func cleanTitle(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".!?")
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return oneLine(s)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// matchCalendar prefers the configured spelling of a calendar name.
func matchCalendar(name string, calendars []string) string {
	for _, c := range calendars {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return capitalize(name)
}

func isReminderWord(s string) bool {
	switch strings.ToLower(s) {
	case "todo", "to-do", "reminder", "reminders":
		return true
	}
	return false
}

package pipeline

import (
	"regexp"
	"strings"

	"ducktape/internal/model"
)

var verbFamilies = map[string]model.CommandFamily{
	"schedule":    model.FamilyCalendarCreate,
	"create":      model.FamilyCalendarCreate,
	"add":         model.FamilyCalendarCreate,
	"new":         model.FamilyCalendarCreate,
	"setup":       model.FamilyCalendarCreate,
	"organize":    model.FamilyCalendarCreate,
	"book":        model.FamilyCalendarCreate,
	"plan":        model.FamilyCalendarCreate,
	"arrange":     model.FamilyCalendarCreate,
	"meeting":     model.FamilyCalendarCreate,
	"event":       model.FamilyCalendarCreate,
	"appointment": model.FamilyCalendarCreate,
	"remind":      model.FamilyReminderCreate,
	"todo":        model.FamilyReminderCreate,
	"reminder":    model.FamilyReminderCreate,
	"note":        model.FamilyNoteCreate,
	"jot":         model.FamilyNoteCreate,
}

var (
	notePhrases     = []string{"note called", "note titled", "note named", "take note", "take a note", "create a note", "add a note", "new note", "make a note", "jot down"}
	reminderPhrases = []string{"remind me", "reminder", "todo", "to-do", "to do list"}
)

var (
	canonicalCreateRe = regexp.MustCompile(`(?i)^(?:ducktape\s+)?(calendar|todo|todos|reminder|reminders|note|notes)\s+(?:create|add|new)\b`)
	canonicalAnyRe    = regexp.MustCompile(`(?i)^ducktape\b`)
	calendarWordRe    = regexp.MustCompile(`\b(?:meeting|event|appointment|zoom|calendar)s?\b`)
)

// Classify decides the command family of text and whether text is already
// a canonical command. It never fails; unknown input is Unrecognized.
//
// Order: canonical prefix, note and reminder phrases, the first word,
// then calendar keywords. Phrases go first so that "create a note about
// the meeting" is a note.
func Classify(text string) (model.CommandFamily, bool) {
	trimmed := strings.TrimSpace(text)
	if m := canonicalCreateRe.FindStringSubmatch(trimmed); m != nil {
		return familyOfNoun(m[1]), true
	}
	if canonicalAnyRe.MatchString(trimmed) {
		return model.FamilyUnrecognized, true
	}

	lower := strings.ToLower(trimmed)
	if containsAny(lower, notePhrases) {
		return model.FamilyNoteCreate, false
	}
	if containsAny(lower, reminderPhrases) {
		return model.FamilyReminderCreate, false
	}
	if fields := strings.Fields(lower); len(fields) > 0 {
		first := strings.Trim(fields[0], ".,:;!?")
		if f, ok := verbFamilies[first]; ok {
			return f, false
		}
	}
	if calendarWordRe.MatchString(lower) {
		return model.FamilyCalendarCreate, false
	}
	return model.FamilyUnrecognized, false
}

func familyOfNoun(noun string) model.CommandFamily {
	switch strings.ToLower(noun) {
	case "calendar":
		return model.FamilyCalendarCreate
	case "todo", "todos", "reminder", "reminders":
		return model.FamilyReminderCreate
	case "note", "notes":
		return model.FamilyNoteCreate
	}
	return model.FamilyUnrecognized
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

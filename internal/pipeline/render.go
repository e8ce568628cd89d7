package pipeline

import (
	"strconv"
	"strings"
	"time"

	"ducktape/internal/model"
)

var defaultReminderClock = model.ClockTime{Hour: 9}

// Render produces the command line for cmd. Missing calendar dates and
// times are filled with the next full hour, which late at night falls on
// tomorrow; the record itself is left untouched. Unrecognized commands render their source text.
func Render(cmd *model.DraftCommand, env *Env) string {
	switch cmd.Family {
	case model.FamilyCalendarCreate:
		return renderCalendar(cmd, env)
	case model.FamilyReminderCreate:
		return renderReminder(cmd, env)
	case model.FamilyNoteCreate:
		return renderNote(cmd, env)
	default:
		src := oneLine(env.Source)
		if strings.HasPrefix(strings.ToLower(src), "ducktape ") {
			return src
		}
		return "ducktape " + src
	}
}

func renderCalendar(cmd *model.DraftCommand, env *Env) string {
	slot := nextHour(env.Now)
	date, start := model.DateOf(slot), model.ClockOf(slot)
	if cmd.Date != nil && (cmd.Start != nil || *cmd.Date != model.DateOf(env.Now)) {
		date = *cmd.Date
	}
	if cmd.Start != nil {
		start = *cmd.Start
	}
	end := start.AddHour()
	if cmd.End != nil {
		end = *cmd.End
	}

	var b strings.Builder
	b.WriteString("ducktape calendar create ")
	b.WriteString(quote(titleOr(cmd.Title, "Event")))
	b.WriteString(" " + date.String() + " " + start.String() + " " + end.String() + " ")
	b.WriteString(quote(firstNonEmpty(cmd.Target, env.Defaults.Calendar, "Calendar")))

	if len(cmd.Emails) > 0 {
		b.WriteString(" --email " + quote(strings.Join(cmd.Emails, ",")))
	}
	if len(cmd.Invitees) > 0 {
		b.WriteString(" --contacts " + quote(strings.Join(cmd.Invitees, ",")))
	}
	if cmd.Location != "" {
		b.WriteString(" --location " + quote(cmd.Location))
	}
	if r := cmd.Recurrence; r != nil && r.Frequency != model.FrequencyNone {
		b.WriteString(" --repeat " + r.Frequency.String())
		if r.Interval > 1 {
			b.WriteString(" --interval " + strconv.Itoa(r.Interval))
		}
		if r.EndDate != nil {
			b.WriteString(" --until " + r.EndDate.String())
		}
		if r.Count > 0 {
			b.WriteString(" --count " + strconv.Itoa(r.Count))
		}
		if len(r.DaysOfWeek) > 0 {
			codes := make([]string, 0, len(r.DaysOfWeek))
			for _, d := range r.DaysOfWeek {
				codes = append(codes, model.WeekdayCode(d))
			}
			b.WriteString(" --days " + strings.Join(codes, ","))
		}
	}
	if cmd.IsVirtualMeeting {
		b.WriteString(" --zoom")
	}
	return b.String()
}

func renderReminder(cmd *model.DraftCommand, env *Env) string {
	var b strings.Builder
	b.WriteString("ducktape todo create ")
	b.WriteString(quote(titleOr(cmd.Title, "Reminder")))
	if cmd.Date != nil || cmd.Start != nil {
		date := model.DateOf(env.Now)
		if cmd.Date != nil {
			date = *cmd.Date
		}
		clock := defaultReminderClock
		if cmd.Start != nil {
			clock = *cmd.Start
		}
		b.WriteString(" " + date.String() + " " + clock.String())
	}
	b.WriteString(" " + quote(firstNonEmpty(cmd.Target, env.Defaults.ReminderList, "Reminders")))
	return b.String()
}

func renderNote(cmd *model.DraftCommand, env *Env) string {
	s := "ducktape note create " + quote(titleOr(cmd.Title, "Note")) + " " +
		quote(firstNonEmpty(cmd.Target, env.Defaults.NotesFolder, "Notes"))
	if cmd.Content != "" {
		s += " --content " + quote(cmd.Content)
	}
	return s
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(oneLine(s)) + `"`
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleOr(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// nextHour is the default start used when no time was resolved. After
// 23:00 it is midnight of the next day.
func nextHour(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
}

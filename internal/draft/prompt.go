package draft

import (
	"fmt"
	"strings"
	"time"
)

// PromptConfig carries the user's calendar setup into the system prompt.
type PromptConfig struct {
	Calendars       []string
	DefaultCalendar string
	ReminderList    string
	NotesFolder     string
}

// SystemPrompt builds the instructions sent with every draft request.
func SystemPrompt(cfg PromptConfig, now time.Time) string {
	calendars := cfg.Calendars
	if len(calendars) == 0 {
		calendars = []string{"Calendar", "Work", "Home"}
	}
	def := cfg.DefaultCalendar
	if def == "" {
		def = calendars[0]
	}
	slot := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	defaultTime := slot.Format("15:04") + " to " + slot.Add(time.Hour).Format("15:04")
	if slot.Day() != now.Day() {
		defaultTime += " on " + slot.Format("2006-01-02")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You convert natural language into a single ducktape command line.\n")
	fmt.Fprintf(&b, "Current time is: %s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Available calendars: %s\n", strings.Join(calendars, ", "))
	fmt.Fprintf(&b, "Default calendar: %s\n\n", def)

	b.WriteString("Formats:\n")
	b.WriteString(`ducktape calendar create "<title>" <YYYY-MM-DD> <HH:MM> <HH:MM> "<calendar>" [--email "<e1>,<e2>"] [--contacts "<n1>,<n2>"] [--location "<place>"] [--repeat daily|weekly|monthly|yearly] [--interval N] [--until YYYY-MM-DD] [--count N] [--days MO,WE] [--zoom]` + "\n")
	fmt.Fprintf(&b, "ducktape todo create \"<title>\" [<YYYY-MM-DD> <HH:MM>] \"%s\"\n", firstNonEmpty(cfg.ReminderList, "Reminders"))
	fmt.Fprintf(&b, "ducktape note create \"<title>\" \"%s\" [--content \"<text>\"]\n\n", firstNonEmpty(cfg.NotesFolder, "Notes"))

	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "1. If no date is given use today (%s).\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "2. If no time is given use %s.\n", defaultTime)
	b.WriteString("3. Use 24-hour HH:MM times and YYYY-MM-DD dates.\n")
	b.WriteString("4. Use a calendar named in the input, otherwise the default calendar.\n")
	b.WriteString("5. Put person names in --contacts and e-mail addresses in --email, comma-separated.\n")
	b.WriteString("6. Ignore phrases like 'to say' or 'saying' when finding contacts.\n")
	b.WriteString("7. Output the command only, on one line, with no explanation.\n")
	return b.String()
}

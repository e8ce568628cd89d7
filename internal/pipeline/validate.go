package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"ducktape/internal/entity"
	"ducktape/internal/model"
)

const (
	MaxInterval = 100
	MaxCount    = 500
)

var unsafeSequences = []string{"&&", "|", ";", "`"}

var (
	intervalFlagRe = regexp.MustCompile(`--interval[\s=]+"?(\d+)`)
	countFlagRe    = regexp.MustCompile(`--count[\s=]+"?(\d+)`)
)

// ValidateCommand checks a command line before it is handed to a shell.
func ValidateCommand(s string) error {
	if err := checkUnsafe(s); err != nil {
		return err
	}
	if err := checkFlagBound(s, intervalFlagRe, "--interval", MaxInterval); err != nil {
		return err
	}
	return checkFlagBound(s, countFlagRe, "--count", MaxCount)
}

func checkUnsafe(s string) error {
	for _, seq := range unsafeSequences {
		if strings.Contains(s, seq) {
			return fmt.Errorf("%w: %q", ErrUnsafeCommand, seq)
		}
	}
	return nil
}

func checkFlagBound(s string, re *regexp.Regexp, flag string, limit int) error {
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > limit {
			return fmt.Errorf("%w: %s %s exceeds %d", ErrOutOfRange, flag, m[1], limit)
		}
	}
	return nil
}

// ValidateRecord runs the same checks on the structured record.
func ValidateRecord(cmd *model.DraftCommand) error {
	if r := cmd.Recurrence; r != nil {
		if r.Interval > MaxInterval {
			return fmt.Errorf("%w: interval %d exceeds %d", ErrOutOfRange, r.Interval, MaxInterval)
		}
		if r.Interval < 1 {
			return fmt.Errorf("%w: interval %d", ErrOutOfRange, r.Interval)
		}
		if r.Count > MaxCount || r.Count < 0 {
			return fmt.Errorf("%w: count %d exceeds %d", ErrOutOfRange, r.Count, MaxCount)
		}
	}
	for _, c := range []*model.ClockTime{cmd.Start, cmd.End} {
		if c == nil {
			continue
		}
		if _, ok := model.NewClockTime(c.Hour, c.Minute); !ok {
			return fmt.Errorf("%w: time %02d:%02d", ErrOutOfRange, c.Hour, c.Minute)
		}
	}
	for _, e := range cmd.Emails {
		if !entity.IsEmail(e) {
			return fmt.Errorf("%w: e-mail %q", ErrOutOfRange, e)
		}
	}

	fields := append([]string{cmd.Title, cmd.Target, cmd.Location, cmd.Content}, cmd.Invitees...)
	fields = append(fields, cmd.Emails...)
	for _, f := range fields {
		for _, seq := range unsafeSequences {
			if strings.Contains(f, seq) {
				return fmt.Errorf("%w: %q in %q", ErrUnsafeCommand, seq, f)
			}
		}
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsControl(r) && r != '\n' && r != '\t' }) >= 0 {
			return fmt.Errorf("%w: control character in %q", ErrUnsafeCommand, f)
		}
	}
	return nil
}

package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputRunes is the longest utterance accepted.
const MaxInputRunes = 1000

var quoteReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u201c", `"`, "\u201d", `"`,
	"\u2018", "'", "\u2019", "'",
)

// Sanitize drops control characters other than newline and tab and
// normalizes typographic quotes and non-breaking spaces.
func Sanitize(s string) string {
	s = quoteReplacer.Replace(s)
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}

// CheckInput sanitizes raw input after the length and emptiness checks.
func CheckInput(raw string) (string, error) {
	if utf8.RuneCountInString(raw) > MaxInputRunes {
		return "", ErrInputTooLong
	}
	s := Sanitize(raw)
	if s == "" {
		return "", ErrEmptyInput
	}
	return s, nil
}

package timeexpr

import (
	"regexp"
	"strings"
)

var danglingTail = regexp.MustCompile(`(?i)(?:\s+(?:at|on|for|by|from|@))+$`)

// CleanTitle strips the matched expression from title. The anchor phrase is
// removed when it is left dangling at either end of the title.
func CleanTitle(title string, m Match) string {
	if m.Kind == KindNone {
		return title
	}
	out := title
	if m.Text != "" {
		out = ReplaceFold(out, m.Text, " ")
	}
	if m.AnchorText != "" {
		out = trimAnchor(strings.Fields(out), strings.Fields(m.AnchorText))
	}
	return Tidy(out)
}

// ReplaceFold replaces every case-insensitive occurrence of old in s.
func ReplaceFold(s, old, repl string) string {
	if old == "" || len(old) > len(s) {
		return s
	}
	var b strings.Builder
	i := 0
	for i+len(old) <= len(s) {
		if strings.EqualFold(s[i:i+len(old)], old) {
			b.WriteString(repl)
			i += len(old)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	b.WriteString(s[i:])
	return b.String()
}

// trimAnchor drops the anchor words from the start and the end of words.
func trimAnchor(words, anchor []string) string {
	if len(anchor) == 0 {
		return strings.Join(words, " ")
	}
	if wordsEqualFold(words, anchor) {
		words = words[len(anchor):]
	}
	if n := len(words) - len(anchor); n >= 0 && wordsEqualFold(words[n:], anchor) {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// wordsEqualFold reports whether words starts with anchor. Trailing
// punctuation on a title word is ignored.
func wordsEqualFold(words, anchor []string) bool {
	if len(words) < len(anchor) {
		return false
	}
	for i, a := range anchor {
		if !strings.EqualFold(strings.TrimRight(words[i], ",;:.!?"), a) {
			return false
		}
	}
	return true
}

// Tidy collapses whitespace and trims dangling prepositions and punctuation.
func Tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for {
		prev := s
		s = strings.TrimRight(s, " ,;:-")
		s = danglingTail.ReplaceAllString(s, "")
		if s == prev {
			return s
		}
	}
}

// Package entity pulls invitee names, e-mail addresses and locations out of
// scheduling requests.
package entity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+`)
	emailOnlyRe = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+$`)
)

// Connectives that introduce a list of people, longest first.
var connectives = []string{" and invite ", " invite ", " with ", " to "}

// stopPhrases end a captured list of people.
var stopPhrases = []string{
	" about ", " at ", " on ", " from ", " for ", " in ", " to ", " regarding ", " re: ",
	" and invite ", " invite ", " with ",
	" tomorrow", " today", " tonight", " this evening", " this morning", " this afternoon", " next ",
	" every ", " daily", " weekly", " monthly", " yearly", " annually", " biweekly", " until ",
	" called ", " titled ", " named ", " via ", " using ", " over ", " by ",
	"; ", "! ", "? ", "\n",
}

// leadingArticles mark tokens like "the team" that name a group, not a person.
var leadingArticles = map[string]bool{"the": true, "a": true, "an": true, "my": true, "our": true}

// Result holds the people found in a text. Names and Emails never share
// an entry.
type Result struct {
	Names  []string
	Emails []string
}

// IsEmail reports whether s is one e-mail address and nothing else.
func IsEmail(s string) bool {
	return emailOnlyRe.MatchString(strings.TrimSpace(s))
}

// FindEmails returns every e-mail address in text, in order of appearance.
func FindEmails(text string) []string {
	return emailRe.FindAllString(text, -1)
}

// Extract scans text for people after the connectives and for e-mail
// addresses anywhere.
//
// Behavior:
//   - a longer connective wins over a shorter one inside it (" and invite "
//     vs " invite ")
//   - each capture runs to the first stop phrase, then splits on commas and
//     " and "
//   - tokens after " to " must look like a proper name or an address
//   - tokens matching the e-mail pattern go to Emails, never to Names
//   - both lists are deduplicated case-insensitively, first spelling kept
func Extract(text string) Result {
	var res Result
	// Pad so a connective at the very start ("invite Ann ...") matches.
	padded := " " + text
	lower := strings.ToLower(padded)

	type span struct{ start, end int }
	var taken []span
	inside := func(i int) bool {
		for _, s := range taken {
			if i >= s.start && i < s.end {
				return true
			}
		}
		return false
	}

	type capture struct {
		at         int
		connective string
		segment    string
	}
	var caps []capture
	for _, conn := range connectives {
		from := 0
		for {
			idx := strings.Index(lower[from:], conn)
			if idx < 0 {
				break
			}
			idx += from
			from = idx + len(conn)
			if inside(idx) || inside(idx+len(conn)-1) {
				continue
			}
			taken = append(taken, span{idx, idx + len(conn)})
			caps = append(caps, capture{at: idx, connective: conn, segment: padded[idx+len(conn):]})
		}
	}
	sort.SliceStable(caps, func(i, j int) bool { return caps[i].at < caps[j].at })

	for _, c := range caps {
		for _, tok := range tokens(cutAtStop(c.segment)) {
			if IsEmail(tok) {
				res.Emails = append(res.Emails, tok)
				continue
			}
			if emailRe.MatchString(tok) {
				// "Bob bob@x.io": the address is picked up by the full scan below.
				continue
			}
			if c.connective == " to " && !startsUpper(tok) {
				continue
			}
			if !plausibleName(tok) {
				continue
			}
			res.Names = append(res.Names, tok)
		}
	}

	res.Emails = append(res.Emails, FindEmails(text)...)
	res.Emails = Dedup(res.Emails)
	res.Names = Dedup(res.Names)
	return res
}

// Merge combines existing names and e-mails with extra ones. Values that
// sit in the wrong list are moved, and the result is deduplicated.
func Merge(names, emails []string, more Result) Result {
	var out Result
	route := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if IsEmail(v) {
			out.Emails = append(out.Emails, v)
		} else {
			out.Names = append(out.Names, v)
		}
	}
	for _, list := range [][]string{names, emails, more.Names, more.Emails} {
		for _, v := range list {
			route(v)
		}
	}
	out.Names = Dedup(out.Names)
	out.Emails = Dedup(out.Emails)
	return out
}

// Dedup removes case-insensitive duplicates, keeping the first spelling.
func Dedup(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		k := strings.ToLower(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func cutAtStop(segment string) string {
	lower := strings.ToLower(segment)
	end := len(segment)
	for _, stop := range stopPhrases {
		if i := strings.Index(lower, stop); i >= 0 && i < end {
			end = i
		}
	}
	// A period ends the sentence unless it is part of an address.
	for i := 0; i < end; i++ {
		if segment[i] == '.' && (i+1 == len(segment) || segment[i+1] == ' ') {
			end = i
			break
		}
	}
	return segment[:end]
}

func tokens(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		for _, tok := range splitFold(part, " and ") {
			tok = strings.Trim(strings.TrimSpace(tok), `"'`)
			tok = strings.TrimPrefix(tok, "and ")
			if tok != "" {
				out = append(out, tok)
			}
		}
	}
	return out
}

func splitFold(s, sep string) []string {
	lower := strings.ToLower(s)
	var out []string
	for {
		i := strings.Index(lower, sep)
		if i < 0 {
			return append(out, s)
		}
		out = append(out, s[:i])
		s, lower = s[i+len(sep):], lower[i+len(sep):]
	}
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func plausibleName(tok string) bool {
	words := strings.Fields(tok)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	if leadingArticles[strings.ToLower(words[0])] {
		return false
	}
	switch strings.ToLower(tok) {
	case "me", "us", "everyone", "them", "him", "her", "you":
		return false
	}
	return true
}

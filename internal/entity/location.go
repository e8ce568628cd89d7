package entity

import (
	"regexp"
	"strings"
)

var (
	locationLabelRe = regexp.MustCompile(`(?i)\blocation\s*[:=]\s*([^,;\n]+)`)
	locatedAtRe     = regexp.MustCompile(`(?i)\blocated\s+at\s+([^,;\n]+)`)
	inRoomRe        = regexp.MustCompile(`(?i)\bin\s+(room\s+[A-Za-z0-9-]+)`)
	atTheRe         = regexp.MustCompile(`(?i)\bat\s+the\s+([^,;\n]+)`)
	atPlaceRe       = regexp.MustCompile(`\bat\s+([A-Z][\w'&-]*(?:\s+[A-Z0-9][\w'&-]*)*)`)
)

// notPlaces are capitalised words after "at" that name a time or a
// meeting service rather than a place.
var notPlaces = map[string]bool{"noon": true, "midnight": true, "zoom": true, "teams": true, "google": true}

// ExtractLocation finds a place phrase such as "location: HQ", "located at
// 5 Main St", "in room 4B", "at the office" or "at Blue Bottle".
func ExtractLocation(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{locationLabelRe, locatedAtRe, inRoomRe, atTheRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if loc := trimLocation(m[1]); loc != "" {
				if re == inRoomRe {
					loc = strings.ToUpper(loc[:1]) + loc[1:]
				}
				return loc, true
			}
		}
	}
	for _, m := range atPlaceRe.FindAllStringSubmatch(text, -1) {
		loc := trimLocation(m[1])
		if loc == "" || notPlaces[strings.ToLower(strings.Fields(loc)[0])] {
			continue
		}
		return loc, true
	}
	return "", false
}

func trimLocation(s string) string {
	s = cutAtStop(s)
	s = strings.TrimRight(strings.TrimSpace(s), ".!?")
	return strings.Join(strings.Fields(s), " ")
}

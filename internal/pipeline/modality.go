package pipeline

import "strings"

var virtualKeywords = []string{
	"zoom",
	"video call",
	"video meeting",
	"virtual meeting",
	"online meeting",
	"teams meeting",
	"google meet",
}

// IsVirtual reports whether text asks for a video meeting.
func IsVirtual(text string) bool {
	return containsAny(strings.ToLower(text), virtualKeywords)
}

package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "ducktape/internal/log"
	"ducktape/internal/model"
)

const defaultMaxOccurrences = 500

// ExpandConfig controls occurrence expansion.
type ExpandConfig struct {
	// Location is the display timezone; nil means time.Local.
	Location *time.Location

	// RangeStart / RangeEnd bound the window, both inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// Exclude drops instances starting at these times (EXDATE).
	Exclude []time.Time

	// MaxOccurrences caps the result; zero means defaultMaxOccurrences.
	MaxOccurrences int
}

// ExpandResult is the list of occurrences and whether the cap was hit.
type ExpandResult struct {
	Occurrences []model.Occurrence
	Truncated   bool
}

// Expand turns a calendar command into concrete occurrences inside the
// configured window. A command without recurrence yields at most one
// occurrence. Commands without a date or start time yield nothing.
//
// The end of each occurrence keeps the command's duration; an end clock
// earlier than the start is read as the next day.
func Expand(cmd model.DraftCommand, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}
	if cmd.Date == nil || cmd.Start == nil {
		return result, nil
	}

	start, end := Bounds(cmd, cfg.Location)
	dur := end.Sub(start)

	if cmd.Recurrence == nil {
		if overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			result.Occurrences = append(result.Occurrences, occurrence(cmd, start, end))
		}
		return result, nil
	}

	r, err := NewRule(*cmd.Recurrence, start)
	if err != nil {
		return result, err
	}
	var set rrule.Set
	set.RRule(r)
	for _, ex := range cfg.Exclude {
		set.ExDate(ex.In(cfg.Location))
	}

	times := set.Between(cfg.RangeStart.In(cfg.Location), cfg.RangeEnd.In(cfg.Location), true)
	if len(times) > cfg.MaxOccurrences {
		times = times[:cfg.MaxOccurrences]
		result.Truncated = true
		appLog.Warn("expand: occurrence cap reached", "title", cmd.Title, "cap", cfg.MaxOccurrences)
	}
	for _, t := range times {
		result.Occurrences = append(result.Occurrences, occurrence(cmd, t, t.Add(dur)))
	}
	return result, nil
}

// Preview returns the next n occurrences starting at or after from.
func Preview(cmd model.DraftCommand, loc *time.Location, from time.Time, n int) ([]model.Occurrence, error) {
	if n <= 0 || cmd.Date == nil || cmd.Start == nil {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	start, end := Bounds(cmd, loc)
	if cmd.Recurrence == nil {
		if start.Before(from) {
			return nil, nil
		}
		return []model.Occurrence{occurrence(cmd, start, end)}, nil
	}

	r, err := NewRule(*cmd.Recurrence, start)
	if err != nil {
		return nil, err
	}
	dur := end.Sub(start)
	next := r.Iterator()
	var out []model.Occurrence
	for len(out) < n {
		t, ok := next()
		if !ok {
			break
		}
		if t.Before(from) {
			continue
		}
		out = append(out, occurrence(cmd, t, t.Add(dur)))
	}
	return out, nil
}

// Bounds returns the absolute start and end of a dated command in loc.
func Bounds(cmd model.DraftCommand, loc *time.Location) (time.Time, time.Time) {
	start := cmd.Date.At(*cmd.Start, loc)
	endClock := cmd.Start.AddHour()
	if cmd.End != nil {
		endClock = *cmd.End
	}
	end := cmd.Date.At(endClock, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

func occurrence(cmd model.DraftCommand, start, end time.Time) model.Occurrence {
	return model.Occurrence{
		InstanceKey: start.Format(time.RFC3339),
		Title:       cmd.Title,
		Location:    cmd.Location,
		Start:       start,
		End:         end,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

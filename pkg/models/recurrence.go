package models

import (
	"strings"
	"time"
)

// ExpandRecurrence yields the occurrences of a recurring event that start
// within [from, to). Supported rules are the forms the calendar sync layer
// emits: "daily", "weekly", "monthly", optionally prefixed "FREQ=" in RRULE
// spelling. Unknown rules yield only the base occurrence when it falls in
// the window. Each occurrence keeps the base event's duration.
func ExpandRecurrence(e Event, from, to time.Time) []Event {
	rule := normalizeRule(e.RecurrenceRule)
	if rule == "" {
		if e.StartTime.Before(to) && e.EndTime.After(from) {
			return []Event{e}
		}
		return nil
	}

	duration := e.EndTime.Sub(e.StartTime)
	var out []Event
	start := e.StartTime
	for i := 0; start.Before(to); i++ {
		if !start.Before(from) || start.Add(duration).After(from) {
			occ := e
			occ.StartTime = start
			occ.EndTime = start.Add(duration)
			if i > 0 {
				occ.ID = e.ID + occurrenceSuffix(start)
			}
			out = append(out, occ)
		}
		switch rule {
		case "daily":
			start = start.AddDate(0, 0, 1)
		case "weekly":
			start = start.AddDate(0, 0, 7)
		case "monthly":
			start = start.AddDate(0, 1, 0)
		default:
			return out
		}
	}
	return out
}

func normalizeRule(rule string) string {
	r := strings.ToLower(strings.TrimSpace(rule))
	r = strings.TrimPrefix(r, "rrule:")
	r = strings.TrimPrefix(r, "freq=")
	if i := strings.IndexByte(r, ';'); i >= 0 {
		r = r[:i]
	}
	return r
}

func occurrenceSuffix(t time.Time) string {
	return "_" + t.UTC().Format("20060102")
}

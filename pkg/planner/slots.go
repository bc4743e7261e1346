package planner

import (
	"sort"
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// minSlotMinutes drops fragments too small to hold any real task.
const minSlotMinutes = 15

// slot is one free candidate interval.
type slot struct {
	start time.Time
	end   time.Time
}

func (s slot) minutes() int { return int(s.end.Sub(s.start) / time.Minute) }

// candidateSlots carves the free periods of each work day in the horizon:
// the work window minus existing events, hard constraint blocks, and lunch,
// then chopped at break boundaries.
func candidateSlots(now time.Time, horizonDays int, events []*models.Event, prefs models.Preferences, constraints []*models.Constraint) []slot {
	loc := prefs.Location()
	busy := busyIntervals(events, prefs, constraints)

	var slots []slot
	for day := 0; day <= horizonDays; day++ {
		date := now.In(loc).AddDate(0, 0, day)
		if !prefs.IsWorkDay(date.Weekday()) {
			continue
		}
		start := prefs.WorkStart.On(date, loc)
		end := prefs.WorkEnd.On(date, loc)
		if day == 0 && now.After(start) {
			start = now
		}
		if !end.After(start) {
			continue
		}

		lunchStart := prefs.LunchTime.On(date, loc)
		lunchEnd := lunchStart.Add(time.Duration(prefs.LunchDurationMinutes) * time.Minute)
		dayBusy := append([]slot{{lunchStart, lunchEnd}}, busy...)

		for _, free := range subtract(slot{start, end}, dayBusy) {
			slots = append(slots, chopBreaks(free, prefs)...)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].start.Before(slots[j].start) })
	return slots
}

// busyIntervals collects the blocked intervals: every existing event plus
// hard constraint blocks. Soft constraints only degrade confidence.
func busyIntervals(events []*models.Event, prefs models.Preferences, constraints []*models.Constraint) []slot {
	var busy []slot
	for _, e := range events {
		s, end := e.Span()
		if end.After(s) {
			busy = append(busy, slot{s, end})
		}
	}
	for _, c := range constraints {
		if c.IsHard && c.Blocks() {
			busy = append(busy, slot{*c.Start, *c.End})
		}
	}
	return busy
}

// subtract removes the busy intervals from the window, returning the free
// remainder in order.
func subtract(window slot, busy []slot) []slot {
	sorted := append([]slot(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	free := []slot{window}
	for _, b := range sorted {
		var next []slot
		for _, f := range free {
			if b.end.Before(f.start) || b.end.Equal(f.start) || b.start.After(f.end) || b.start.Equal(f.end) {
				next = append(next, f)
				continue
			}
			if b.start.After(f.start) {
				next = append(next, slot{f.start, b.start})
			}
			if b.end.Before(f.end) {
				next = append(next, slot{b.end, f.end})
			}
		}
		free = next
	}
	return free
}

// chopBreaks splits a free period at break boundaries: work chunks of
// break_frequency minutes separated by break_duration pauses.
func chopBreaks(free slot, prefs models.Preferences) []slot {
	if prefs.BreakFrequencyMinutes <= 0 {
		if free.minutes() >= minSlotMinutes {
			return []slot{free}
		}
		return nil
	}

	chunk := time.Duration(prefs.BreakFrequencyMinutes) * time.Minute
	pause := time.Duration(prefs.BreakDurationMinutes) * time.Minute

	var out []slot
	cursor := free.start
	for cursor.Before(free.end) {
		end := cursor.Add(chunk)
		if end.After(free.end) {
			end = free.end
		}
		s := slot{cursor, end}
		if s.minutes() >= minSlotMinutes {
			out = append(out, s)
		}
		cursor = end.Add(pause)
	}
	return out
}

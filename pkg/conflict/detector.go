package conflict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// comparisonHorizon limits pairwise comparison when no window is given:
// events whose starts are more than a day apart cannot usefully conflict.
const comparisonHorizon = 24 * time.Hour

// Detect finds conflicts among the given events. Detection is deterministic:
// events are sorted by start time (id tie-break) before comparison, overlap
// groups are emitted in start order, and conflict ids are derived from the
// sorted event ids, so permuting the input changes nothing.
func Detect(events []*models.Event, window *Window) Report {
	var report Report

	usable := make([]*models.Event, 0, len(events))
	for _, e := range events {
		if !comparable(e) {
			if e != nil && e.ID != "" {
				report.SkippedIDs = append(report.SkippedIDs, e.ID)
			}
			continue
		}
		usable = append(usable, e)
	}
	sort.SliceStable(usable, func(i, j int) bool {
		si, _ := usable[i].Span()
		sj, _ := usable[j].Span()
		if si.Equal(sj) {
			return usable[i].ID < usable[j].ID
		}
		return si.Before(sj)
	})

	// Group transitively-overlapping events; each group becomes one conflict.
	var groups [][]*models.Event
	for _, e := range usable {
		placed := false
		for gi, group := range groups {
			for _, member := range group {
				if !inScope(e, member, window) {
					continue
				}
				if e.Overlaps(member) {
					groups[gi] = append(group, e)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			groups = append(groups, []*models.Event{e})
		}
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		report.Conflicts = append(report.Conflicts, buildConflict(group))
	}
	return report
}

// comparable reports whether the event carries a usable interval.
func comparable(e *models.Event) bool {
	if e == nil || e.ID == "" {
		return false
	}
	if e.StartTime.IsZero() {
		return false
	}
	if e.IsAllDay {
		return true
	}
	return e.EndTime.After(e.StartTime)
}

// inScope gates pairwise comparison: events qualify when their starts lie
// within a day of each other, or when both fall inside the caller's window.
func inScope(a, b *models.Event, window *Window) bool {
	sa, _ := a.Span()
	sb, _ := b.Span()
	diff := sa.Sub(sb)
	if diff < 0 {
		diff = -diff
	}
	if diff <= comparisonHorizon {
		return true
	}
	if window == nil {
		return false
	}
	return within(a, window) && within(b, window)
}

func within(e *models.Event, w *Window) bool {
	s, end := e.Span()
	return s.Before(w.End) && end.After(w.Start)
}

func buildConflict(group []*models.Event) Conflict {
	kind := classify(group)

	ids := make([]string, len(group))
	for i, e := range group {
		ids[i] = e.ID
	}
	sortedIDs := append([]string(nil), ids...)
	sort.Strings(sortedIDs)

	c := Conflict{
		ID:          idPrefix(kind) + strings.Join(sortedIDs, "_"),
		Type:        kind,
		Severity:    severityOf(group),
		Events:      group,
		Description: describe(kind, group),
		Allowed:     allStrategies,
	}
	if len(group) == 2 {
		c.Metadata = map[string]any{
			"overlap_duration": overlapMinutes(group[0], group[1]),
		}
	}
	c.Suggested = suggest(c)
	return c
}

// overlapMinutes returns the shared duration of two events in whole minutes.
func overlapMinutes(a, b *models.Event) int {
	sa, ea := a.Span()
	sb, eb := b.Span()
	start := sa
	if sb.After(start) {
		start = sb
	}
	end := ea
	if eb.Before(end) {
		end = eb
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

func classify(group []*models.Event) Type {
	if len(group) >= 3 {
		return TypeDoubleBooking
	}
	a, b := group[0], group[1]
	if a.RecurrenceRule != "" && b.RecurrenceRule != "" {
		return TypeRecurring
	}
	if priorityMismatch(a.EffectivePriority(), b.EffectivePriority()) {
		return TypePriority
	}
	return TypeTimeOverlap
}

// priorityMismatch reports a high|urgent event clashing with a low one.
// Medium-priority events never raise a priority conflict on their own.
func priorityMismatch(a, b models.Priority) bool {
	elevated := func(p models.Priority) bool {
		return p == models.PriorityHigh || p == models.PriorityUrgent
	}
	return (elevated(a) && b == models.PriorityLow) ||
		(elevated(b) && a == models.PriorityLow)
}

func idPrefix(kind Type) string {
	switch kind {
	case TypePriority:
		return "priority_"
	case TypeRecurring:
		return "recurring_"
	default:
		return "overlap_"
	}
}

func severityOf(group []*models.Event) Severity {
	anyHigh := false
	for _, e := range group {
		switch e.EffectivePriority() {
		case models.PriorityUrgent:
			return SeverityCritical
		case models.PriorityHigh:
			anyHigh = true
		}
	}
	if anyHigh {
		return SeverityHigh
	}
	if len(group) >= 3 {
		return SeverityMedium
	}
	return SeverityLow
}

func suggest(c Conflict) Strategy {
	for _, e := range c.Events {
		p := e.EffectivePriority()
		if p == models.PriorityUrgent || p == models.PriorityHigh {
			return ReplaceWithNew
		}
	}
	if len(c.Events) >= 3 {
		return UserDecision
	}
	return KeepExisting
}

func describe(kind Type, group []*models.Event) string {
	titles := make([]string, len(group))
	for i, e := range group {
		titles[i] = fmt.Sprintf("%q", e.Title)
	}
	switch kind {
	case TypeDoubleBooking:
		return fmt.Sprintf("%d events booked over the same time: %s", len(group), strings.Join(titles, ", "))
	case TypePriority:
		return fmt.Sprintf("priority clash between %s and %s", titles[0], titles[1])
	case TypeRecurring:
		return fmt.Sprintf("recurring events %s and %s overlap", titles[0], titles[1])
	default:
		return fmt.Sprintf("%s overlaps %s", titles[0], titles[1])
	}
}

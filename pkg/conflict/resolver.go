package conflict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// Resolve applies a strategy to a conflict and returns the surviving event
// set. The choice argument is required for user_decision and cancel_event
// and ignored otherwise.
func Resolve(c *Conflict, strategy Strategy, choice *UserChoice) (*Resolution, error) {
	if len(c.Events) < 2 {
		return nil, fmt.Errorf("conflict %s has fewer than two events", c.ID)
	}
	if !c.Allows(strategy) {
		return nil, fmt.Errorf("strategy %s not allowed for conflict %s", strategy, c.ID)
	}

	res := &Resolution{ConflictID: c.ID, Strategy: strategy}
	switch strategy {
	case KeepExisting:
		res.Kept = []*models.Event{c.Events[0]}
		res.DiscardedIDs = idsExcept(c.Events, c.Events[0].ID)

	case ReplaceWithNew:
		last := c.Events[len(c.Events)-1]
		res.Kept = []*models.Event{last}
		res.DiscardedIDs = idsExcept(c.Events, last.ID)

	case MergeEvents:
		// The merged event replaces the originals wholesale, so nothing is
		// reported as discarded.
		res.Kept = []*models.Event{merge(c.Events)}

	case MoveToAlternativeTime:
		// Keep the earliest anchor; flag the rest for the planner.
		res.Kept = []*models.Event{c.Events[0]}
		res.RescheduleIDs = idsExcept(c.Events, c.Events[0].ID)

	case SplitEvent:
		kept, discarded, err := split(c.Events)
		if err != nil {
			return nil, err
		}
		res.Kept = kept
		res.DiscardedIDs = discarded

	case CancelEvent:
		if choice == nil || len(choice.Discard) == 0 {
			return nil, fmt.Errorf("cancel_event requires the event ids to cancel")
		}
		return applyChoice(c, strategy, &UserChoice{Discard: choice.Discard})

	case UserDecision:
		if choice == nil {
			return nil, fmt.Errorf("user_decision requires an explicit keep/discard choice")
		}
		return applyChoice(c, strategy, choice)

	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	return res, nil
}

func applyChoice(c *Conflict, strategy Strategy, choice *UserChoice) (*Resolution, error) {
	discard := make(map[string]bool, len(choice.Discard))
	for _, id := range choice.Discard {
		discard[id] = true
	}
	keepListed := make(map[string]bool, len(choice.Keep))
	for _, id := range choice.Keep {
		keepListed[id] = true
	}

	known := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		known[e.ID] = true
	}
	for id := range discard {
		if !known[id] {
			return nil, fmt.Errorf("event %s is not part of conflict %s", id, c.ID)
		}
	}
	for id := range keepListed {
		if !known[id] {
			return nil, fmt.Errorf("event %s is not part of conflict %s", id, c.ID)
		}
	}

	res := &Resolution{ConflictID: c.ID, Strategy: strategy}
	for _, e := range c.Events {
		switch {
		case discard[e.ID]:
			res.DiscardedIDs = append(res.DiscardedIDs, e.ID)
		case len(keepListed) > 0 && !keepListed[e.ID]:
			res.DiscardedIDs = append(res.DiscardedIDs, e.ID)
		default:
			res.Kept = append(res.Kept, e)
		}
	}
	if len(res.Kept) == 0 {
		return nil, fmt.Errorf("choice for conflict %s discards every event", c.ID)
	}
	return res, nil
}

// merge combines the conflicting events into one spanning event.
func merge(events []*models.Event) *models.Event {
	first := events[0]
	start, end := first.Span()
	titles := make([]string, 0, len(events))
	var descriptions []string
	for _, e := range events {
		s, en := e.Span()
		if s.Before(start) {
			start = s
		}
		if en.After(end) {
			end = en
		}
		titles = append(titles, e.Title)
		if e.Description != "" {
			descriptions = append(descriptions, e.Description)
		}
	}
	return &models.Event{
		ID:          models.NewID(),
		UserID:      first.UserID,
		Title:       strings.Join(titles, "|"),
		Description: strings.Join(descriptions, "|"),
		StartTime:   start,
		EndTime:     end,
		Source:      first.Source,
		IsMoveable:  first.IsMoveable,
		Timezone:    first.Timezone,
		Priority:    highestPriority(events),
	}
}

func highestPriority(events []*models.Event) models.Priority {
	best := events[0].EffectivePriority()
	for _, e := range events[1:] {
		if p := e.EffectivePriority(); p.Rank() < best.Rank() {
			best = p
		}
	}
	return best
}

// split partitions the longest event into the segments left free by the
// others, keeping the shorter events intact.
func split(events []*models.Event) ([]*models.Event, []string, error) {
	longest := events[0]
	for _, e := range events[1:] {
		ls, le := longest.Span()
		s, en := e.Span()
		if en.Sub(s) > le.Sub(ls) {
			longest = e
		}
	}

	type interval struct{ s, e int64 }
	var blocked []interval
	var kept []*models.Event
	for _, e := range events {
		if e.ID == longest.ID {
			continue
		}
		s, en := e.Span()
		blocked = append(blocked, interval{s.Unix(), en.Unix()})
		kept = append(kept, e)
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].s < blocked[j].s })

	ls, le := longest.Span()
	cursor := ls.Unix()
	limit := le.Unix()
	part := 0
	for _, b := range blocked {
		if b.s > cursor {
			seg := segEnd(b.s, limit)
			if seg > cursor {
				part++
				kept = append(kept, segment(longest, part, cursor, seg))
			}
		}
		if b.e > cursor {
			cursor = b.e
		}
	}
	if cursor < limit {
		part++
		kept = append(kept, segment(longest, part, cursor, limit))
	}
	if part == 0 {
		return nil, nil, fmt.Errorf("event %s is fully covered; split leaves nothing", longest.ID)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		si, _ := kept[i].Span()
		sj, _ := kept[j].Span()
		return si.Before(sj)
	})
	return kept, []string{longest.ID}, nil
}

func segEnd(blockStart, limit int64) int64 {
	if blockStart < limit {
		return blockStart
	}
	return limit
}

func segment(e *models.Event, part int, startUnix, endUnix int64) *models.Event {
	seg := *e
	seg.ID = fmt.Sprintf("%s_part%d", e.ID, part)
	seg.Title = fmt.Sprintf("%s (part %d)", e.Title, part)
	seg.StartTime = timeFromUnix(startUnix)
	seg.EndTime = timeFromUnix(endUnix)
	seg.IsAllDay = false
	seg.RecurrenceRule = ""
	return &seg
}

func timeFromUnix(u int64) time.Time {
	return time.Unix(u, 0).UTC()
}

func idsExcept(events []*models.Event, keepID string) []string {
	var ids []string
	for _, e := range events {
		if e.ID != keepID {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

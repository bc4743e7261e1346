package tools

import (
	"context"
	"time"

	"github.com/beq-project/beq/pkg/conflict"
)

func (d *Deps) listCalendarEvents(ctx context.Context, inv Invocation) (*Result, error) {
	if d.Calendar == nil {
		return nil, errNoCalendar()
	}
	from, to, err := d.eventWindow(inv)
	if err != nil {
		return nil, err
	}

	events, err := d.Calendar.ListEvents(ctx, inv.Args.String("calendar_id"), from, to)
	if err != nil {
		return nil, Errorf(KindUpstream, "calendar unavailable: %v", err)
	}
	if max := inv.Args.IntOr("max", 0); max > 0 && len(events) > max {
		events = events[:max]
	}

	items := make([]map[string]any, 0, len(events))
	for _, e := range events {
		s, en := e.Span()
		items = append(items, map[string]any{
			"external_id": e.ExternalID,
			"title":       e.Title,
			"start":       s.Format(timeFormat),
			"end":         en.Format(timeFormat),
			"all_day":     e.IsAllDay,
		})
	}
	return &Result{Content: jsonContent(map[string]any{
		"count":  len(items),
		"events": items,
	})}, nil
}

func (d *Deps) syncCalendar(ctx context.Context, inv Invocation) (*Result, error) {
	if d.Sync == nil {
		return nil, errNoCalendar()
	}
	from, to, err := d.eventWindow(inv)
	if err != nil {
		return nil, err
	}
	autoResolve := inv.Args.String("conflict_strategy") == "auto"

	summary, err := d.Sync.Sync(ctx, inv.UserID, inv.Args.String("calendar_id"), from, to, nil, autoResolve)
	if err != nil {
		return nil, Errorf(KindUpstream, "calendar sync failed: %v", err)
	}
	return &Result{Content: jsonContent(summary)}, nil
}

func (d *Deps) applyConflictResolution(ctx context.Context, inv Invocation) (*Result, error) {
	if d.Calendar == nil {
		return nil, errNoCalendar()
	}

	type requested struct {
		ConflictID   string               `json:"conflict_id"`
		Strategy     string               `json:"strategy"`
		UserDecision *conflict.UserChoice `json:"user_decision,omitempty"`
	}
	var reqs []requested
	if err := inv.Args.Decode("resolutions", &reqs); err != nil {
		return nil, Errorf(KindValidation, "invalid resolutions: %v", err)
	}

	// Conflict ids are deterministic over the event set, so re-detecting
	// over the current calendar window recovers the conflicts to resolve.
	calendarID := inv.Args.String("calendar_id")
	if calendarID == "" {
		calendarID = "primary"
	}
	now := d.Clock.Now()
	events, err := d.Calendar.ListEvents(ctx, calendarID, now.AddDate(0, 0, -1), now.AddDate(0, 0, d.horizon()))
	if err != nil {
		return nil, Errorf(KindUpstream, "calendar unavailable: %v", err)
	}
	for _, e := range events {
		e.UserID = inv.UserID
	}
	report := conflict.Detect(events, nil)

	byID := make(map[string]*conflict.Conflict, len(report.Conflicts))
	for i := range report.Conflicts {
		byID[report.Conflicts[i].ID] = &report.Conflicts[i]
	}

	var resolutions []conflict.Resolution
	for _, req := range reqs {
		c, ok := byID[req.ConflictID]
		if !ok {
			return nil, Errorf(KindNotFound, "conflict %s not found", req.ConflictID).
				WithHint("conflicts may have changed; run sync_calendar to get the current set")
		}
		res, err := conflict.Resolve(c, conflict.Strategy(req.Strategy), req.UserDecision)
		if err != nil {
			return nil, Errorf(KindValidation, "resolving %s: %v", req.ConflictID, err)
		}
		resolutions = append(resolutions, *res)
	}
	return &Result{Content: jsonContent(map[string]any{
		"resolutions": resolutions,
	})}, nil
}

// eventWindow resolves the optional start/end arguments, defaulting to
// [now, now + horizon).
func (d *Deps) eventWindow(inv Invocation) (time.Time, time.Time, error) {
	now := d.Clock.Now()
	from := now
	to := now.AddDate(0, 0, d.horizon())

	if s, err := inv.Args.Time("start"); err != nil {
		return from, to, Errorf(KindValidation, "invalid start: %v", err).WithHint("use RFC3339")
	} else if s != nil {
		from = *s
	}
	if e, err := inv.Args.Time("end"); err != nil {
		return from, to, Errorf(KindValidation, "invalid end: %v", err).WithHint("use RFC3339")
	} else if e != nil {
		to = *e
	}
	if !to.After(from) {
		return from, to, Errorf(KindValidation, "end must be after start")
	}
	return from, to, nil
}

func errNoCalendar() *Error {
	return Errorf(KindUpstream, "no calendar provider is configured").
		WithHint("connect a calendar first")
}

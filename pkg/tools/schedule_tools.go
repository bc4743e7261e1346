package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/planner"
)

func (d *Deps) getSchedule(ctx context.Context, inv Invocation) (*Result, error) {
	start, err := inv.Args.Time("start_date")
	if err != nil {
		return nil, Errorf(KindValidation, "invalid start_date: %v", err).WithHint("use RFC3339")
	}
	end, err := inv.Args.Time("end_date")
	if err != nil {
		return nil, Errorf(KindValidation, "invalid end_date: %v", err).WithHint("use RFC3339")
	}

	now := d.Clock.Now()
	from := now.Truncate(24 * time.Hour)
	if start != nil {
		from = *start
	}
	to := from.AddDate(0, 0, d.horizon())
	if end != nil {
		to = *end
	}
	if !to.After(from) {
		return nil, Errorf(KindValidation, "end_date must be after start_date")
	}

	var events []*models.Event
	if d.Calendar != nil {
		events, err = d.Calendar.ListEvents(ctx, "primary", from, to)
		if err != nil {
			return nil, Errorf(KindUpstream, "calendar unavailable: %v", err).
				WithHint("try again or answer from bricks and quantas instead")
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })

	days := make(map[string][]map[string]any)
	for _, e := range events {
		s, en := e.Span()
		day := s.Format("2006-01-02")
		days[day] = append(days[day], map[string]any{
			"title": e.Title,
			"start": s.Format(timeFormat),
			"end":   en.Format(timeFormat),
		})
	}
	return &Result{Content: jsonContent(map[string]any{
		"from":   from.Format(timeFormat),
		"to":     to.Format(timeFormat),
		"events": len(events),
		"days":   days,
	})}, nil
}

func (d *Deps) generateSchedule(ctx context.Context, inv Invocation) (*Result, error) {
	req := planner.Request{UserID: inv.UserID, Preferences: models.DefaultPreferences()}

	if err := inv.Args.Decode("tasks", &req.Tasks); err != nil {
		return nil, Errorf(KindValidation, "invalid tasks: %v", err)
	}
	if err := inv.Args.Decode("existing_events", &req.Events); err != nil {
		return nil, Errorf(KindValidation, "invalid existing_events: %v", err)
	}
	if _, ok := inv.Args["preferences"]; ok {
		if err := inv.Args.Decode("preferences", &req.Preferences); err != nil {
			return nil, Errorf(KindValidation, "invalid preferences: %v", err)
		}
	}
	if err := inv.Args.Decode("constraints", &req.Constraints); err != nil {
		return nil, Errorf(KindValidation, "invalid constraints: %v", err)
	}
	req.HorizonDays = inv.Args.IntOr("horizon_days", d.horizon())

	for _, t := range req.Tasks {
		if err := t.Validate(); err != nil {
			return nil, Errorf(KindValidation, "task %s: %v", t.ID, err)
		}
	}

	plan, err := d.Planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{Content: jsonContent(plan)}, nil
}

func (d *Deps) optimizeSchedule(ctx context.Context, inv Invocation) (*Result, error) {
	var schedule []*models.Event
	if err := inv.Args.Decode("existing_schedule", &schedule); err != nil {
		return nil, Errorf(KindValidation, "invalid existing_schedule: %v", err)
	}
	if len(schedule) == 0 {
		return nil, Errorf(KindValidation, "existing_schedule is empty").
			WithHint("pass the events to optimize, or use generate_schedule for a fresh plan")
	}
	var goals []string
	if err := inv.Args.Decode("goals", &goals); err != nil {
		return nil, Errorf(KindValidation, "invalid goals: %v", err)
	}

	// Moveable events become tasks to re-place; fixed events stay as
	// blockers. Goals shift the planner's slot-fitness weights.
	req := planner.Request{UserID: inv.UserID, Preferences: models.DefaultPreferences(), Goals: goals}
	if _, ok := inv.Args["preferences"]; ok {
		if err := inv.Args.Decode("preferences", &req.Preferences); err != nil {
			return nil, Errorf(KindValidation, "invalid preferences: %v", err)
		}
	}
	req.HorizonDays = inv.Args.IntOr("horizon_days", d.horizon())

	for _, e := range schedule {
		if !e.IsMoveable {
			req.Events = append(req.Events, e)
			continue
		}
		s, en := e.Span()
		req.Tasks = append(req.Tasks, &models.Task{
			ID:                       e.ID,
			Title:                    e.Title,
			EstimatedDurationMinutes: int(en.Sub(s) / time.Minute),
			Priority:                 e.EffectivePriority(),
		})
	}

	plan, err := d.Planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(goals) > 0 {
		plan.Reasoning = fmt.Sprintf("%s (goals: %s)", plan.Reasoning, strings.Join(goals, ", "))
	}
	return &Result{Content: jsonContent(plan)}, nil
}

package tools

import (
	"context"

	"github.com/beq-project/beq/pkg/models"
)

func (d *Deps) createBrick(ctx context.Context, inv Invocation) (*Result, error) {
	category, err := models.ParseCategory(inv.Args.String("category"))
	if err != nil {
		return nil, Errorf(KindValidation, "%v", err).
			WithHint("categories: work, personal, health, learning, social, maintenance, recreation")
	}
	priority, err := models.ParsePriority(inv.Args.String("priority"))
	if err != nil {
		return nil, Errorf(KindValidation, "%v", err).
			WithHint("priorities: low, medium, high, urgent")
	}
	targetDate, err := inv.Args.Time("target_date")
	if err != nil {
		return nil, Errorf(KindValidation, "invalid target_date: %v", err).WithHint("use RFC3339")
	}
	deadline, err := inv.Args.Time("deadline")
	if err != nil {
		return nil, Errorf(KindValidation, "invalid deadline: %v", err).WithHint("use RFC3339")
	}

	duration, _ := inv.Args.Int("estimated_duration_minutes")
	brick, err := d.Store.Bricks.Create(ctx, models.CreateBrickRequest{
		UserID:                   inv.UserID,
		Title:                    inv.Args.String("title"),
		Description:              inv.Args.String("description"),
		Category:                 category,
		Priority:                 priority,
		EstimatedDurationMinutes: duration,
		TargetDate:               targetDate,
		Deadline:                 deadline,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Content:  jsonContent(map[string]any{"brick_id": brick.ID, "title": brick.Title, "status": brick.Status}),
		EntityID: brick.ID,
	}, nil
}

func (d *Deps) updateBrick(ctx context.Context, inv Invocation) (*Result, error) {
	brickID := inv.Args.String("brick_id")

	existing, err := d.Store.Bricks.Get(ctx, inv.UserID, brickID)
	if err != nil {
		return nil, err
	}

	var req models.UpdateBrickRequest
	if v, ok := inv.Args["title"]; ok {
		s := v.(string)
		req.Title = &s
	}
	if v, ok := inv.Args["description"]; ok {
		s := v.(string)
		req.Description = &s
	}
	if v, ok := inv.Args["status"]; ok {
		status, err := models.ParseStatus(v.(string))
		if err != nil {
			return nil, Errorf(KindValidation, "%v", err).
				WithHint("statuses: not_started, in_progress, completed, cancelled, postponed")
		}
		req.Status = &status
	}
	if v, ok := inv.Args["priority"]; ok {
		priority, err := models.ParsePriority(v.(string))
		if err != nil {
			return nil, Errorf(KindValidation, "%v", err)
		}
		req.Priority = &priority
	}
	if req.Title == nil && req.Description == nil && req.Status == nil && req.Priority == nil {
		return nil, Errorf(KindValidation, "no fields to update").
			WithHint("pass at least one of title, description, status, priority")
	}

	// Editing a finished brick without reopening it is almost certainly a
	// mistake; surface it as advisory rather than silently mutating.
	if existing.Status == models.StatusCompleted && req.Status == nil {
		return nil, Errorf(KindConflict, "brick %s is completed", brickID).
			WithHint("set status to in_progress to reopen it first")
	}

	brick, err := d.Store.Bricks.Update(ctx, inv.UserID, brickID, req)
	if err != nil {
		return nil, err
	}
	return &Result{
		Content:  jsonContent(map[string]any{"ok": true, "brick_id": brick.ID, "status": brick.Status}),
		EntityID: brick.ID,
	}, nil
}

func (d *Deps) deleteBrick(ctx context.Context, inv Invocation) (*Result, error) {
	brickID := inv.Args.String("brick_id")
	cascade := inv.Args.Bool("delete_quantas")

	if err := d.Store.Bricks.Delete(ctx, inv.UserID, brickID, cascade); err != nil {
		return nil, err
	}
	return &Result{
		Content:  jsonContent(map[string]any{"ok": true, "deleted": brickID, "cascade": cascade}),
		EntityID: brickID,
	}, nil
}

func (d *Deps) listBricks(ctx context.Context, inv Invocation) (*Result, error) {
	filters := models.BrickFilters{Limit: inv.Args.IntOr("limit", 0)}
	if s := inv.Args.String("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			return nil, Errorf(KindValidation, "%v", err)
		}
		filters.Status = status
	}
	if c := inv.Args.String("category"); c != "" {
		category, err := models.ParseCategory(c)
		if err != nil {
			return nil, Errorf(KindValidation, "%v", err)
		}
		filters.Category = category
	}

	bricks, err := d.Store.Bricks.List(ctx, inv.UserID, filters)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]any, 0, len(bricks))
	for _, b := range bricks {
		summary := map[string]any{
			"brick_id": b.ID,
			"title":    b.Title,
			"category": b.Category,
			"priority": b.Priority,
			"status":   b.Status,
			"estimated_duration_minutes": b.EstimatedDurationMinutes,
		}
		if b.Deadline != nil {
			summary["deadline"] = b.Deadline.Format(timeFormat)
		}
		summaries = append(summaries, summary)
	}
	return &Result{Content: jsonContent(map[string]any{
		"count":  len(summaries),
		"bricks": summaries,
	})}, nil
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

package tools

import (
	"context"

	"github.com/beq-project/beq/pkg/models"
)

func (d *Deps) createQuanta(ctx context.Context, inv Invocation) (*Result, error) {
	duration, _ := inv.Args.Int("estimated_duration_minutes")
	quanta, err := d.Store.Quantas.Create(ctx, inv.UserID, models.CreateQuantaRequest{
		BrickID:                  inv.Args.String("brick_id"),
		Title:                    inv.Args.String("title"),
		Description:              inv.Args.String("description"),
		EstimatedDurationMinutes: duration,
		OrderIndex:               inv.Args.IntOr("order_index", 0),
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Content:  jsonContent(map[string]any{"quanta_id": quanta.ID, "brick_id": quanta.BrickID, "title": quanta.Title}),
		EntityID: quanta.ID,
	}, nil
}

func (d *Deps) updateQuanta(ctx context.Context, inv Invocation) (*Result, error) {
	var req models.UpdateQuantaRequest
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
	if v, ok := inv.Args.Int("estimated_duration_minutes"); ok {
		req.EstimatedDurationMinutes = &v
	}
	if v, ok := inv.Args.Int("order_index"); ok {
		req.OrderIndex = &v
	}
	if req.Title == nil && req.Description == nil && req.Status == nil &&
		req.EstimatedDurationMinutes == nil && req.OrderIndex == nil {
		return nil, Errorf(KindValidation, "no fields to update")
	}

	quanta, err := d.Store.Quantas.Update(ctx, inv.UserID, inv.Args.String("quanta_id"), req)
	if err != nil {
		return nil, err
	}
	return &Result{
		Content:  jsonContent(map[string]any{"ok": true, "quanta_id": quanta.ID, "status": quanta.Status}),
		EntityID: quanta.ID,
	}, nil
}

func (d *Deps) deleteQuanta(ctx context.Context, inv Invocation) (*Result, error) {
	quantaID := inv.Args.String("quanta_id")
	if err := d.Store.Quantas.Delete(ctx, inv.UserID, quantaID); err != nil {
		return nil, err
	}
	return &Result{
		Content:  jsonContent(map[string]any{"ok": true, "deleted": quantaID}),
		EntityID: quantaID,
	}, nil
}

func (d *Deps) listQuantas(ctx context.Context, inv Invocation) (*Result, error) {
	filters := models.QuantaFilters{BrickID: inv.Args.String("brick_id")}
	if s := inv.Args.String("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			return nil, Errorf(KindValidation, "%v", err)
		}
		filters.Status = status
	}

	quantas, err := d.Store.Quantas.List(ctx, inv.UserID, filters)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]any, 0, len(quantas))
	for _, q := range quantas {
		summaries = append(summaries, map[string]any{
			"quanta_id":   q.ID,
			"brick_id":    q.BrickID,
			"title":       q.Title,
			"status":      q.Status,
			"order_index": q.OrderIndex,
			"estimated_duration_minutes": q.EstimatedDurationMinutes,
		})
	}
	return &Result{Content: jsonContent(map[string]any{
		"count":   len(summaries),
		"quantas": summaries,
	})}, nil
}

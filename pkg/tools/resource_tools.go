package tools

import (
	"context"

	"github.com/beq-project/beq/pkg/models"
)

func (d *Deps) listResources(ctx context.Context, inv Invocation) (*Result, error) {
	resources, err := d.Store.Resources.List(ctx, models.ResourceFilters{
		Topic: inv.Args.String("topic"),
		Limit: inv.Args.IntOr("limit", 10),
	})
	if err != nil {
		return nil, err
	}
	return &Result{Content: jsonContent(resourcePayload(resources))}, nil
}

func (d *Deps) searchResources(ctx context.Context, inv Invocation) (*Result, error) {
	resources, err := d.Store.Resources.List(ctx, models.ResourceFilters{
		Query: inv.Args.String("query"),
		Limit: inv.Args.IntOr("limit", 10),
	})
	if err != nil {
		return nil, err
	}
	return &Result{Content: jsonContent(resourcePayload(resources))}, nil
}

func resourcePayload(resources []*models.Resource) map[string]any {
	items := make([]map[string]any, 0, len(resources))
	for _, r := range resources {
		items = append(items, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"topic":   r.Topic,
			"summary": r.Summary,
		})
	}
	return map[string]any{"count": len(items), "resources": items}
}
